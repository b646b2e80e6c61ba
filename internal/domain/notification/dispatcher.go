package notification

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"notifyhub/internal/metrics"
)

// Target is one recipient of a bulk dispatch.
type Target struct {
	Identity string
	UserID   string
	Name     string
}

type BulkRequest struct {
	NotificationID      string
	Source              string
	Title               string
	Content             string
	Priority            Priority
	Type                string
	Metadata            map[string]any
	TrackingEnabled     bool
	TrackingCallbackURL string
	Targets             []Target
}

type DeliverySuccess struct {
	Identity       string `json:"identity"`
	NotificationID string `json:"notificationId"`
}

type DeliveryFailure struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
}

// DispatchReport lists per-target outcomes in request order.
type DispatchReport struct {
	Total   int               `json:"total"`
	Success []DeliverySuccess `json:"success"`
	Failed  []DeliveryFailure `json:"failed"`
}

type Dispatcher struct {
	store    *Store
	registry *Registry
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewDispatcher(store *Store, registry *Registry, m *metrics.Metrics, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		registry: registry,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// DispatchBulk stores one notification per target and pushes it to targets
// with a live channel. It fails only on request validation, before any
// side effect.
func (d *Dispatcher) DispatchBulk(_ context.Context, req BulkRequest) (*DispatchReport, error) {
	if len(req.Targets) == 0 {
		return nil, fmt.Errorf("%w: targetUsers must not be empty", ErrBadRequest)
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrBadRequest)
	}

	if req.NotificationID == "" {
		req.NotificationID = uuid.NewString()
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if req.Type == "" {
		req.Type = DefaultType
	}

	report := &DispatchReport{
		Total:   len(req.Targets),
		Success: make([]DeliverySuccess, 0, len(req.Targets)),
		Failed:  make([]DeliveryFailure, 0),
	}
	now := d.now()

	for _, t := range req.Targets {
		identity := NormalizeIdentity(t.Identity)
		if identity == "" {
			report.fail("", ReasonMissingIdentity)
			d.metrics.IncDispatch(ReasonMissingIdentity)
			continue
		}

		n := d.build(req, t, identity, now)
		reason, err := d.deliver(identity, n)
		if reason == "" {
			report.Success = append(report.Success, DeliverySuccess{Identity: identity, NotificationID: n.ID})
			d.metrics.IncDispatch("Delivered")
			continue
		}

		report.fail(identity, reason)
		d.metrics.IncDispatch(reason)
		if err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"identity": identity,
				"id":       n.ID,
			}).Warn("push to live channel failed, notification kept in store")
		}
	}

	d.log.WithFields(logrus.Fields{
		"notificationId": req.NotificationID,
		"total":          report.Total,
		"delivered":      len(report.Success),
		"failed":         len(report.Failed),
	}).Info("bulk dispatch finished")

	return report, nil
}

// Deliver stores n for identity and pushes it when a channel is live.
// It returns ErrNotConnected or ErrPushFailed for the undelivered cases;
// the notification is stored either way.
func (d *Dispatcher) Deliver(identity string, n *Notification) error {
	reason, err := d.deliver(identity, n)
	switch reason {
	case "":
		return nil
	case ReasonNotConnected:
		return ErrNotConnected
	default:
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
}

func (d *Dispatcher) deliver(identity string, n *Notification) (reason string, err error) {
	unlock := d.registry.lockIdentity(identity)
	defer unlock()

	d.store.Append(identity, n)

	ch, ok := d.registry.Lookup(identity)
	if !ok {
		return ReasonNotConnected, nil
	}
	if err := ch.Send(NotificationEvent(*n)); err != nil {
		return ReasonPushFailed, err
	}
	d.metrics.IncChannelEvent(string(EventNotification))
	return "", nil
}

func (d *Dispatcher) build(req BulkRequest, t Target, identity string, now time.Time) *Notification {
	key := t.UserID
	if key == "" {
		key = identity
	}

	meta := maps.Clone(req.Metadata)
	if meta == nil {
		meta = make(map[string]any, 1)
	}
	meta[metaTargetUser] = TargetUser{ID: t.UserID, Name: t.Name, Email: identity}

	return &Notification{
		ID:                  req.NotificationID + "-" + key,
		NotificationID:      req.NotificationID,
		Source:              req.Source,
		Title:               req.Title,
		Content:             req.Content,
		Priority:            req.Priority,
		Type:                req.Type,
		Severity:            SeverityFor(req.Priority),
		Timestamp:           now,
		Metadata:            meta,
		TrackingEnabled:     req.TrackingEnabled,
		TrackingCallbackURL: req.TrackingCallbackURL,
	}
}

func (r *DispatchReport) fail(identity, reason string) {
	r.Failed = append(r.Failed, DeliveryFailure{Identity: identity, Reason: reason})
}
