package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"notifyhub/internal/metrics"
)

// CallbackPoster sends the tracking callback. httpclient.Client satisfies it.
type CallbackPoster interface {
	PostJSON(ctx context.Context, url string, body any, result any) error
}

// CallbackPayload is POSTed to a notification's trackingCallbackUrl on first open.
type CallbackPayload struct {
	NotificationID  string    `json:"notificationId"`
	UserID          string    `json:"userId"`
	UserEmail       string    `json:"userEmail"`
	UserName        string    `json:"userName"`
	ApplicationID   string    `json:"applicationId,omitempty"`
	ApplicationName string    `json:"applicationName,omitempty"`
	OpenedAt        time.Time `json:"openedAt"`
}

type Tracker struct {
	store   *Store
	poster  CallbackPoster
	runner  *BestEffort
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewTracker(store *Store, poster CallbackPoster, runner *BestEffort, m *metrics.Metrics, log logrus.FieldLogger) *Tracker {
	return &Tracker{
		store:   store,
		poster:  poster,
		runner:  runner,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// MarkOpened opens identity's notification. The first open of a tracked
// notification fires its callback in the background; later opens return the
// stored entry with no side effects.
func (t *Tracker) MarkOpened(ctx context.Context, identity, id string) (Notification, error) {
	if identity == "" {
		return Notification{}, ErrUnauthenticated
	}
	if strings.TrimSpace(id) == "" {
		return Notification{}, fmt.Errorf("%w: notificationId is required", ErrBadRequest)
	}

	n, changed, err := t.store.MarkOpened(identity, id, t.now())
	if err != nil {
		return Notification{}, err
	}
	if !changed {
		return n, nil
	}

	t.log.WithFields(logrus.Fields{"identity": identity, "id": id}).Info("notification opened")

	if n.TrackingEnabled && n.TrackingCallbackURL != "" {
		payload := buildCallbackPayload(identity, n)
		url := n.TrackingCallbackURL
		t.runner.Go(ctx, "tracking callback "+id, func(ctx context.Context) error {
			if err := t.poster.PostJSON(ctx, url, payload, nil); err != nil {
				t.metrics.IncCallback("failed")
				return fmt.Errorf("post tracking callback to %s: %w", url, err)
			}
			t.metrics.IncCallback("sent")
			return nil
		})
	}
	return n, nil
}

func buildCallbackPayload(identity string, n Notification) CallbackPayload {
	user := n.TargetUser()
	p := CallbackPayload{
		NotificationID:  n.NotificationID,
		UserID:          orDefault(user.ID, identity),
		UserEmail:       orDefault(user.Email, identity),
		UserName:        orDefault(user.Name, identity),
		ApplicationID:   metaString(n.Metadata, metaApplicationID),
		ApplicationName: metaString(n.Metadata, metaApplicationName),
	}
	if n.OpenedAt != nil {
		p.OpenedAt = *n.OpenedAt
	}
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
