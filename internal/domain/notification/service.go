package notification

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"notifyhub/internal/logger"
	"notifyhub/internal/metrics"
	"notifyhub/internal/pkg/httpclient"
)

const (
	DefaultPingInterval    = 30 * time.Second
	DefaultCallbackTimeout = 5 * time.Second

	defaultSendType = "info"
)

type Options struct {
	PingInterval    time.Duration
	CallbackTimeout time.Duration
	// Poster overrides the HTTP client used for tracking callbacks.
	Poster  CallbackPoster
	Metrics *metrics.Metrics
	Log     logrus.FieldLogger
}

// Service owns all delivery state for one process. Nothing is shared
// between instances.
type Service struct {
	store      *Store
	registry   *Registry
	dispatcher *Dispatcher
	tracker    *Tracker
	runner     *BestEffort
	live       *liveSessions

	pingInterval time.Duration
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
}

func NewService(opts Options) *Service {
	if opts.PingInterval <= 0 {
		opts.PingInterval = DefaultPingInterval
	}
	if opts.CallbackTimeout <= 0 {
		opts.CallbackTimeout = DefaultCallbackTimeout
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	if opts.Poster == nil {
		opts.Poster = httpclient.New(opts.CallbackTimeout)
	}

	log := opts.Log.WithField("component", "notification")
	store := NewStore()
	registry := NewRegistry(opts.Metrics, log)
	runner := NewBestEffort(opts.CallbackTimeout, log)

	return &Service{
		store:        store,
		registry:     registry,
		dispatcher:   NewDispatcher(store, registry, opts.Metrics, log),
		tracker:      NewTracker(store, opts.Poster, runner, opts.Metrics, log),
		runner:       runner,
		live:         newLiveSessions(),
		pingInterval: opts.PingInterval,
		metrics:      opts.Metrics,
		log:          log,
	}
}

func (s *Service) DispatchBulk(ctx context.Context, req BulkRequest) (*DispatchReport, error) {
	return s.dispatcher.DispatchBulk(ctx, req)
}

func (s *Service) MarkOpened(ctx context.Context, identity, id string) (Notification, error) {
	return s.tracker.MarkOpened(ctx, identity, id)
}

type SendInput struct {
	Sender      string
	TargetEmail string
	Message     string
	Type        string
}

// Send delivers a direct message to one identity. The notification is
// stored even when the target is offline, in which case ErrNotConnected
// is returned alongside it.
func (s *Service) Send(_ context.Context, in SendInput) (Notification, error) {
	target := NormalizeIdentity(in.TargetEmail)
	if target == "" || strings.TrimSpace(in.Message) == "" {
		return Notification{}, fmt.Errorf("%w: targetEmail and message are required", ErrBadRequest)
	}
	typ := in.Type
	if typ == "" {
		typ = defaultSendType
	}

	id := uuid.NewString()
	n := &Notification{
		ID:             id,
		NotificationID: id,
		Source:         in.Sender,
		Title:          "Message from " + orDefault(in.Sender, "system"),
		Content:        in.Message,
		Priority:       PriorityMedium,
		Type:           typ,
		Severity:       SeverityFor(PriorityMedium),
		Timestamp:      time.Now(),
		Metadata: map[string]any{
			metaTargetUser: TargetUser{Email: target},
		},
	}

	err := s.dispatcher.Deliver(target, n)
	if err != nil {
		s.log.WithError(err).WithField("identity", target).Info("direct message stored for later")
	}
	return n.clone(), err
}

type ListResult struct {
	Notifications []Notification `json:"notifications"`
	Count         int            `json:"count"`
	UnreadCount   int            `json:"unreadCount"`
}

func (s *Service) List(identity string) ListResult {
	all := s.store.List(identity)
	unread := 0
	for _, n := range all {
		if !n.Opened {
			unread++
		}
	}
	return ListResult{Notifications: all, Count: len(all), UnreadCount: unread}
}

func (s *Service) Unread(identity string) []Notification {
	out := slices.Collect(s.store.Unread(identity))
	if out == nil {
		out = []Notification{}
	}
	return out
}

func (s *Service) ConnectedIdentities() []string {
	return s.registry.ConnectedIdentities()
}

// NewSession prepares the lifecycle for a freshly accepted channel.
func (s *Service) NewSession(ch Channel) *Session {
	return &Session{
		ch:           ch,
		registry:     s.registry,
		store:        s.store,
		live:         s.live,
		pingInterval: s.pingInterval,
		metrics:      s.metrics,
		log:          s.log,
		now:          time.Now,
	}
}

// Shutdown closes every live channel, superseded ones included, and waits
// for pending callbacks until ctx is done. Sessions opened afterwards are
// refused.
func (s *Service) Shutdown(ctx context.Context) error {
	s.live.closeAll()
	s.registry.CloseAll()

	done := make(chan struct{})
	go func() {
		s.runner.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for pending callbacks: %w", ctx.Err())
	}
}
