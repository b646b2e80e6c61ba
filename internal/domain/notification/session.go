package notification

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"notifyhub/internal/metrics"
)

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session drives one channel from connect to close: register, greet,
// replay the unread backlog, keep alive, then unregister exactly once.
type Session struct {
	ch           Channel
	registry     *Registry
	store        *Store
	live         *liveSessions
	pingInterval time.Duration
	metrics      *metrics.Metrics
	log          logrus.FieldLogger
	now          func() time.Time

	state     atomic.Int32
	closeOnce sync.Once
}

// State reports where the session is in its lifecycle.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Serve blocks until ctx is cancelled, the transport signals Done, or a
// write fails. The channel is closed and unregistered on every exit path.
func (s *Session) Serve(ctx context.Context) error {
	defer s.close()

	if !s.live.add(s) {
		return ErrChannelClosed
	}
	if err := s.open(); err != nil {
		return err
	}

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.ch.Done():
			return nil
		case <-ticker.C:
			if err := s.send(PingEvent(s.now())); err != nil {
				if errors.Is(err, ErrChannelClosed) {
					return nil
				}
				return err
			}
		}
	}
}

// open registers the channel and replays the backlog while holding the
// identity's delivery lock, so a concurrent dispatch lands either in the
// replay or after it.
func (s *Session) open() error {
	identity := s.ch.Identity()
	unlock := s.registry.lockIdentity(identity)
	defer unlock()

	s.registry.Register(identity, s.ch)
	s.state.Store(int32(StateOpen))
	s.log.WithField("identity", identity).Info("channel opened")

	if err := s.send(ConnectedEvent()); err != nil {
		return err
	}
	replayed := 0
	for n := range s.store.Unread(identity) {
		if err := s.send(NotificationEvent(n)); err != nil {
			return err
		}
		replayed++
	}
	if replayed > 0 {
		s.log.WithFields(logrus.Fields{"identity": identity, "count": replayed}).Debug("replayed unread notifications")
	}
	return nil
}

func (s *Session) send(ev Event) error {
	if err := s.ch.Send(ev); err != nil {
		return err
	}
	s.metrics.IncChannelEvent(string(ev.Type))
	return nil
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		s.live.remove(s)
		removed := s.registry.Unregister(s.ch.Identity(), s.ch)
		s.ch.Close()
		s.log.WithFields(logrus.Fields{
			"identity":     s.ch.Identity(),
			"channel":      s.ch.ID().String(),
			"unregistered": removed,
		}).Info("channel closed")
	})
}

// liveSessions tracks every serving session, including superseded ones
// that are no longer in the registry.
type liveSessions struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	shut     bool
}

func newLiveSessions() *liveSessions {
	return &liveSessions{sessions: make(map[*Session]struct{})}
}

// add reports false once closeAll has run.
func (l *liveSessions) add(s *Session) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shut {
		return false
	}
	l.sessions[s] = struct{}{}
	return true
}

func (l *liveSessions) remove(s *Session) {
	l.mu.Lock()
	delete(l.sessions, s)
	l.mu.Unlock()
}

func (l *liveSessions) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// closeAll closes the channel of every live session and rejects new ones.
func (l *liveSessions) closeAll() {
	l.mu.Lock()
	l.shut = true
	chans := make([]Channel, 0, len(l.sessions))
	for s := range l.sessions {
		chans = append(chans, s.ch)
	}
	l.mu.Unlock()

	for _, ch := range chans {
		ch.Close()
	}
}
