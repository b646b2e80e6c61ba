package notification

import (
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"notifyhub/internal/metrics"
)

// Registry maps an identity to its single live channel. A later Register for
// the same identity replaces the earlier channel without closing it.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel

	// delivery serializes store-and-push against register-and-replay
	// for the same identity.
	delivery identityLocks

	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

func NewRegistry(m *metrics.Metrics, log logrus.FieldLogger) *Registry {
	return &Registry{
		channels: make(map[string]Channel),
		metrics:  m,
		log:      log,
	}
}

// Register installs ch as identity's channel and returns the one it replaced, if any.
func (r *Registry) Register(identity string, ch Channel) Channel {
	r.mu.Lock()
	prev := r.channels[identity]
	r.channels[identity] = ch
	n := len(r.channels)
	r.mu.Unlock()

	r.metrics.SetConnected(n)
	if prev != nil {
		r.log.WithFields(logrus.Fields{
			"identity": identity,
			"previous": prev.ID().String(),
			"current":  ch.ID().String(),
		}).Info("channel superseded")
	}
	return prev
}

// Unregister removes identity's entry only when it still holds ch.
// It reports whether an entry was removed.
func (r *Registry) Unregister(identity string, ch Channel) bool {
	r.mu.Lock()
	cur, ok := r.channels[identity]
	if !ok || cur.ID() != ch.ID() {
		r.mu.Unlock()
		return false
	}
	delete(r.channels, identity)
	n := len(r.channels)
	r.mu.Unlock()

	r.metrics.SetConnected(n)
	return true
}

func (r *Registry) lockIdentity(identity string) (unlock func()) {
	return r.delivery.lock(identity)
}

func (r *Registry) Lookup(identity string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.channels[identity]
	return ch, ok
}

// ConnectedIdentities returns a sorted snapshot of identities with a live channel.
func (r *Registry) ConnectedIdentities() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.channels))
	for identity := range r.channels {
		out = append(out, identity)
	}
	r.mu.RUnlock()

	slices.Sort(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// CloseAll closes every registered channel. Sessions observe Done and
// unregister themselves.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	chans := make([]Channel, 0, len(r.channels))
	for _, ch := range r.channels {
		chans = append(chans, ch)
	}
	r.mu.RUnlock()

	for _, ch := range chans {
		ch.Close()
	}
}
