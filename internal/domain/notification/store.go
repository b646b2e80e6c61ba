package notification

import (
	"iter"
	"sync"
	"time"
)

// Store keeps each recipient's notifications in append order for the process lifetime.
type Store struct {
	mu   sync.RWMutex
	logs map[string][]*Notification
}

func NewStore() *Store {
	return &Store{logs: make(map[string][]*Notification)}
}

// Append adds a copy of n to the end of recipient's log.
func (s *Store) Append(recipient string, n *Notification) {
	c := n.clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[recipient] = append(s.logs[recipient], &c)
}

// List returns a snapshot of recipient's log in append order, never nil.
func (s *Store) List(recipient string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[recipient]
	out := make([]Notification, 0, len(log))
	for _, n := range log {
		out = append(out, n.clone())
	}
	return out
}

// Unread yields the not-yet-opened entries of recipient's log in order.
// Every range over the sequence takes a fresh snapshot.
func (s *Store) Unread(recipient string) iter.Seq[Notification] {
	return func(yield func(Notification) bool) {
		for _, n := range s.List(recipient) {
			if n.Opened {
				continue
			}
			if !yield(n) {
				return
			}
		}
	}
}

// MarkOpened opens the entry with the given id. changed is false when the entry
// was already opened, in which case it is returned untouched.
func (s *Store) MarkOpened(recipient, id string, now time.Time) (n Notification, changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.logs[recipient] {
		if entry.ID != id {
			continue
		}
		changed = entry.markOpened(now)
		return entry.clone(), changed, nil
	}
	return Notification{}, false, ErrNotFound
}
