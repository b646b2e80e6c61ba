package notification

import (
	"sync"

	"github.com/google/uuid"
)

type fakeChannel struct {
	id       uuid.UUID
	identity string

	mu      sync.Mutex
	events  []Event
	sendErr error
	closed  bool
	// onSend runs after a successful send, outside the channel lock.
	onSend func(Event)

	done chan struct{}
	once sync.Once
}

func newFakeChannel(identity string) *fakeChannel {
	return &fakeChannel{id: uuid.New(), identity: identity, done: make(chan struct{})}
}

func (f *fakeChannel) ID() uuid.UUID         { return f.id }
func (f *fakeChannel) Identity() string      { return f.identity }
func (f *fakeChannel) Done() <-chan struct{} { return f.done }

func (f *fakeChannel) Send(ev Event) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrChannelClosed
	}
	if f.sendErr != nil {
		err := f.sendErr
		f.mu.Unlock()
		return err
	}
	f.events = append(f.events, ev)
	hook := f.onSend
	f.mu.Unlock()

	if hook != nil {
		hook(ev)
	}
	return nil
}

func (f *fakeChannel) Close() {
	f.once.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
}

func (f *fakeChannel) failWith(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *fakeChannel) Events() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func eventTypes(evs []Event) []EventType {
	out := make([]EventType, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Type)
	}
	return out
}

func notificationIDs(evs []Event) []string {
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		if ev.Type == EventNotification {
			out = append(out, ev.Data.ID)
		}
	}
	return out
}
