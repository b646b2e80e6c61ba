package notification

import "errors"

var (
	// ErrBadRequest marks missing or invalid required fields. Nothing is changed.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthenticated means no identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound means the identity has no stored notification with that id.
	ErrNotFound = errors.New("notification not found")
	// ErrNotConnected means the identity has no live channel. The notification is still stored.
	ErrNotConnected = errors.New("user not connected")
	// ErrPushFailed wraps a transport error from a live channel.
	ErrPushFailed = errors.New("push failed")
	// ErrChannelClosed is returned by Send after the channel was closed.
	ErrChannelClosed = errors.New("channel closed")
)

// Per-target failure reasons reported by DispatchBulk.
const (
	ReasonMissingIdentity = "MissingIdentity"
	ReasonNotConnected    = "NotConnected"
	ReasonPushFailed      = "PushFailed"
)
