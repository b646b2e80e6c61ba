package notification

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	DefaultType = "release_notes"

	metaTargetUser      = "targetUser"
	metaApplicationID   = "applicationId"
	metaApplicationName = "applicationName"
)

// SeverityFor maps priority to severity: high->error, medium->warning, anything else->info.
func SeverityFor(p Priority) Severity {
	switch p {
	case PriorityHigh:
		return SeverityError
	case PriorityMedium:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// NormalizeIdentity folds an email identity to the form issued in tokens.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.TrimSpace(identity))
}

// TargetUser is injected into every delivered notification's metadata.
type TargetUser struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type Notification struct {
	ID                  string         `json:"id"`
	NotificationID      string         `json:"notificationId"`
	Source              string         `json:"source,omitempty"`
	Title               string         `json:"title"`
	Content             string         `json:"content"`
	Priority            Priority       `json:"priority"`
	Type                string         `json:"type"`
	Severity            Severity       `json:"severity"`
	Timestamp           time.Time      `json:"timestamp"`
	Read                bool           `json:"read"`
	Opened              bool           `json:"opened"`
	OpenedAt            *time.Time     `json:"openedAt,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	TrackingEnabled     bool           `json:"trackingEnabled"`
	TrackingCallbackURL string         `json:"trackingCallbackUrl,omitempty"`
}

// markOpened sets read/opened and stamps openedAt. Returns false if already opened.
func (n *Notification) markOpened(now time.Time) bool {
	if n.Opened {
		return false
	}
	n.Read = true
	n.Opened = true
	n.OpenedAt = &now
	return true
}

func (n *Notification) clone() Notification {
	out := *n
	if n.OpenedAt != nil {
		t := *n.OpenedAt
		out.OpenedAt = &t
	}
	out.Metadata = maps.Clone(n.Metadata)
	return out
}

// TargetUser returns the recipient details injected at dispatch time.
func (n *Notification) TargetUser() TargetUser {
	switch v := n.Metadata[metaTargetUser].(type) {
	case TargetUser:
		return v
	case *TargetUser:
		if v != nil {
			return *v
		}
	case map[string]any:
		return TargetUser{
			ID:    metaString(v, "id"),
			Name:  metaString(v, "name"),
			Email: metaString(v, "email"),
		}
	}
	return TargetUser{}
}

func metaString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
