package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notifyhub/internal/logger"
	"notifyhub/internal/metrics"
)

func newTestDispatcher(m *metrics.Metrics) (*Dispatcher, *Store, *Registry) {
	store := NewStore()
	registry := NewRegistry(m, logger.Discard())
	d := NewDispatcher(store, registry, m, logger.Discard())
	d.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d, store, registry
}

func baseRequest(targets ...Target) BulkRequest {
	return BulkRequest{
		NotificationID: "rel-1",
		Source:         "releases",
		Title:          "v2 is out",
		Content:        "Read the notes",
		Targets:        targets,
	}
}

func TestDispatchBulk_OfflineTargetIsStored(t *testing.T) {
	d, store, _ := newTestDispatcher(nil)

	report, err := d.DispatchBulk(context.Background(), baseRequest(Target{Identity: "a@x.com"}))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Total)
	assert.Empty(t, report.Success)
	assert.Equal(t, []DeliveryFailure{{Identity: "a@x.com", Reason: ReasonNotConnected}}, report.Failed)

	stored := store.List("a@x.com")
	require.Len(t, stored, 1)
	assert.Equal(t, "rel-1-a@x.com", stored[0].ID)
}

func TestDispatchBulk_ConnectedTargetReceivesEvent(t *testing.T) {
	m := metrics.New()
	d, store, registry := newTestDispatcher(m)
	ch := newFakeChannel("a@x.com")
	registry.Register("a@x.com", ch)

	report, err := d.DispatchBulk(context.Background(), baseRequest(Target{Identity: "a@x.com", UserID: "42", Name: "Ann"}))
	require.NoError(t, err)

	assert.Equal(t, []DeliverySuccess{{Identity: "a@x.com", NotificationID: "rel-1-42"}}, report.Success)
	assert.Empty(t, report.Failed)

	events := ch.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventNotification, events[0].Type)
	require.NotNil(t, events[0].Data)
	assert.Equal(t, "rel-1-42", events[0].Data.ID)

	assert.Len(t, store.List("a@x.com"), 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DispatchOutcomes.WithLabelValues("Delivered")))
}

func TestDispatchBulk_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  BulkRequest
	}{
		{"no targets", baseRequest()},
		{"empty title", func() BulkRequest { r := baseRequest(Target{Identity: "a@x.com"}); r.Title = " "; return r }()},
		{"empty content", func() BulkRequest { r := baseRequest(Target{Identity: "a@x.com"}); r.Content = ""; return r }()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store, _ := newTestDispatcher(nil)

			report, err := d.DispatchBulk(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrBadRequest)
			assert.Nil(t, report)
			assert.Empty(t, store.List("a@x.com"))
		})
	}
}

func TestDispatchBulk_MixedOutcomes(t *testing.T) {
	d, store, registry := newTestDispatcher(nil)
	online := newFakeChannel("on@x.com")
	broken := newFakeChannel("broken@x.com")
	broken.failWith(errors.New("broken pipe"))
	registry.Register("on@x.com", online)
	registry.Register("broken@x.com", broken)

	report, err := d.DispatchBulk(context.Background(), baseRequest(
		Target{Identity: "on@x.com"},
		Target{Identity: ""},
		Target{Identity: "off@x.com"},
		Target{Identity: "broken@x.com"},
	))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, []DeliverySuccess{{Identity: "on@x.com", NotificationID: "rel-1-on@x.com"}}, report.Success)
	assert.Equal(t, []DeliveryFailure{
		{Identity: "", Reason: ReasonMissingIdentity},
		{Identity: "off@x.com", Reason: ReasonNotConnected},
		{Identity: "broken@x.com", Reason: ReasonPushFailed},
	}, report.Failed)

	// stored regardless of delivery outcome
	assert.Len(t, store.List("on@x.com"), 1)
	assert.Len(t, store.List("off@x.com"), 1)
	assert.Len(t, store.List("broken@x.com"), 1)
}

func TestDispatchBulk_BuildsRecord(t *testing.T) {
	d, store, _ := newTestDispatcher(nil)
	req := baseRequest(Target{Identity: "a@x.com", UserID: "42", Name: "Ann"})
	req.Priority = PriorityHigh
	req.Metadata = map[string]any{"applicationId": "app-1"}
	req.TrackingEnabled = true
	req.TrackingCallbackURL = "https://cb.example.com/opened"

	_, err := d.DispatchBulk(context.Background(), req)
	require.NoError(t, err)

	n := store.List("a@x.com")[0]
	assert.Equal(t, "rel-1", n.NotificationID)
	assert.Equal(t, "releases", n.Source)
	assert.Equal(t, PriorityHigh, n.Priority)
	assert.Equal(t, SeverityError, n.Severity)
	assert.Equal(t, DefaultType, n.Type)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), n.Timestamp)
	assert.False(t, n.Read)
	assert.False(t, n.Opened)
	assert.Nil(t, n.OpenedAt)
	assert.True(t, n.TrackingEnabled)
	assert.Equal(t, "https://cb.example.com/opened", n.TrackingCallbackURL)
	assert.Equal(t, "app-1", n.Metadata["applicationId"])
	assert.Equal(t, TargetUser{ID: "42", Name: "Ann", Email: "a@x.com"}, n.TargetUser())

	_, injected := req.Metadata["targetUser"]
	assert.False(t, injected, "request metadata must not be mutated")
}

func TestDispatchBulk_Defaults(t *testing.T) {
	d, store, _ := newTestDispatcher(nil)
	req := baseRequest(Target{Identity: "a@x.com"})
	req.NotificationID = ""

	_, err := d.DispatchBulk(context.Background(), req)
	require.NoError(t, err)

	n := store.List("a@x.com")[0]
	assert.NotEmpty(t, n.NotificationID)
	assert.Equal(t, n.NotificationID+"-a@x.com", n.ID)
	assert.Equal(t, PriorityMedium, n.Priority)
	assert.Equal(t, SeverityWarning, n.Severity)
}

func TestDeliver(t *testing.T) {
	d, store, registry := newTestDispatcher(nil)

	err := d.Deliver("off@x.com", &Notification{ID: "x"})
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Len(t, store.List("off@x.com"), 1)

	ch := newFakeChannel("bad@x.com")
	ch.failWith(errors.New("reset"))
	registry.Register("bad@x.com", ch)
	err = d.Deliver("bad@x.com", &Notification{ID: "y"})
	assert.ErrorIs(t, err, ErrPushFailed)
	assert.Len(t, store.List("bad@x.com"), 1)
}

func TestDispatchBulk_NormalizesIdentity(t *testing.T) {
	d, store, registry := newTestDispatcher(nil)
	ch := newFakeChannel("alice@example.com")
	registry.Register("alice@example.com", ch)

	report, err := d.DispatchBulk(context.Background(), baseRequest(Target{Identity: "  Alice@Example.COM "}))
	require.NoError(t, err)

	assert.Equal(t, []DeliverySuccess{{Identity: "alice@example.com", NotificationID: "rel-1-alice@example.com"}}, report.Success)
	require.Len(t, store.List("alice@example.com"), 1)
	assert.Empty(t, store.List("Alice@Example.COM"))
	assert.Len(t, ch.Events(), 1)
}
