package core

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/models"
)

func newTestTracker(t *testing.T) (*PresenceTracker, *fakeCache) {
	t.Helper()
	store := newFakeCache()
	tracker := NewPresenceTracker(store, zap.NewNop())
	return tracker, store
}

func TestPresenceUnknownUserReadsAsOffline(t *testing.T) {
	tracker, _ := newTestTracker(t)
	record, err := tracker.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if record.State != models.PresenceOffline {
		t.Fatalf("expected offline for unknown user, got %q", record.State)
	}
	if !record.LastChanged.IsZero() {
		t.Errorf("expected zero LastChanged for unknown user, got %v", record.LastChanged)
	}
}

func TestPresenceAnnounceThenAbruptDisconnect(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	connectedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return connectedAt }

	session, err := tracker.Announce(ctx, "alice")
	if err != nil {
		t.Fatalf("Announce returned error: %v", err)
	}

	record, err := tracker.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if record.State != models.PresenceOnline || !record.LastChanged.Equal(connectedAt) {
		t.Fatalf("expected online at %v, got %+v", connectedAt, record)
	}

	// The connection drops without a goodbye; the registered disconnect
	// action still runs and assigns its own timestamp.
	droppedAt := connectedAt.Add(3 * time.Minute)
	tracker.now = func() time.Time { return droppedAt }
	session.Disconnect(ctx)

	record, err = tracker.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if record.State != models.PresenceOffline {
		t.Fatalf("expected offline after disconnect, got %q", record.State)
	}
	if !record.LastChanged.Equal(droppedAt) {
		t.Errorf("expected server-assigned disconnect time %v, got %v", droppedAt, record.LastChanged)
	}
	if record.LastChanged.Before(connectedAt) {
		t.Error("offline timestamp precedes the online transition")
	}
}

func TestPresenceDisconnectIsIdempotent(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	session, err := tracker.Announce(ctx, "alice")
	if err != nil {
		t.Fatalf("Announce returned error: %v", err)
	}
	session.Disconnect(ctx)
	session.Disconnect(ctx)

	record, _ := tracker.Get(ctx, "alice")
	if record.State != models.PresenceOffline {
		t.Fatalf("expected offline, got %q", record.State)
	}
}

func TestPresenceSecondSessionKeepsUserOnline(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	phone, err := tracker.Announce(ctx, "alice")
	if err != nil {
		t.Fatalf("Announce returned error: %v", err)
	}
	tablet, err := tracker.Announce(ctx, "alice")
	if err != nil {
		t.Fatalf("Announce returned error: %v", err)
	}

	phone.Disconnect(ctx)
	record, _ := tracker.Get(ctx, "alice")
	if record.State != models.PresenceOnline {
		t.Fatalf("expected still online with one live session, got %q", record.State)
	}

	tablet.Disconnect(ctx)
	record, _ = tracker.Get(ctx, "alice")
	if record.State != models.PresenceOffline {
		t.Fatalf("expected offline after last session, got %q", record.State)
	}
}

func TestPresenceWatchDeliversInitialAndTransitions(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	watch, err := tracker.Watch(ctx, "alice")
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	defer watch.Cancel()

	next := func() models.PresenceRecord {
		select {
		case r := <-watch.Updates():
			return r
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for presence update")
			return models.PresenceRecord{}
		}
	}

	if r := next(); r.State != models.PresenceOffline {
		t.Fatalf("expected initial offline, got %q", r.State)
	}

	session, err := tracker.Announce(ctx, "alice")
	if err != nil {
		t.Fatalf("Announce returned error: %v", err)
	}
	if r := next(); r.State != models.PresenceOnline {
		t.Fatalf("expected online transition, got %q", r.State)
	}

	session.Disconnect(ctx)
	if r := next(); r.State != models.PresenceOffline {
		t.Fatalf("expected offline transition, got %q", r.State)
	}
}

func TestPresenceWatchCancelClosesChannel(t *testing.T) {
	tracker, _ := newTestTracker(t)
	watch, err := tracker.Watch(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}
	watch.Cancel()
	watch.Cancel()

	for {
		select {
		case _, ok := <-watch.Updates():
			if !ok {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("watch channel was never closed")
		}
	}
}
