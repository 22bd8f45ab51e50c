package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/models"
	"chatsync-backend-go/pkg/cache"
)

const (
	presenceKeyPrefix = "presence:"

	// Offline records stay readable for a day; a user nobody has asked about
	// in that long reads back as offline anyway.
	presenceRecordTTL = 24 * time.Hour
)

// PresenceTracker owns the online/offline state of connected users. Every
// transition carries a timestamp assigned here, never by the client, so the
// record stays trustworthy through crashes and dropped connections.
//
// A user may hold several live connections (two devices, two tabs); the
// tracker refcounts them and only flips to offline when the last one ends.
type PresenceTracker struct {
	store  cache.Cache
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]int
	watchers map[string]map[*PresenceWatch]struct{}
}

// NewPresenceTracker creates a PresenceTracker backed by the given store.
func NewPresenceTracker(store cache.Cache, logger *zap.Logger) *PresenceTracker {
	return &PresenceTracker{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]int{},
		watchers: map[string]map[*PresenceWatch]struct{}{},
	}
}

// PresenceSession is one live connection's handle on the tracker. Disconnect
// is the registered on-disconnect action; it is safe to call more than once
// and from deferred cleanup paths.
type PresenceSession struct {
	tracker *PresenceTracker
	uid     string
	once    sync.Once
}

// Disconnect marks this session closed. When it was the user's last live
// session, the user goes offline with a timestamp assigned at call time.
func (s *PresenceSession) Disconnect(ctx context.Context) {
	s.once.Do(func() { s.tracker.sessionClosed(ctx, s.uid) })
}

// Announce records uid as online and returns the session handle the caller
// must Disconnect when the connection ends, however it ends.
func (t *PresenceTracker) Announce(ctx context.Context, uid string) (*PresenceSession, error) {
	if uid == "" {
		return nil, NewValidationError(map[string]string{"uid": "required"})
	}
	record := models.PresenceRecord{UID: uid, State: models.PresenceOnline, LastChanged: t.now().UTC()}
	if err := t.write(ctx, record); err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.sessions[uid]++
	t.mu.Unlock()

	t.broadcast(record)
	return &PresenceSession{tracker: t, uid: uid}, nil
}

func (t *PresenceTracker) sessionClosed(ctx context.Context, uid string) {
	t.mu.Lock()
	t.sessions[uid]--
	remaining := t.sessions[uid]
	if remaining <= 0 {
		delete(t.sessions, uid)
	}
	t.mu.Unlock()
	if remaining > 0 {
		return
	}

	record := models.PresenceRecord{UID: uid, State: models.PresenceOffline, LastChanged: t.now().UTC()}
	if err := t.write(ctx, record); err != nil {
		t.logger.Warn("failed to persist offline transition", zap.String("uid", uid), zap.Error(err))
	}
	t.broadcast(record)
}

// Get returns the current presence of uid. A user with no record reads as
// offline with a zero LastChanged.
func (t *PresenceTracker) Get(ctx context.Context, uid string) (models.PresenceRecord, error) {
	offline := models.PresenceRecord{UID: uid, State: models.PresenceOffline}
	raw, err := t.store.Get(ctx, presenceKeyPrefix+uid)
	if err != nil {
		return offline, fmt.Errorf("failed to read presence for '%s': %w", uid, err)
	}
	if raw == "" {
		return offline, nil
	}
	var record models.PresenceRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return offline, fmt.Errorf("failed to decode presence record for '%s': %w", uid, err)
	}
	return record, nil
}

// PresenceWatch is a live subscription to one user's presence transitions.
type PresenceWatch struct {
	uid     string
	updates chan models.PresenceRecord
	tracker *PresenceTracker
	once    sync.Once
}

func (w *PresenceWatch) Updates() <-chan models.PresenceRecord { return w.updates }

// Cancel detaches the watch and closes its channel.
func (w *PresenceWatch) Cancel() {
	w.once.Do(func() {
		t := w.tracker
		t.mu.Lock()
		defer t.mu.Unlock()
		if set, ok := t.watchers[w.uid]; ok {
			delete(set, w)
			if len(set) == 0 {
				delete(t.watchers, w.uid)
			}
		}
		close(w.updates)
	})
}

// Watch subscribes to uid's presence transitions. The current state is
// delivered as the first update.
func (t *PresenceTracker) Watch(ctx context.Context, uid string) (*PresenceWatch, error) {
	if uid == "" {
		return nil, NewValidationError(map[string]string{"uid": "required"})
	}
	current, err := t.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	w := &PresenceWatch{
		uid:     uid,
		updates: make(chan models.PresenceRecord, 1),
		tracker: t,
	}

	t.mu.Lock()
	// Seed before registering so a concurrent broadcast cannot fill the
	// buffer first.
	w.updates <- current
	set, ok := t.watchers[uid]
	if !ok {
		set = map[*PresenceWatch]struct{}{}
		t.watchers[uid] = set
	}
	set[w] = struct{}{}
	t.mu.Unlock()

	return w, nil
}

func (t *PresenceTracker) write(ctx context.Context, record models.PresenceRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode presence record: %w", err)
	}
	if err := t.store.Set(ctx, presenceKeyPrefix+record.UID, string(body), presenceRecordTTL); err != nil {
		return fmt.Errorf("failed to store presence record for '%s': %w", record.UID, err)
	}
	return nil
}

// broadcast conflates per watch: a slow reader sees only the latest state,
// which is all presence means.
func (t *PresenceTracker) broadcast(record models.PresenceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for w := range t.watchers[record.UID] {
		select {
		case <-w.updates:
		default:
		}
		select {
		case w.updates <- record:
		default:
		}
	}
}
