package core

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

// conversationService implements the ConversationService interface.
type conversationService struct {
	conversations db.ConversationRepository
	users         db.UserRepository
	logger        *zap.Logger
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService(conversations db.ConversationRepository, users db.UserRepository, logger *zap.Logger) ConversationService {
	return &conversationService{conversations: conversations, users: users, logger: logger}
}

// ListFor returns the caller's conversation summaries with peer profiles
// resolved in one batched lookup.
func (s *conversationService) ListFor(ctx context.Context, uid string) ([]models.ConversationSummary, error) {
	if uid == "" {
		return nil, NewValidationError(map[string]string{"uid": "required"})
	}
	convs, err := s.conversations.ListFor(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for '%s': %w", uid, err)
	}

	peerUIDs := make([]string, 0, len(convs))
	seen := map[string]struct{}{}
	for _, c := range convs {
		peer := c.OtherParticipant(uid)
		if peer == "" {
			continue
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		peerUIDs = append(peerUIDs, peer)
	}

	profiles := map[string]*models.User{}
	if len(peerUIDs) > 0 {
		peers, perr := s.users.GetManyByUID(ctx, peerUIDs)
		if perr != nil {
			return nil, fmt.Errorf("failed to resolve peer profiles: %w", perr)
		}
		for _, p := range peers {
			profiles[p.UID] = p
		}
	}

	summaries := make([]models.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summaries = append(summaries, models.ConversationSummary{
			Conversation: c,
			Peer:         profiles[c.OtherParticipant(uid)],
		})
	}
	return summaries, nil
}

// ConversationFeed is a live view of one user's conversation list. Each
// element on Updates is the complete current list; the channel closes when
// the feed ends.
type ConversationFeed struct {
	updates chan []models.ConversationSummary
	cancel  context.CancelFunc
	once    sync.Once
}

func (f *ConversationFeed) Updates() <-chan []models.ConversationSummary { return f.updates }

// Close tears down the parent subscription and every per-peer profile watch.
func (f *ConversationFeed) Close() { f.once.Do(f.cancel) }

// WatchFor opens the live conversation-list feed for uid. One parent
// subscription follows the membership query; a profile watch is opened per
// visible peer and supervised against the current list, so a peer renaming
// themselves re-emits the list without any conversation write.
func (s *conversationService) WatchFor(ctx context.Context, uid string) (*ConversationFeed, error) {
	if uid == "" {
		return nil, NewValidationError(map[string]string{"uid": "required"})
	}

	feedCtx, cancel := context.WithCancel(ctx)
	parent, err := s.conversations.Subscribe(feedCtx, uid)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe conversations for '%s': %w", uid, err)
	}

	feed := &ConversationFeed{
		updates: make(chan []models.ConversationSummary, 1),
		cancel:  cancel,
	}
	go s.runFeed(feedCtx, uid, parent, feed)
	return feed, nil
}

func (s *conversationService) runFeed(ctx context.Context, uid string, parent db.ConversationSubscription, feed *ConversationFeed) {
	watches := map[string]db.UserSubscription{}
	profiles := map[string]*models.User{}
	var current []models.Conversation

	// Per-peer watch goroutines funnel into one channel so the supervisor
	// stays single-threaded over its maps.
	profileEvents := make(chan *models.User, 16)

	defer func() {
		for _, w := range watches {
			w.Cancel()
		}
		parent.Cancel()
		close(feed.updates)
	}()

	emit := func() {
		summaries := make([]models.ConversationSummary, 0, len(current))
		for _, c := range current {
			summaries = append(summaries, models.ConversationSummary{
				Conversation: c,
				Peer:         profiles[c.OtherParticipant(uid)],
			})
		}
		// Conflate: only the latest list matters to a UI.
		select {
		case <-feed.updates:
		default:
		}
		select {
		case feed.updates <- summaries:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case convs, ok := <-parent.Updates():
			if !ok {
				return
			}
			current = convs

			desired := map[string]struct{}{}
			for _, c := range convs {
				if peer := c.OtherParticipant(uid); peer != "" {
					desired[peer] = struct{}{}
				}
			}
			for peer, w := range watches {
				if _, ok := desired[peer]; !ok {
					w.Cancel()
					delete(watches, peer)
					delete(profiles, peer)
				}
			}
			for peer := range desired {
				if _, ok := watches[peer]; ok {
					continue
				}
				sub, err := s.users.Watch(ctx, peer)
				if err != nil {
					s.logger.Warn("peer profile watch failed",
						zap.String("peerUid", peer), zap.Error(err))
					continue
				}
				watches[peer] = sub
				go func(sub db.UserSubscription) {
					for u := range sub.Updates() {
						select {
						case profileEvents <- u:
						case <-ctx.Done():
							return
						}
					}
				}(sub)
			}
			emit()

		case u := <-profileEvents:
			// Ignore stragglers from a watch that was just canceled.
			if _, ok := watches[u.UID]; !ok {
				continue
			}
			profiles[u.UID] = u
			emit()

		case <-ctx.Done():
			return
		}
	}
}
