package core

import (
	"context"
	"sync"
	"time"

	"chatsync-backend-go/internal/db"
	"chatsync-backend-go/internal/models"
)

// Stub repositories with overridable behavior per test. Methods without an
// override return zero values (or db.ErrNotFound for single-document reads).

type stubUserRepository struct {
	getByID          func(ctx context.Context, uid string) (*models.User, error)
	create           func(ctx context.Context, user *models.User) error
	merge            func(ctx context.Context, uid string, fields map[string]interface{}) error
	getManyByUID     func(ctx context.Context, uids []string) ([]*models.User, error)
	listExcept       func(ctx context.Context, selfUID string, limit int) ([]*models.User, error)
	searchByName     func(ctx context.Context, prefix string, limit int) ([]*models.User, error)
	getByEmail       func(ctx context.Context, email string) (*models.User, error)
	getByPhoneNumber func(ctx context.Context, phone string) (*models.User, error)
	watch            func(ctx context.Context, uid string) (db.UserSubscription, error)
}

func (s *stubUserRepository) GetByID(ctx context.Context, uid string) (*models.User, error) {
	if s.getByID == nil {
		return nil, db.ErrNotFound
	}
	return s.getByID(ctx, uid)
}

func (s *stubUserRepository) Create(ctx context.Context, user *models.User) error {
	if s.create == nil {
		return nil
	}
	return s.create(ctx, user)
}

func (s *stubUserRepository) Merge(ctx context.Context, uid string, fields map[string]interface{}) error {
	if s.merge == nil {
		return nil
	}
	return s.merge(ctx, uid, fields)
}

func (s *stubUserRepository) GetManyByUID(ctx context.Context, uids []string) ([]*models.User, error) {
	if s.getManyByUID == nil {
		return nil, nil
	}
	return s.getManyByUID(ctx, uids)
}

func (s *stubUserRepository) ListExcept(ctx context.Context, selfUID string, limit int) ([]*models.User, error) {
	if s.listExcept == nil {
		return nil, nil
	}
	return s.listExcept(ctx, selfUID, limit)
}

func (s *stubUserRepository) SearchByNamePrefix(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	if s.searchByName == nil {
		return nil, nil
	}
	return s.searchByName(ctx, prefix, limit)
}

func (s *stubUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.getByEmail == nil {
		return nil, db.ErrNotFound
	}
	return s.getByEmail(ctx, email)
}

func (s *stubUserRepository) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	if s.getByPhoneNumber == nil {
		return nil, db.ErrNotFound
	}
	return s.getByPhoneNumber(ctx, phone)
}

func (s *stubUserRepository) Watch(ctx context.Context, uid string) (db.UserSubscription, error) {
	if s.watch == nil {
		return newFakeUserSubscription(), nil
	}
	return s.watch(ctx, uid)
}

type stubMessageRepository struct {
	append    func(ctx context.Context, conversationID string, msg *models.Message) (string, error)
	history   func(ctx context.Context, conversationID string) ([]models.Message, error)
	subscribe func(ctx context.Context, conversationID string) (db.MessageSubscription, error)
}

func (s *stubMessageRepository) Append(ctx context.Context, conversationID string, msg *models.Message) (string, error) {
	if s.append == nil {
		return "msg-1", nil
	}
	return s.append(ctx, conversationID, msg)
}

func (s *stubMessageRepository) History(ctx context.Context, conversationID string) ([]models.Message, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history(ctx, conversationID)
}

func (s *stubMessageRepository) Subscribe(ctx context.Context, conversationID string) (db.MessageSubscription, error) {
	if s.subscribe == nil {
		return newFakeMessageSubscription(), nil
	}
	return s.subscribe(ctx, conversationID)
}

type stubConversationRepository struct {
	upsert    func(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error
	getByID   func(ctx context.Context, id string) (*models.Conversation, error)
	listFor   func(ctx context.Context, uid string) ([]models.Conversation, error)
	subscribe func(ctx context.Context, uid string) (db.ConversationSubscription, error)
}

func (s *stubConversationRepository) Upsert(ctx context.Context, id string, participants []string, lastMessage string, lastUpdated time.Time) error {
	if s.upsert == nil {
		return nil
	}
	return s.upsert(ctx, id, participants, lastMessage, lastUpdated)
}

func (s *stubConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	if s.getByID == nil {
		return nil, db.ErrNotFound
	}
	return s.getByID(ctx, id)
}

func (s *stubConversationRepository) ListFor(ctx context.Context, uid string) ([]models.Conversation, error) {
	if s.listFor == nil {
		return nil, nil
	}
	return s.listFor(ctx, uid)
}

func (s *stubConversationRepository) Subscribe(ctx context.Context, uid string) (db.ConversationSubscription, error) {
	if s.subscribe == nil {
		return newFakeConversationSubscription(), nil
	}
	return s.subscribe(ctx, uid)
}

type stubFriendRepository struct {
	add  func(ctx context.Context, ownerUID, friendUID string, addedAt time.Time) (bool, error)
	list func(ctx context.Context, ownerUID string, after time.Time, limit int) ([]models.FriendEdge, error)
}

func (s *stubFriendRepository) Add(ctx context.Context, ownerUID, friendUID string, addedAt time.Time) (bool, error) {
	if s.add == nil {
		return true, nil
	}
	return s.add(ctx, ownerUID, friendUID, addedAt)
}

func (s *stubFriendRepository) List(ctx context.Context, ownerUID string, after time.Time, limit int) ([]models.FriendEdge, error) {
	if s.list == nil {
		return nil, nil
	}
	return s.list(ctx, ownerUID, after, limit)
}

type stubBlobStore struct {
	upload func(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

func (s *stubBlobStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	if s.upload == nil {
		return "https://blobs.example/" + objectPath, nil
	}
	return s.upload(ctx, objectPath, data, contentType)
}

type stubNotifier struct {
	notify func(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error
}

func (s *stubNotifier) Notify(ctx context.Context, recipientUID, senderName, messageText, conversationID string) error {
	if s.notify == nil {
		return nil
	}
	return s.notify(ctx, recipientUID, senderName, messageText, conversationID)
}

type stubPushSender struct {
	send func(ctx context.Context, token string, notification PushNotification, data map[string]string) error
}

func (s *stubPushSender) Send(ctx context.Context, token string, notification PushNotification, data map[string]string) error {
	if s.send == nil {
		return nil
	}
	return s.send(ctx, token, notification, data)
}

// Fake subscriptions: test-driven channels behind the db subscription
// interfaces.

type fakeSubscription[T any] struct {
	updates  chan T
	once     sync.Once
	canceled chan struct{}
}

func (f *fakeSubscription[T]) Updates() <-chan T { return f.updates }

func (f *fakeSubscription[T]) Cancel() {
	f.once.Do(func() {
		close(f.canceled)
		close(f.updates)
	})
}

func (f *fakeSubscription[T]) push(v T) { f.updates <- v }

func newFakeMessageSubscription() *fakeSubscription[[]models.Message] {
	return &fakeSubscription[[]models.Message]{updates: make(chan []models.Message, 8), canceled: make(chan struct{})}
}

func newFakeConversationSubscription() *fakeSubscription[[]models.Conversation] {
	return &fakeSubscription[[]models.Conversation]{updates: make(chan []models.Conversation, 8), canceled: make(chan struct{})}
}

func newFakeUserSubscription() *fakeSubscription[*models.User] {
	return &fakeSubscription[*models.User]{updates: make(chan *models.User, 8), canceled: make(chan struct{})}
}

// fakeCache is an in-memory cache.Cache for presence tests.
type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) Close() error { return nil }
