package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
)

const (
	sessionKeyPrefix = "console:session:"
	sessionChannel   = "console:sessions"
	watchBuffer      = 32
)

// SessionStore keeps the login flags and broadcasts their lifecycle.
type SessionStore interface {
	Put(ctx context.Context, id, operator string, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	// Watch streams session events until ctx is cancelled, then closes the channel.
	Watch(ctx context.Context) (<-chan domain.SessionEvent, error)
}

// RedisSessionStore stores flags as expiring keys and fans events out over
// a pub/sub channel, so every console process sees a logout.
type RedisSessionStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSessionStore wraps the given client.
func NewRedisSessionStore(client *redis.Client, logger *zap.Logger) *RedisSessionStore {
	return &RedisSessionStore{client: client, logger: logger}
}

func (s *RedisSessionStore) Put(ctx context.Context, id, operator string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(id), operator, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return s.publish(ctx, domain.SessionEvent{Type: domain.SessionStarted, SessionID: id})
}

func (s *RedisSessionStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session check: %w", err)
	}
	return n > 0, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return s.publish(ctx, domain.SessionEvent{Type: domain.SessionInvalidated, SessionID: id})
}

func (s *RedisSessionStore) Watch(ctx context.Context) (<-chan domain.SessionEvent, error) {
	pubsub := s.client.Subscribe(ctx, sessionChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe sessions: %w", err)
	}

	out := make(chan domain.SessionEvent, watchBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				event, err := decodeSessionEvent(msg.Payload)
				if err != nil {
					s.logger.Warn("dropping malformed session event", zap.String("payload", msg.Payload), zap.Error(err))
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *RedisSessionStore) publish(ctx context.Context, event domain.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, sessionChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish session event: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func decodeSessionEvent(payload string) (domain.SessionEvent, error) {
	var event domain.SessionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return domain.SessionEvent{}, err
	}
	if event.SessionID == "" {
		return domain.SessionEvent{}, fmt.Errorf("session event without id")
	}
	switch event.Type {
	case domain.SessionStarted, domain.SessionInvalidated:
	default:
		return domain.SessionEvent{}, fmt.Errorf("unknown session event type %q", event.Type)
	}
	return event, nil
}

// MemorySessionStore is the single-process SessionStore used when Redis is
// disabled.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	watchers map[int]chan domain.SessionEvent
	nextID   int
	now      func() time.Time
}

// NewMemorySessionStore builds an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]time.Time),
		watchers: make(map[int]chan domain.SessionEvent),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Put(_ context.Context, id, _ string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = s.now().Add(ttl)
	s.broadcastLocked(domain.SessionEvent{Type: domain.SessionStarted, SessionID: id})
	return nil
}

func (s *MemorySessionStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if !s.now().Before(expiresAt) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	s.broadcastLocked(domain.SessionEvent{Type: domain.SessionInvalidated, SessionID: id})
	return nil
}

func (s *MemorySessionStore) Watch(ctx context.Context) (<-chan domain.SessionEvent, error) {
	ch := make(chan domain.SessionEvent, watchBuffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

// broadcastLocked never blocks; a watcher that falls watchBuffer events
// behind misses the overflow.
func (s *MemorySessionStore) broadcastLocked(event domain.SessionEvent) {
	for _, ch := range s.watchers {
		select {
		case ch <- event:
		default:
		}
	}
}
