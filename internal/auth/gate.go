package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token   string
	Session domain.Session
}

// SessionGate owns the console's login flag. A session is valid while its
// token verifies and its flag is present in the store; logging out removes
// the flag and every subscriber hears about it.
type SessionGate struct {
	operators repository.OperatorRepository
	store     SessionStore
	tokens    *TokenManager
	logger    *zap.Logger

	mu          sync.RWMutex
	subscribers map[int]func(domain.SessionEvent)
	nextSub     int
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewSessionGate builds a gate. Init must be called before subscribers
// receive events.
func NewSessionGate(operators repository.OperatorRepository, store SessionStore, tokens *TokenManager, logger *zap.Logger) *SessionGate {
	return &SessionGate{
		operators:   operators,
		store:       store,
		tokens:      tokens,
		logger:      logger,
		subscribers: make(map[int]func(domain.SessionEvent)),
	}
}

// Init starts relaying store events to subscribers. Calling it twice is a no-op.
func (g *SessionGate) Init(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		return nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	events, err := g.store.Watch(watchCtx)
	if err != nil {
		cancel()
		return err
	}
	g.cancel = cancel
	g.done = make(chan struct{})

	go g.relay(events, g.done)
	return nil
}

// Teardown stops relaying events and waits for the relay to exit.
func (g *SessionGate) Teardown() {
	g.mu.Lock()
	cancel, done := g.cancel, g.done
	g.cancel, g.done = nil, nil
	g.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Subscribe registers fn for every session event and returns a function that
// removes it.
func (g *SessionGate) Subscribe(fn func(domain.SessionEvent)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subscribers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()
	}
}

// Login verifies the operator credential and sets a fresh login flag.
func (g *SessionGate) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	operator, err := g.operators.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := ComparePassword(operator.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	sessionID := uuid.NewString()
	token, issuedAt, expiresAt, err := g.tokens.GenerateToken(operator.Email, operator.Name, sessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := g.store.Put(ctx, sessionID, operator.Email, g.tokens.TTL()); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	g.logger.Info("session started", zap.String("operator", operator.Email), zap.String("session_id", sessionID))
	return &LoginResult{
		Token: token,
		Session: domain.Session{
			ID:        sessionID,
			Operator:  operator.Email,
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}, nil
}

// Validate returns the session bound to token while its flag is present.
func (g *SessionGate) Validate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}
	ok, err := g.store.Exists(ctx, claims.SessionID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, apperrors.NewUnauthorized("session ended")
	}

	session := &domain.Session{ID: claims.SessionID, Operator: claims.Subject}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// Logout clears the flag of the session bound to token.
func (g *SessionGate) Logout(ctx context.Context, token string) error {
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if err := g.store.Delete(ctx, claims.SessionID); err != nil {
		return apperrors.NewInternalError(err)
	}
	g.logger.Info("session ended", zap.String("operator", claims.Subject), zap.String("session_id", claims.SessionID))
	return nil
}

func (g *SessionGate) relay(events <-chan domain.SessionEvent, done chan struct{}) {
	defer close(done)
	for event := range events {
		g.mu.RLock()
		subscribers := make([]func(domain.SessionEvent), 0, len(g.subscribers))
		for _, fn := range g.subscribers {
			subscribers = append(subscribers, fn)
		}
		g.mu.RUnlock()

		for _, fn := range subscribers {
			fn(event)
		}
	}
}
