package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/mvura-console/internal/domain"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// OperatorRepository defines access to console operators.
type OperatorRepository interface {
	Create(ctx context.Context, operator *domain.Operator) error
	GetByEmail(ctx context.Context, email string) (*domain.Operator, error)
}

type operatorRepository struct {
	mu        sync.RWMutex
	operators map[string]domain.Operator
}

// NewOperatorRepository returns an in-memory implementation.
func NewOperatorRepository() OperatorRepository {
	return &operatorRepository{operators: make(map[string]domain.Operator)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *operatorRepository) Create(_ context.Context, operator *domain.Operator) error {
	email := normalizeEmail(operator.Email)
	if email == "" || operator.PasswordHash == "" {
		return apperrors.NewValidationError("operator email and password required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.operators[email]; exists {
		return apperrors.NewConflict("operator already exists", map[string]any{"email": email})
	}
	stored := *operator
	stored.Email = email
	r.operators[email] = stored
	return nil
}

func (r *operatorRepository) GetByEmail(_ context.Context, email string) (*domain.Operator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	operator, ok := r.operators[normalizeEmail(email)]
	if !ok {
		return nil, apperrors.NewNotFound("operator", nil)
	}
	return &operator, nil
}
