package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/mvura-console/internal/domain"
	"github.com/spec-kit/mvura-console/internal/repository"
	apperrors "github.com/spec-kit/mvura-console/pkg/util/errorutil"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// BootstrapOperator registers the configured console operator. An operator
// that already exists is left untouched.
func BootstrapOperator(ctx context.Context, operators repository.OperatorRepository, email, name, password string, cost int) error {
	hash, err := HashPassword(password, cost)
	if err != nil {
		return err
	}
	err = operators.Create(ctx, &domain.Operator{Email: email, Name: name, PasswordHash: hash})
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		return nil
	}
	return err
}
