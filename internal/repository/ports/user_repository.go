package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/gigboard/gigboard-api/internal/domain"
)

type UserRepository interface {
	CreateEmailUser(ctx context.Context, email string, role domain.UserRole, passwordHash, passwordSalt []byte) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email string, fullName *string, role domain.UserRole) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}
