package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type userRepo struct {
	store *Store
}

func (r *userRepo) CreateEmailUser(_ context.Context, email string, role domain.UserRole, passwordHash, passwordSalt []byte) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == email {
			return nil, &pgconn.PgError{Code: "23505", ConstraintName: "user_account_email_key"}
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Role:         role,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.store.users[user.ID] = user
	return copyUser(user), nil
}

func (r *userRepo) UpsertGoogleUser(_ context.Context, email string, fullName *string, role domain.UserRole) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Email == email {
			if fullName != nil {
				existing.FullName = fullName
			}
			existing.EmailVerified = true
			existing.UpdatedAt = time.Now().UTC()
			return copyUser(existing), nil
		}
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:            uuid.New(),
		Email:         email,
		FullName:      fullName,
		Role:          role,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.store.users[user.ID] = user
	return copyUser(user), nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, user := range r.store.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	user.PasswordHash = append([]byte(nil), passwordHash...)
	user.PasswordSalt = append([]byte(nil), passwordSalt...)
	user.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *userRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[id]
	if !ok {
		return ports.ErrNotFound
	}
	user.EmailVerified = true
	user.UpdatedAt = time.Now().UTC()
	return nil
}

var _ ports.UserRepository = (*userRepo)(nil)
