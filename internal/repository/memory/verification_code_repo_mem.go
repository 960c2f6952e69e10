package memory

import (
	"context"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type codeRepo struct {
	store *Store
}

func (r *codeRepo) Create(_ context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	created := copyCode(code)
	r.store.nextCodeID++
	created.ID = r.store.nextCodeID
	created.IsUsed = false
	created.Attempts = 0
	created.CreatedAt = time.Now().UTC()
	r.store.codes[created.ID] = created
	return copyCode(created), nil
}

func (r *codeRepo) DeleteByEmailAndPurpose(_ context.Context, email string, purpose domain.OTPPurpose) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for id, code := range r.store.codes {
		if code.Email == email && code.Purpose == purpose {
			delete(r.store.codes, id)
		}
	}
	return nil
}

func (r *codeRepo) FindLive(_ context.Context, email, code string, purpose domain.OTPPurpose, now time.Time, includeUsed bool) (*domain.VerificationCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var newest *domain.VerificationCode
	for _, stored := range r.store.codes {
		if stored.Email != email || stored.Code != code || stored.Purpose != purpose {
			continue
		}
		if stored.IsExpired(now) {
			continue
		}
		if stored.IsUsed && !includeUsed {
			continue
		}
		if newest == nil || stored.CreatedAt.After(newest.CreatedAt) {
			newest = stored
		}
	}
	if newest == nil {
		return nil, ports.ErrNotFound
	}
	return copyCode(newest), nil
}

func (r *codeRepo) FindLiveByEmailAndPurpose(_ context.Context, email string, purpose domain.OTPPurpose, now time.Time) (*domain.VerificationCode, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var newest *domain.VerificationCode
	for _, stored := range r.store.codes {
		if stored.Email != email || stored.Purpose != purpose || stored.IsExpired(now) {
			continue
		}
		if newest == nil || stored.CreatedAt.After(newest.CreatedAt) {
			newest = stored
		}
	}
	if newest == nil {
		return nil, ports.ErrNotFound
	}
	return copyCode(newest), nil
}

func (r *codeRepo) IncrementAttempts(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	code, ok := r.store.codes[id]
	if !ok {
		return ports.ErrNotFound
	}
	code.Attempts++
	return nil
}

func (r *codeRepo) MarkUsed(_ context.Context, id int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	code, ok := r.store.codes[id]
	if !ok {
		return ports.ErrNotFound
	}
	code.IsUsed = true
	return nil
}

func (r *codeRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for id, code := range r.store.codes {
		if code.IsExpired(now) {
			delete(r.store.codes, id)
			removed++
		}
	}
	return removed, nil
}

var _ ports.VerificationCodeRepository = (*codeRepo)(nil)
