package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
)

type VerificationCodeRepository struct {
	db *sqlx.DB
}

func NewVerificationCodeRepo(db *sqlx.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: db}
}

const codeColumns = `id, email, code, purpose, user_type, is_used, attempts, expires_at, created_at`

func (r *VerificationCodeRepository) Create(ctx context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error) {
	const query = `
		INSERT INTO verification_code (email, code, purpose, user_type, is_used, attempts, expires_at)
		VALUES ($1, $2, $3, $4, FALSE, 0, $5)
		RETURNING ` + codeColumns

	var stored domain.VerificationCode
	row := r.db.QueryRowxContext(ctx, query,
		code.Email, code.Code, code.Purpose, code.UserType, code.ExpiresAt)
	if err := row.StructScan(&stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *VerificationCodeRepository) DeleteByEmailAndPurpose(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	const query = `
		DELETE FROM verification_code
		WHERE email = $1 AND purpose = $2
	`
	_, err := r.db.ExecContext(ctx, query, email, purpose)
	return err
}

func (r *VerificationCodeRepository) FindLive(ctx context.Context, email, code string, purpose domain.OTPPurpose, now time.Time, includeUsed bool) (*domain.VerificationCode, error) {
	const query = `
		SELECT ` + codeColumns + `
		FROM verification_code
		WHERE email = $1 AND code = $2 AND purpose = $3
		  AND expires_at > $4
		  AND (is_used = FALSE OR $5)
		ORDER BY created_at DESC
		LIMIT 1
	`
	var stored domain.VerificationCode
	if err := r.db.GetContext(ctx, &stored, query, email, code, purpose, now, includeUsed); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *VerificationCodeRepository) FindLiveByEmailAndPurpose(ctx context.Context, email string, purpose domain.OTPPurpose, now time.Time) (*domain.VerificationCode, error) {
	const query = `
		SELECT ` + codeColumns + `
		FROM verification_code
		WHERE email = $1 AND purpose = $2 AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	var stored domain.VerificationCode
	if err := r.db.GetContext(ctx, &stored, query, email, purpose, now); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *VerificationCodeRepository) IncrementAttempts(ctx context.Context, id int64) error {
	const query = `
		UPDATE verification_code
		SET attempts = attempts + 1
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *VerificationCodeRepository) MarkUsed(ctx context.Context, id int64) error {
	const query = `
		UPDATE verification_code
		SET is_used = TRUE
		WHERE id = $1 AND is_used = FALSE
	`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *VerificationCodeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		DELETE FROM verification_code
		WHERE expires_at <= $1
	`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ ports.VerificationCodeRepository = (*VerificationCodeRepository)(nil)
