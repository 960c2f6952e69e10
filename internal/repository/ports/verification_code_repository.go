package ports

import (
	"context"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain"
)

type VerificationCodeRepository interface {
	// Create stores a fresh code after the caller has invalidated prior ones.
	Create(ctx context.Context, code *domain.VerificationCode) (*domain.VerificationCode, error)
	// DeleteByEmailAndPurpose removes every code for the pair, live or not.
	DeleteByEmailAndPurpose(ctx context.Context, email string, purpose domain.OTPPurpose) error
	// FindLive returns the unexpired record matching email+code+purpose.
	// includeUsed widens the match to already-consumed codes (password reset
	// keeps its code verifiable for the full window).
	FindLive(ctx context.Context, email, code string, purpose domain.OTPPurpose, now time.Time, includeUsed bool) (*domain.VerificationCode, error)
	// FindLiveByEmailAndPurpose returns the unexpired record for the pair
	// regardless of code value, for attempt bookkeeping.
	FindLiveByEmailAndPurpose(ctx context.Context, email string, purpose domain.OTPPurpose, now time.Time) (*domain.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id int64) error
	MarkUsed(ctx context.Context, id int64) error
	// DeleteExpired sweeps records past their expiry. Best effort; expired
	// codes never verify whether or not the sweep has run.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
