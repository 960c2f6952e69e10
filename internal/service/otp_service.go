package service

import (
	"context"
	"strings"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
	"github.com/gigboard/gigboard-api/internal/util"
)

// OTPService owns the verification-code state machine. It is independent of
// the job/application domain; the auth flow drives it.
type OTPService struct {
	codes ports.VerificationCodeRepository
	now   func() time.Time
}

func NewOTPService(codeRepo ports.VerificationCodeRepository) *OTPService {
	return &OTPService{codes: codeRepo, now: time.Now}
}

// Issue invalidates every prior code for (email, purpose) and stores a fresh
// uniformly random six-digit code valid for twenty minutes. At most one live
// code per pair exists at any time.
func (s *OTPService) Issue(ctx context.Context, email string, purpose domain.OTPPurpose, userType string) (*domain.VerificationCode, error) {
	email = normalizeEmail(email)
	fields := make(map[string]string)
	if email == "" {
		fields["email"] = "email is required"
	}
	if !isKnownPurpose(purpose) {
		fields["purpose"] = "purpose must be password_reset, account_verification, or login_verification"
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	if err := s.codes.DeleteByEmailAndPurpose(ctx, email, purpose); err != nil {
		return nil, err
	}

	code, err := util.GenerateNumericOTP(domain.OTPLength)
	if err != nil {
		return nil, err
	}
	issued := s.now().UTC()
	return s.codes.Create(ctx, &domain.VerificationCode{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		UserType:  userType,
		ExpiresAt: issued.Add(domain.OTPTTL),
	})
}

// Verify checks a presented code against the live record. Password-reset
// codes stay verifiable for their whole window even after first use, so the
// verify-then-reset flow can present the same code twice; every other
// purpose is single-use.
func (s *OTPService) Verify(ctx context.Context, email, code string, purpose domain.OTPPurpose) error {
	email = normalizeEmail(email)
	now := s.now().UTC()

	includeUsed := purpose == domain.OTPPurposePasswordReset
	record, err := s.codes.FindLive(ctx, email, code, purpose, now, includeUsed)
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}
	if record.Attempts >= domain.OTPMaxAttempts {
		return ErrAttemptsExceeded
	}
	if !record.IsUsed {
		if err := s.codes.MarkUsed(ctx, record.ID); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFailedAttempt charges a wrong guess against the live record for
// the pair. The engine never auto-increments on lookup misses; the caller
// invokes this when it has evidence of a wrong guess. Once the cap is
// reached the count stops moving.
func (s *OTPService) RegisterFailedAttempt(ctx context.Context, email string, purpose domain.OTPPurpose) error {
	email = normalizeEmail(email)
	record, err := s.codes.FindLiveByEmailAndPurpose(ctx, email, purpose, s.now().UTC())
	if err != nil {
		if isNotFound(err) {
			return ErrInvalidOrExpiredCode
		}
		return err
	}
	if record.Attempts >= domain.OTPMaxAttempts {
		return ErrAttemptsExceeded
	}
	return s.codes.IncrementAttempts(ctx, record.ID)
}

// PurgeExpired sweeps dead codes. Expired codes never verify regardless of
// whether the sweep has run.
func (s *OTPService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.codes.DeleteExpired(ctx, s.now().UTC())
}

func isKnownPurpose(purpose domain.OTPPurpose) bool {
	switch purpose {
	case domain.OTPPurposePasswordReset, domain.OTPPurposeAccountVerification, domain.OTPPurposeLoginVerification:
		return true
	default:
		return false
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
