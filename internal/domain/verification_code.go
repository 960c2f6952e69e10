package domain

import "time"

type OTPPurpose string

const (
	OTPPurposePasswordReset       OTPPurpose = "password_reset"
	OTPPurposeAccountVerification OTPPurpose = "account_verification"
	OTPPurposeLoginVerification   OTPPurpose = "login_verification"
)

const (
	OTPLength      = 6
	OTPTTL         = 20 * time.Minute
	OTPMaxAttempts = 3
)

type VerificationCode struct {
	ID        int64      `db:"id" json:"id"`
	Email     string     `db:"email" json:"email"`
	Code      string     `db:"code" json:"-"`
	Purpose   OTPPurpose `db:"purpose" json:"purpose"`
	UserType  string     `db:"user_type" json:"user_type"`
	IsUsed    bool       `db:"is_used" json:"is_used"`
	Attempts  int        `db:"attempts" json:"attempts"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

func (v *VerificationCode) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
