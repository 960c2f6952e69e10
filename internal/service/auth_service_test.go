package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/memory"
	"github.com/gigboard/gigboard-api/internal/util"
)

type authFixture struct {
	auth *AuthService
	otp  *OTPService
}

func newAuthFixture() *authFixture {
	store := memory.NewStore()
	otp := NewOTPService(store.VerificationCodes())
	jwtManager := util.NewJWTManager("test-secret", time.Hour)
	auth := NewAuthService(store.Users(), otp, jwtManager, nil, "")
	return &authFixture{auth: auth, otp: otp}
}

// issuedCode digs the live code for the pair out of the repository the way
// the user would read it from their inbox.
func (f *authFixture) issuedCode(t *testing.T, email string, purpose domain.OTPPurpose) string {
	t.Helper()
	record, err := f.otp.codes.FindLiveByEmailAndPurpose(context.Background(), email, purpose, time.Now().UTC())
	if err != nil {
		t.Fatalf("no live %s code for %s: %v", purpose, email, err)
	}
	return record.Code
}

func TestRegisterAndVerifyAccount(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()

	user, err := f.auth.Register(ctx, "New.User@Example.com", "sufficient1pass", domain.RoleWorker)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "new.user@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.EmailVerified {
		t.Fatal("fresh account must not be verified")
	}

	code := f.issuedCode(t, user.Email, domain.OTPPurposeAccountVerification)
	if err := f.auth.VerifyAccount(ctx, user.Email, code); err != nil {
		t.Fatalf("VerifyAccount: %v", err)
	}

	verified, err := f.auth.GetUser(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !verified.EmailVerified {
		t.Fatal("account not marked verified")
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture()
	_, err := f.auth.Register(context.Background(), "", "short", domain.UserRole("admin"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	for _, field := range []string{"email", "password", "role"} {
		if _, ok := vErr.Fields[field]; !ok {
			t.Errorf("missing violation for %q in %v", field, vErr.Fields)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, "a@b.com", "sufficient1pass", domain.RoleWorker); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.auth.Register(ctx, "a@b.com", "sufficient1pass", domain.RoleEmployer); !errors.Is(err, ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	registered, err := f.auth.Register(ctx, "a@b.com", "sufficient1pass", domain.RoleWorker)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := f.auth.Login(ctx, "a@b.com", "wrong1password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "nobody@b.com", "sufficient1pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}

	token, user, err := f.auth.Login(ctx, "a@b.com", "sufficient1pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != registered.ID {
		t.Fatal("login returned a different user")
	}

	authed, err := f.auth.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if authed.ID != registered.ID {
		t.Fatal("token resolved to a different user")
	}
	if _, err := f.auth.Authenticate(ctx, token+"tampered"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("tampered token: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, "a@b.com", "original1pass", domain.RoleWorker); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := f.auth.RequestPasswordReset(ctx, "a@b.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	code := f.issuedCode(t, "a@b.com", domain.OTPPurposePasswordReset)

	// Step one checks the code, step two presents it again.
	if err := f.auth.VerifyResetCode(ctx, "a@b.com", code); err != nil {
		t.Fatalf("VerifyResetCode: %v", err)
	}
	if err := f.auth.ResetPassword(ctx, "a@b.com", code, "replacement1pass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, _, err := f.auth.Login(ctx, "a@b.com", "original1pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "a@b.com", "replacement1pass"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}

	// The reuse window closed with the password change.
	if err := f.auth.VerifyResetCode(ctx, "a@b.com", code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("code after reset: expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestPasswordResetUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture()
	if err := f.auth.RequestPasswordReset(context.Background(), "nobody@b.com"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
}

func TestVerifyAccountWrongGuessesBurnAttempts(t *testing.T) {
	f := newAuthFixture()
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, "a@b.com", "sufficient1pass", domain.RoleWorker); err != nil {
		t.Fatalf("Register: %v", err)
	}
	code := f.issuedCode(t, "a@b.com", domain.OTPPurposeAccountVerification)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < domain.OTPMaxAttempts; i++ {
		if err := f.auth.VerifyAccount(ctx, "a@b.com", wrong); !errors.Is(err, ErrInvalidOrExpiredCode) {
			t.Fatalf("wrong guess %d: expected ErrInvalidOrExpiredCode, got %v", i+1, err)
		}
	}
	// Even the right code is refused once the guesses are spent.
	if err := f.auth.VerifyAccount(ctx, "a@b.com", code); !errors.Is(err, ErrAttemptsExceeded) {
		t.Fatalf("expected ErrAttemptsExceeded, got %v", err)
	}
}
