package service

import (
	"context"
	"log"
	"time"

	"google.golang.org/api/idtoken"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/repository/ports"
	"github.com/gigboard/gigboard-api/internal/util"
)

// OTPMailer delivers verification codes. Delivery is best effort; a failed
// send is logged and never fails the auth operation that issued the code.
type OTPMailer interface {
	SendOTP(ctx context.Context, email, code string, purpose domain.OTPPurpose) error
}

type AuthService struct {
	users  ports.UserRepository
	otp    *OTPService
	jwt    *util.JWTManager
	mailer OTPMailer
	aud    string
}

func NewAuthService(userRepo ports.UserRepository, otp *OTPService, jwtManager *util.JWTManager, mailer OTPMailer, googleAud string) *AuthService {
	return &AuthService{users: userRepo, otp: otp, jwt: jwtManager, mailer: mailer, aud: googleAud}
}

func (s *AuthService) Register(ctx context.Context, email, password string, role domain.UserRole) (*domain.User, error) {
	email = normalizeEmail(email)
	fields := make(map[string]string)
	if email == "" {
		fields["email"] = "email is required"
	}
	if role != domain.RoleWorker && role != domain.RoleEmployer {
		fields["role"] = "role must be worker or employer"
	}
	if err := util.ValidatePassword(password); err != nil {
		fields["password"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateEmailUser(ctx, email, role, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}

	s.issueAndSend(ctx, user.Email, domain.OTPPurposeAccountVerification, string(role))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, _, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idTok string, role domain.UserRole) (string, *domain.User, error) {
	payload, err := idtoken.Validate(ctx, idTok, s.aud)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	email, _ := payload.Claims["email"].(string)
	if email == "" {
		return "", nil, ErrInvalidCredentials
	}
	var fullName *string
	if name, ok := payload.Claims["name"].(string); ok && name != "" {
		fullName = &name
	}
	if role != domain.RoleWorker && role != domain.RoleEmployer {
		role = domain.RoleWorker
	}

	user, err := s.users.UpsertGoogleUser(ctx, normalizeEmail(email), fullName, role)
	if err != nil {
		return "", nil, err
	}
	token, _, err := s.jwt.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyAccount consumes an account-verification code. A structurally valid
// but wrong guess is charged against the live record per the attempt cap.
func (s *AuthService) VerifyAccount(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, email, code, domain.OTPPurposeAccountVerification); err != nil {
		s.chargeFailedGuess(ctx, err, email, domain.OTPPurposeAccountVerification)
		return err
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return s.users.MarkEmailVerified(ctx, user.ID)
}

// RequestPasswordReset issues a reset code. Unknown emails are ignored so
// the endpoint does not reveal which addresses hold accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	s.issueAndSend(ctx, user.Email, domain.OTPPurposePasswordReset, string(user.Role))
	return nil
}

// VerifyResetCode is the first half of the two-step reset flow. The code
// stays live afterwards so ResetPassword can present it again.
func (s *AuthService) VerifyResetCode(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, email, code, domain.OTPPurposePasswordReset); err != nil {
		s.chargeFailedGuess(ctx, err, email, domain.OTPPurposePasswordReset)
		return err
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := s.otp.Verify(ctx, email, code, domain.OTPPurposePasswordReset); err != nil {
		s.chargeFailedGuess(ctx, err, email, domain.OTPPurposePasswordReset)
		return err
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return newValidationError(map[string]string{"password": err.Error()})
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	hash, salt, err := util.DerivePassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, salt); err != nil {
		return err
	}
	// The reuse window ends once the password actually changes.
	return s.otp.codes.DeleteByEmailAndPurpose(ctx, email, domain.OTPPurposePasswordReset)
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) GetUser(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueAndSend(ctx context.Context, email string, purpose domain.OTPPurpose, userType string) {
	code, err := s.otp.Issue(ctx, email, purpose, userType)
	if err != nil {
		log.Printf("issue %s code for %s: %v", purpose, email, err)
		return
	}
	if s.mailer == nil {
		return
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	go func() {
		defer cancel()
		if err := s.mailer.SendOTP(sendCtx, email, code.Code, purpose); err != nil {
			log.Printf("send %s code to %s: %v", purpose, email, err)
		}
	}()
}

// chargeFailedGuess increments attempts only when the failure was a wrong
// guess against a live record, never on plain expiry with no record left.
func (s *AuthService) chargeFailedGuess(ctx context.Context, verifyErr error, email string, purpose domain.OTPPurpose) {
	if verifyErr != ErrInvalidOrExpiredCode {
		return
	}
	if err := s.otp.RegisterFailedAttempt(ctx, email, purpose); err != nil && err != ErrInvalidOrExpiredCode && err != ErrAttemptsExceeded {
		log.Printf("register failed %s attempt for %s: %v", purpose, email, err)
	}
}
