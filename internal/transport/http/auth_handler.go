package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gigboard/gigboard-api/internal/domain"
	"github.com/gigboard/gigboard-api/internal/service"
	"github.com/gigboard/gigboard-api/internal/util"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
	Role    string `json:"role"`
}

type verifyAccountRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	FullName      *string `json:"full_name,omitempty"`
	EmailVerified bool    `json:"email_verified"`
	CreatedAt     string  `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Role:          string(u.Role),
		FullName:      u.FullName,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// RegisterAuthRoutes wires the account and session endpoints. Code-issuing
// endpoints go through the OTP rate limiter so a single client cannot burn
// through the mail quota.
func RegisterAuthRoutes(e *echo.Echo, auth *service.AuthService, limiter *RedisLimiter, otpLimit int, otpWindow time.Duration) {
	throttled := OTPRateLimit(limiter, otpLimit, otpWindow)

	g := e.Group("/auth")
	g.POST("/register", handleRegister(auth), throttled)
	g.POST("/login", handleLogin(auth))
	g.POST("/login/google", handleGoogleLogin(auth))
	g.POST("/verify-account", handleVerifyAccount(auth))
	g.POST("/password-reset/request", handlePasswordResetRequest(auth), throttled)
	g.POST("/password-reset/verify", handleVerifyResetCode(auth))
	g.POST("/password-reset/confirm", handleResetPassword(auth))

	e.GET("/users/me", handleMe(), RequireAuth(auth))
}

func handleRegister(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		user, err := auth.Register(c.Request().Context(), req.Email, req.Password, domain.UserRole(req.Role))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusCreated, util.Data(toUserResponse(user)))
	}
}

func handleLogin(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		token, user, err := auth.Login(c.Request().Context(), req.Email, req.Password)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]any{
			"token": token,
			"user":  toUserResponse(user),
		}))
	}
}

func handleGoogleLogin(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req googleLoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		token, user, err := auth.LoginWithGoogle(c.Request().Context(), req.IDToken, domain.UserRole(req.Role))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]any{
			"token": token,
			"user":  toUserResponse(user),
		}))
	}
}

func handleVerifyAccount(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req verifyAccountRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := auth.VerifyAccount(c.Request().Context(), req.Email, req.Code); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]string{"message": "account verified"}))
	}
}

func handlePasswordResetRequest(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req passwordResetRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := auth.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
			return serviceError(c, err)
		}
		// Always the same answer, known address or not.
		return c.JSON(http.StatusOK, util.Data(map[string]string{
			"message": "if the address is registered, a reset code is on its way",
		}))
	}
}

func handleVerifyResetCode(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req verifyResetCodeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := auth.VerifyResetCode(c.Request().Context(), req.Email, req.Code); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]string{"message": "code verified"}))
	}
}

func handleResetPassword(auth *service.AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req resetPasswordRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
		}
		if err := auth.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, util.Data(map[string]string{"message": "password updated"}))
	}
}

func handleMe() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, util.Error("authentication required"))
		}
		return c.JSON(http.StatusOK, util.Data(toUserResponse(user)))
	}
}
