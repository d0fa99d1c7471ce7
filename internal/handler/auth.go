package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/auth"
)

// AuthHandler bundles dependencies for the credential endpoints.
type AuthHandler struct {
	Svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler { return &AuthHandler{Svc: svc} }

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type verifyEmailReq struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type passwordlessLoginReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Login verifies email and password and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect email or password"})
		default:
			return serverError(c, "login", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Login successful", "data": pair})
}

// VerifyEmail consumes a pending confirmation code.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/code required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.VerifyEmail(ctx, req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email not found"})
		case errors.Is(err, auth.ErrAlreadyVerified):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already verified"})
		case errors.Is(err, auth.ErrInvalidCode):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid code"})
		case errors.Is(err, auth.ErrCodeExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "code expired"})
		default:
			return serverError(c, "verify email", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Email verified successfully"})
}

// ForgotPassword issues a reset token and emails the link.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		if errors.Is(err, auth.ErrEmailNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email not found"})
		}
		return serverError(c, "forgot password", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset link sent to your email account"})
}

// ResetPassword consumes the emailed token and sets a new password.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token/password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ResetPassword(ctx, req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
		case errors.Is(err, auth.ErrTokenExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "token expired"})
		default:
			return serverError(c, "reset password", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password reset successfully"})
}

// ChangePassword swaps the password of the authenticated user (protected).
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old_password/new_password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.ChangePassword(ctx, uid, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotFound):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "incorrect password"})
		case errors.Is(err, auth.ErrPasswordUnchanged):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "new password cannot be the same as your old password"})
		default:
			return serverError(c, "change password", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password changed successfully"})
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	access, expiresIn, err := h.Svc.RefreshToken(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid refresh token"})
		case errors.Is(err, auth.ErrTokenExpired):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "this token has expired"})
		default:
			return serverError(c, "refresh", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Success",
		"data":    echo.Map{"access_token": access, "expires_in": expiresIn},
	})
}

// RequestOTP mails a passwordless magic link. The address arrives as a query
// parameter so the link can be requested from a plain anchor tag.
func (h *AuthHandler) RequestOTP(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Svc.RequestOTP(ctx, email); err != nil {
		if errors.Is(err, auth.ErrEmailNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email not found"})
		}
		return serverError(c, "request otp", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Passwordless Login verification link sent successfully"})
}

// PasswordlessLogin consumes the OTP and returns a token pair. All secret
// failures collapse into one 401 so the response does not reveal which
// check failed.
func (h *AuthHandler) PasswordlessLogin(c echo.Context) error {
	var req passwordlessLoginReq
	if err := c.Bind(&req); err != nil || req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Svc.PasswordlessLogin(ctx, req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotFound), errors.Is(err, auth.ErrInvalidOTP):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect email or password"})
		default:
			return serverError(c, "passwordless login", err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Passwordless Login successful", "data": pair})
}

// serverError logs the underlying cause and returns an opaque 500. Storage
// faults land here; the taxonomy treats them as infrastructural.
func serverError(c echo.Context, op string, err error) error {
	log.Printf("handler: %s failed: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
