package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/repository"
)

// UserHandler implements registration and profile endpoints. Registration
// issues the email confirmation code consumed later by the verify-email
// flow.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Hasher   auth.CredentialHasher
	Notifier auth.Notifier
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, hasher auth.CredentialHasher, notifier auth.Notifier) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Hasher: hasher, Notifier: notifier}
}

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type updateProfileReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   string `json:"picture"`
	Email     string `json:"email"`
}

type userResp struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Picture   string `json:"picture,omitempty"`
	Verified  bool   `json:"email_verified"`
}

func toUserResp(u *auth.User) userResp {
	return userResp{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Picture:   u.Picture,
		Verified:  u.Verified,
	}
}

// Register creates a user with a pending confirmation code and emails it.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name/last_name/email/password required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	hash, err := h.Hasher.Hash(req.Password)
	if err != nil {
		return serverError(c, "hash password", err)
	}
	code, err := auth.NewEmailVerificationCode(h.Cfg.EmailCodeDigits)
	if err != nil {
		return serverError(c, "generate code", err)
	}
	codeExp := time.Now().UTC().Add(h.Cfg.EmailCodeTTL)

	u := &auth.User{
		ID:            uuid.New(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		PasswordHash:  hash,
		PendingCode:   &code,
		CodeExpiresAt: &codeExp,
	}
	if err := h.Users.Create(ctx, u); err != nil {
		if err == auth.ErrEmailExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
		}
		return serverError(c, "create user", err)
	}
	log.Printf("user %s created", u.ID)

	h.sendConfirmationCode(c, u.FirstName, u.Email, code)

	return c.JSON(http.StatusCreated, echo.Map{"data": toUserResp(u)})
}

// Me returns the authenticated user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		return serverError(c, "load user", err)
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toUserResp(u)})
}

// Update changes profile fields. Supplying a new email resets verification
// and mails a fresh confirmation code.
func (h *UserHandler) Update(c echo.Context) error {
	uid, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.FindByID(ctx, uid)
	if err != nil {
		return serverError(c, "load user", err)
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if req.FirstName == "" {
		req.FirstName = u.FirstName
	}
	if req.LastName == "" {
		req.LastName = u.LastName
	}
	if err := h.Users.UpdateProfile(ctx, uid, req.FirstName, req.LastName, req.Picture); err != nil {
		return serverError(c, "update profile", err)
	}

	if req.Email != "" && req.Email != u.Email {
		code, err := auth.NewEmailVerificationCode(h.Cfg.EmailCodeDigits)
		if err != nil {
			return serverError(c, "generate code", err)
		}
		codeExp := time.Now().UTC().Add(h.Cfg.EmailCodeTTL)
		if err := h.Users.UpdateEmail(ctx, uid, req.Email, code, codeExp); err != nil {
			if err == auth.ErrEmailExists {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists"})
			}
			return serverError(c, "update email", err)
		}
		h.sendConfirmationCode(c, req.FirstName, req.Email, code)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated successfully"})
}

// Delete removes the authenticated user; token rows cascade.
func (h *UserHandler) Delete(c echo.Context) error {
	uid, ok := c.Get("user_id").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, uid); err != nil {
		return serverError(c, "delete user", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// sendConfirmationCode is fire-and-forget like every other email path.
func (h *UserHandler) sendConfirmationCode(c echo.Context, name, address, code string) {
	payload := map[string]string{
		"name":             name,
		"code":             code,
		"expiresInMinutes": strconv.Itoa(int(h.Cfg.EmailCodeTTL / time.Minute)),
	}
	if err := h.Notifier.Send(c.Request().Context(), address, auth.TemplateConfirmEmail, payload); err != nil {
		log.Printf("handler: failed to send confirmation email to %s: %v", address, err)
	}
}
