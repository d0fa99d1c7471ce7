// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/middleware"
)

// Register mounts every route. Credential endpoints sit behind the rate
// limiter; profile, change-password and upload require a valid access token.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client,
	issuer *auth.TokenIssuer, a *handler.AuthHandler, u *handler.UserHandler, up *handler.UploadHandler) {

	e.GET("/healthz", handler.Health)

	limited := middleware.RateLimit(cfg.RateLimit, rdb)

	g := e.Group("/v1/auth", limited)
	g.POST("/login", a.Login)
	g.POST("/verify-email", a.VerifyEmail)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
	g.POST("/refresh-token", a.Refresh)
	g.GET("/otp", a.RequestOTP)
	g.POST("/passwordless-login", a.PasswordlessLogin)

	users := e.Group("/v1/users")
	users.POST("", u.Register, limited)

	protected := e.Group("/v1", middleware.JWTAuth(issuer))
	protected.POST("/auth/change-password", a.ChangePassword)
	protected.GET("/users/me", u.Me)
	protected.PUT("/users", u.Update)
	protected.DELETE("/users", u.Delete)
	protected.POST("/upload", up.Upload)
}
