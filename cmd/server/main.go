package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/user-auth-service/internal/auth"
	"github.com/iliyamo/user-auth-service/internal/config"
	"github.com/iliyamo/user-auth-service/internal/database"
	"github.com/iliyamo/user-auth-service/internal/email"
	"github.com/iliyamo/user-auth-service/internal/handler"
	"github.com/iliyamo/user-auth-service/internal/queue"
	"github.com/iliyamo/user-auth-service/internal/repository"
	"github.com/iliyamo/user-auth-service/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	txRunner := repository.NewTxRunner(db)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, tokens)
	notifier := queue.NewPublisher(cfg.AmqpURL)
	svc := auth.NewService(users, tokens, txRunner, hasher, issuer, notifier,
		cfg.Host, cfg.ResetTTL, cfg.OTPTTL)

	sender := email.NewSender(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFromName, cfg.EmailFromEmail)
	go queue.StartEmailConsumer(cfg.AmqpURL, sender)

	e := echo.New()
	router.Register(e, cfg, rdb,
		issuer,
		handler.NewAuthHandler(svc),
		handler.NewUserHandler(cfg, users, hasher, notifier),
		handler.NewUploadHandler(cfg.UploadDir))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
