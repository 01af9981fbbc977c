// Package main BookSwap API.
//
// @title           BookSwap Marketplace API
// @version         1.0
// @description     book exchange service (signup with email verification, book listings, exchange requests).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"bookswap/app/echoServer"
	authctrl "bookswap/app/echoServer/controller/auth"
	bookctrl "bookswap/app/echoServer/controller/book"
	requestctrl "bookswap/app/echoServer/controller/request"
	"bookswap/app/echoServer/validation"
	"bookswap/config"
	authrepo "bookswap/repository/auth"
	bookrepo "bookswap/repository/book"
	requestrepo "bookswap/repository/request"
	authsvc "bookswap/service/auth"
	booksvc "bookswap/service/book"
	requestsvc "bookswap/service/request"
	"bookswap/util/database"
	"bookswap/util/mailer"
	"bookswap/util/upload"
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	files, err := upload.NewStore(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir unusable", "dir", cfg.UploadDir, "err", err)
		os.Exit(1)
	}

	mail := mailer.New(mailer.Config{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.MailFrom,
	})

	// repos
	ar := authrepo.New(db)
	br := bookrepo.New(db)
	rr := requestrepo.New(db)

	// services
	as := authsvc.New(ar, mail, cfg.JWTSecret, log)
	bs := booksvc.New(br)
	rs := requestsvc.New(rr, br, mail, log)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, Files: files, V: v, Log: log}
	requestC := &requestctrl.Controller{Svc: rs, V: v, Log: log}

	// expired refresh tokens and stale unverified signups
	cleaner := authsvc.NewCleaner(ar)
	cr := cron.New()
	if _, err := cr.AddFunc("@hourly", func() {
		n, err := cleaner.PurgeExpired(context.Background())
		if err != nil {
			log.Error("auth cleanup failed", "err", err)
			return
		}
		if n > 0 {
			log.Info("auth cleanup", "removed", n)
		}
	}); err != nil {
		log.Error("cron schedule failed", "err", err)
		os.Exit(1)
	}
	cr.Start()
	defer cr.Stop()

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:    authC,
		Book:    bookC,
		Request: requestC,

		JWTSecret: cfg.JWTSecret,
		UploadDir: files.Dir(),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}
	if port == "" {
		port = "8080"
	}

	slog.Info("starting server", "env", cfg.Env, "port", port)

	e.Logger.Fatal(e.Start(":" + port))
}
