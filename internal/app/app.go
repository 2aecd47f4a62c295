package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gahigi/api/internal/config"
	"github.com/gahigi/api/internal/db"
	"github.com/gahigi/api/internal/logger"
	"github.com/gahigi/api/internal/repository"
	"github.com/gahigi/api/internal/routes"
	"github.com/gahigi/api/internal/service"
	"github.com/gahigi/api/internal/storage"
	"github.com/jmoiron/sqlx"
)

// App holds the wired application: config, database, and the HTTP server.
type App struct {
	Config *config.Config
	DB     *sqlx.DB
	Server *http.Server
}

// New loads configuration, connects the database, runs migrations, and
// wires repositories, services, and routes.
func New() (*App, error) {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init: %w", err)
	}

	userRepository := repository.NewUserRepository(database)
	tokenRepository := repository.NewTokenRepository(database)
	fileRepository := repository.NewFileRepository(database)

	emailService := service.NewEmailService(cfg.ResendAPIKey, cfg.EmailFrom, cfg.SupportEmail, cfg.AppName, cfg.IsDevelopment())
	fileService := service.NewFileService(fileRepository, userRepository, store)
	userService := service.NewUserService(userRepository, fileService)
	authService := service.NewAuthService(
		userRepository,
		tokenRepository,
		fileService,
		emailService,
		cfg.JWTSecret,
		cfg.JWTExpiry,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenPasswordResetExpiry,
		cfg.NonceExpiry,
	)

	handler := routes.New(cfg, authService, userService, fileService)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	return &App{
		Config: cfg,
		DB:     database,
		Server: server,
	}, nil
}

// Run starts the HTTP server and blocks until it exits.
func (a *App) Run() error {
	logger.Log.Info("server listening", "addr", a.Server.Addr, "env", a.Config.AppEnv)
	err := a.Server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server and closes the database.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Server.Shutdown(ctx)
	closeErr := db.Close(a.DB)
	if err != nil {
		return err
	}
	return closeErr
}
