// Package main initializes and starts the SneakVault web server, setting up
// configuration, logging, the database, repositories, services, handlers
// and optional TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/sneakvault/internal/authz"
	"github.com/atinyakov/sneakvault/internal/config"
	"github.com/atinyakov/sneakvault/internal/db"
	"github.com/atinyakov/sneakvault/internal/logger"
	"github.com/atinyakov/sneakvault/internal/media"
	"github.com/atinyakov/sneakvault/internal/repository"
	"github.com/atinyakov/sneakvault/internal/server/handler/http"
	"github.com/atinyakov/sneakvault/internal/service"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse .env, flags, config file and environment.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log, err := initLogger(options)
	if err != nil {
		// the logger is not usable yet
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Log.Sync() }()
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A database that cannot be reached halts startup.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	db.StartSessionCleaner(ctx, postgresDB, 15*time.Minute, zapLogger)

	sneakerRepo := repository.NewPostgresSneakerRepository(postgresDB)
	categoryRepo := repository.NewPostgresCategoryRepository(postgresDB)
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	commentRepo := repository.NewPostgresCommentRepository(postgresDB)
	sessionRepo := repository.NewPostgresSessionRepository(postgresDB)
	statsRepo := repository.NewPostgresStatsRepository(postgresDB)

	images := media.NewStore(options.PublicDir)

	sessionService := service.NewSessionService(sessionRepo, options.SessionTTL)
	catalogService := service.NewCatalogService(sneakerRepo, categoryRepo, commentRepo)
	sneakerService := service.NewSneakerService(sneakerRepo, images)
	categoryService := service.NewCategoryService(categoryRepo)
	userService := service.NewUserService(userRepo)
	commentService := service.NewCommentService(commentRepo, sessionService)
	dashboardService := service.NewDashboardService(statsRepo, sneakerRepo)

	view, err := http.NewRenderer(catalogService, images, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to parse templates", zap.Error(err))
	}

	handlers := http.Handlers{
		Catalog: &http.CatalogHandler{
			Catalog:      catalogService,
			Comments:     commentService,
			Captchas:     sessionService,
			View:         view,
			Log:          zapLogger,
			SecureCookie: options.CookieSecure,
		},
		Auth: &http.AuthHandler{
			AuthService:  userService,
			Sessions:     sessionService,
			View:         view,
			Log:          zapLogger,
			SecureCookie: options.CookieSecure,
		},
		Admin: &http.AdminHandler{
			Dashboard:  dashboardService,
			Sneakers:   sneakerService,
			Categories: categoryService,
			View:       view,
			Log:        zapLogger,
		},
		Categories: &http.AdminCategoryHandler{Categories: categoryService, View: view, Log: zapLogger},
		Users:      &http.AdminUserHandler{Users: userService, View: view, Log: zapLogger},
		Comments:   &http.AdminCommentHandler{Comments: commentService, View: view, Log: zapLogger},
	}

	router := http.NewRouter(handlers, sessionService, authz.NewGuard(), options.PublicDir, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}()

	if options.TLSCert != "" && options.TLSKey != "" {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}

func initLogger(options *config.Options) (*logger.Logger, error) {
	log := logger.New()
	if err := log.Init(options.LogLevel, options.LogFile); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return log, nil
}
