// Copyright (c) 2026 Folio Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/kenma/folio/internal/broadcast"
	"github.com/kenma/folio/internal/config"
	"github.com/kenma/folio/internal/handler"
	"github.com/kenma/folio/internal/mail"
	"github.com/kenma/folio/internal/middleware"
	"github.com/kenma/folio/internal/session"
	"github.com/kenma/folio/internal/store"
	"github.com/kenma/folio/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "folio - Portfolio website with a small CMS backend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ADMIN_PASSWORD   Admin bootstrap password (required, min 8 chars)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ADMIN_USERNAME   Admin bootstrap username (default: admin)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_DB_PATH          SQLite database path (default: ./data/folio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_UPLOADS_DIR      Uploaded image directory (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SMTP_HOST        SMTP relay host for contact notifications (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_CONTACT_EMAIL    Address contact submissions are relayed to\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		_, _ = fmt.Printf("folio %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data and uploads directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		return fmt.Errorf("creating uploads directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Provision the admin account from configuration
	ctx := context.Background()
	if err := store.EnsureAdmin(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("provisioning admin account: %w", err)
	}

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Initialize login protection
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	slog.Info("login protection initialized")

	// Initialize the live-update broadcaster
	broadcaster := broadcast.New(logger)

	// Initialize the mail relay and probe it once; an unreachable relay
	// disables notifications without failing startup.
	var relay handler.ContactRelay
	if cfg.MailEnabled() {
		mailer := mail.New(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			To:       cfg.ContactEmail,
		}, logger)
		mailer.Probe()
		relay = mailer
	} else {
		slog.Info("mail relay not configured, contact notifications disabled")
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(db, sessionManager, loginProtection)
	projectsHandler := handler.NewProjectsHandler(db, broadcaster)
	settingsHandler := handler.NewSettingsHandler(db, broadcaster)
	contactHandler := handler.NewContactHandler(db, relay)
	eventsHandler := handler.NewEventsHandler(broadcaster)
	uploadHandler := handler.NewUploadHandler(cfg.UploadsDir)
	healthHandler := handler.NewHealthHandler(db, broadcaster, cfg.UploadsDir, appVersion)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.LoadIdentity(sessionManager, db))

	// Health check routes
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// Throttle the one write endpoint open to anonymous visitors
	contactLimiter := middleware.NewRateLimiter(1, 5)

	r.Route("/api", func(r chi.Router) {
		// The event stream stays open indefinitely, so it lives outside
		// the request timeout; the handler clears the write deadline.
		r.Get("/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(30 * time.Second))

			r.Get("/projects", projectsHandler.List)
			r.Get("/projects/{id}", projectsHandler.Get)
			r.Get("/settings", settingsHandler.Get)
			r.With(contactLimiter.Middleware()).Post("/contact", contactHandler.Submit)

			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/register", authHandler.Register)

			// Admin routes: every mutation fails closed without a session
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/projects", projectsHandler.Create)
				r.Put("/projects/{id}", projectsHandler.Update)
				r.Delete("/projects/{id}", projectsHandler.Delete)
				r.Put("/settings", settingsHandler.Update)
				r.Post("/settings", settingsHandler.Update) // HTML forms can't send PUT
				r.Post("/upload", uploadHandler.Upload)
			})
		})
	})

	// Short aliases kept for older clients
	r.Get("/events", eventsHandler.Stream)
	r.With(contactLimiter.Middleware()).Post("/contact", contactHandler.Submit)

	// Serve uploaded images (cache for 1 week)
	uploadsHandler := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir)))
	r.Handle("/uploads/*", cacheControl(604800, uploadsHandler))

	// Static frontend from the embedded filesystem
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))
	r.Get("/admin", serveIndex(staticFS, "admin.html"))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		// Unknown paths fall back to the SPA entry point.
		if _, err := fs.Stat(staticFS, req.URL.Path[1:]); err == nil {
			fileServer.ServeHTTP(w, req)
			return
		}
		serveIndex(staticFS, "index.html")(w, req)
	})
	r.Get("/", serveIndex(staticFS, "index.html"))

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // event streams clear this per connection
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// serveIndex serves one embedded HTML entry point.
func serveIndex(staticFS fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := fs.ReadFile(staticFS, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	}
}

// cacheControl sets a public max-age header on responses.
func cacheControl(seconds int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", seconds))
		next.ServeHTTP(w, r)
	})
}
