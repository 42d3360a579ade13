package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"kitchenops/internal/handlers"
	applog "kitchenops/internal/log"
)

const (
	defaultSessionLifetime = 12 * time.Hour
	defaultCookieName      = "kitchenops_session"
	defaultShutdownTimeout = 5 * time.Second
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr               string
	Session            SessionConfig
	Database           *gorm.DB
	CORSAllowedOrigins []string
	// MaxExpansionDepth bounds sub-recipe expansion; zero keeps the scaling default.
	MaxExpansionDepth int
	ShutdownTimeout   time.Duration
}

// SessionConfig controls the chef session cookie.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

func (c Config) withDefaults() Config {
	if c.Session.Lifetime <= 0 {
		c.Session.Lifetime = defaultSessionLifetime
	}
	if strings.TrimSpace(c.Session.CookieName) == "" {
		c.Session.CookieName = defaultCookieName
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// Server serves the recipe book UI and the scaling API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New wires sessions, handler dependencies and routes into an http.Server.
func New(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()
	ctx := context.Background()

	sessions := newSessionManager(cfg.Session)
	handlers.Configure(sessions, cfg.Database)
	handlers.SetMaxExpansionDepth(cfg.MaxExpansionDepth)

	applog.Debug(ctx, "server configured",
		"addr", cfg.Addr,
		"sessionCookie", cfg.Session.CookieName,
		"sessionLifetime", cfg.Session.Lifetime.String(),
		"hasDatabase", cfg.Database != nil,
		"maxExpansionDepth", cfg.MaxExpansionDepth,
		"corsOrigins", len(cfg.CORSAllowedOrigins),
	)

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           sessions.LoadAndSave(newRouter(cfg.CORSAllowedOrigins)),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
	}, nil
}

func newSessionManager(cfg SessionConfig) *scs.SessionManager {
	sessions := scs.New()
	sessions.Lifetime = cfg.Lifetime
	sessions.Cookie.Name = cfg.CookieName
	sessions.Cookie.Domain = cfg.CookieDomain
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.Persist = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.CookieSecure
	return sessions
}

// Start blocks serving HTTP traffic until Stop is called.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Stop drains in-flight requests within the configured shutdown timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	applog.Debug(ctx, "server draining connections", "timeout", s.config.ShutdownTimeout.String())
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
