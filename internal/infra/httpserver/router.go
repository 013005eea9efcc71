// Package httpserver exposes the auth and report API over HTTP.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appauth "github.com/bryanwahyu/seoscan/internal/application/auth"
	domai "github.com/bryanwahyu/seoscan/internal/domain/ai"
	domain "github.com/bryanwahyu/seoscan/internal/domain/scans"
	"github.com/bryanwahyu/seoscan/internal/domain/users"
	"github.com/bryanwahyu/seoscan/internal/logger"
	"github.com/bryanwahyu/seoscan/internal/middleware"
)

const maxBodyBytes = 1 << 20

// ScanService is the part of the scan use-cases the API needs.
type ScanService interface {
	Submit(ctx context.Context, url, userID string) (*domain.Scan, error)
	Get(ctx context.Context, id domain.ScanID, userID string) (*domain.ScanWithReport, error)
	History(ctx context.Context, userID string) ([]*domain.Scan, error)
}

// AuthService is the part of the account use-cases the API needs.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*appauth.Session, error)
	Login(ctx context.Context, email, password string) (*appauth.Session, error)
	Profile(ctx context.Context, userID string) (*users.User, error)
}

// Options carries the optional pieces of the router.
type Options struct {
	AllowedOrigins []string
	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie bool
	SessionTTL   time.Duration
	RateLimiter  *middleware.RateLimiter
	Metrics      *middleware.Metrics
	Checkers     map[string]middleware.HealthChecker
	Logger       logger.Logger
}

type Router struct {
	scans    ScanService
	auth     AuthService
	sessions middleware.SessionParser
	opts     Options
	log      logger.Logger
}

func NewRouter(scansSvc ScanService, authSvc AuthService, sessions middleware.SessionParser, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:3000"}
	}
	r := &Router{scans: scansSvc, auth: authSvc, sessions: sessions, opts: opts, log: opts.Logger}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID, chimw.RealIP)
	mux.Use(middleware.Logging(r.log))
	if opts.Metrics != nil {
		mux.Use(opts.Metrics.Middleware)
	}
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/livez", middleware.LivenessHandler)
	if opts.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	mux.Route("/auth", func(rt chi.Router) {
		r.limit(rt)
		rt.Post("/signup", r.wrap(r.handleSignup))
		rt.Post("/login", r.wrap(r.handleLogin))
		rt.Post("/logout", r.wrap(r.handleLogout))
		rt.With(middleware.RequireSession(sessions)).Get("/profile", r.wrap(r.handleProfile))
	})

	mux.Route("/report", func(rt chi.Router) {
		rt.Use(middleware.RequireSession(sessions))
		r.limit(rt)
		rt.Post("/scan", r.wrap(r.handleScan))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Get("/{id}", r.wrap(r.handleGet))
	})

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not Found")
	})
	return mux
}

func (r *Router) limit(rt chi.Router) {
	if r.opts.RateLimiter != nil {
		rt.Use(r.opts.RateLimiter.Middleware)
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

var errUnauthenticated = errors.New("unauthenticated")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var ve *middleware.ValidationError
		switch {
		case errors.As(err, &ve):
			middleware.WriteError(w, http.StatusBadRequest, ve.Message)
		case errors.Is(err, errBadBody), errors.Is(err, domain.ErrInvalidInput):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, appauth.ErrInvalidCredentials):
			middleware.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, errUnauthenticated):
			middleware.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, domain.ErrNotFound):
			middleware.WriteError(w, http.StatusNotFound, "Scan not found")
		case errors.Is(err, appauth.ErrEmailTaken):
			middleware.WriteError(w, http.StatusConflict, "User with this email already exists")
		case errors.Is(err, domai.ErrQuotaExceeded):
			middleware.WriteError(w, http.StatusTooManyRequests, "ai quota exceeded")
		default:
			r.log.Error("request failed",
				logger.String("path", req.URL.Path),
				logger.String("request_id", chimw.GetReqID(req.Context())),
				logger.Error(err),
			)
			middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
		}
	}
}

var errBadBody = errors.New("invalid request body")

func decode(req *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

func principal(req *http.Request) (middleware.Principal, error) {
	p, ok := middleware.UserFromContext(req.Context())
	if !ok {
		return middleware.Principal{}, errUnauthenticated
	}
	return p, nil
}
