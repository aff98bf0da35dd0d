// Package httpapi is the HTTP gateway of the key service. It maps the three
// public operations onto routes, applies CORS, security headers, per-client
// throttling and bearer authentication, and translates service errors into
// fixed status codes and bodies.
package httpapi

import (
	"context"
	"net/http"

	"github.com/abidm-bit/riceKrispies/internal/logging"
	"github.com/abidm-bit/riceKrispies/internal/server/models"
	"github.com/abidm-bit/riceKrispies/internal/server/ratelimit"
	"github.com/abidm-bit/riceKrispies/internal/server/services"
)

type UserService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type KeyService interface {
	Allocate(ctx context.Context, userID int64) (*models.Key, error)
}

type TokenValidator interface {
	ExtractUserID(token string) (int64, error)
}

type Limiter interface {
	Check(client string, class ratelimit.Class) error
}

// Deps are the collaborators the gateway calls into. Stats is optional.
type Deps struct {
	Users   UserService
	Keys    KeyService
	Gate    TokenValidator
	Limiter Limiter
	Stats   ratelimit.StatsStore
	Logger  logging.Logger
}

type Config struct {
	AllowedOrigins []string
}

// Server is an http.Handler factory with all routes mounted.
type Server struct {
	deps Deps
	mux  *http.ServeMux
	cors *cors
	log  logging.Logger
}

// New creates a Server. It does not start listening.
func New(cfg Config, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}

	s := &Server{
		deps: deps,
		mux:  http.NewServeMux(),
		cors: newCORS(cfg.AllowedOrigins),
		log:  log.With("module", "httpapi"),
	}

	s.mountRoutes()
	return s
}

// Handler returns the mux wrapped as
// request id -> security headers -> logging -> CORS -> routes.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux

	h = s.withCORS(h)
	h = s.withLogging(h)
	h = withSecurityHeaders(h)
	h = withRequestID(h)

	return h
}
