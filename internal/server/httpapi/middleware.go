package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/abidm-bit/riceKrispies/internal/server/ratelimit"
	"github.com/google/uuid"
)

type middleware func(http.Handler) http.Handler

type ctxKey string

const (
	userIDKey    ctxKey = "user_id"
	requestIDKey ctxKey = "request_id"
)

func withUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// currentUserID returns the id placed by requireAuth, or 0.
func currentUserID(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

// RequestID returns the id assigned to the request, if any.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// clientID identifies the caller for throttling: the host part of RemoteAddr.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func extractBearer(h string) string {
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(common.BearerPrefix):])
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", RequestID(r.Context()),
		)
	})
}

// rateLimit counts the request against class for the calling client and
// answers 429 once the window is full. Decisions are mirrored to the stats
// store when one is configured.
func (s *Server) rateLimit(class ratelimit.Class) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientID(r)
			err := s.deps.Limiter.Check(client, class)

			if err == nil || errors.Is(err, common.ErrRateLimitExceeded) {
				s.recordDecision(r.Context(), client, class, err == nil)
			}
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) recordDecision(ctx context.Context, client string, class ratelimit.Class, allowed bool) {
	if s.deps.Stats == nil {
		return
	}
	ev := ratelimit.StatsEvent{Client: client, Class: class, Allowed: allowed, At: time.Now()}
	if err := s.deps.Stats.Record(ctx, ev); err != nil {
		s.log.Warn(ctx, "rate limit stats not recorded", "error", err)
	}
}

// requireAuth validates the bearer token and puts the user id into the
// request context. Missing or invalid tokens get 403 with no body.
func (s *Server) requireAuth() middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r.Header.Get(common.AuthorizationHeaderName))
			if raw == "" {
				s.writeError(w, r, common.ErrInvalidToken)
				return
			}

			id, err := s.deps.Gate.ExtractUserID(raw)
			if err != nil {
				s.writeError(w, r, common.ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), id)))
		})
	}
}
