package httpapi

import (
	"net/http"
	"strings"

	"github.com/abidm-bit/riceKrispies/internal/server/ratelimit"
)

const (
	PathRegister  = "/users/register/"
	PathLogin     = "/users/login/"
	PathFetchKeys = "/fetchKeys/"
)

func (s *Server) mountRoutes() {
	s.handle(http.MethodPost, PathRegister, s.handleRegister,
		s.rateLimit(ratelimit.ClassRegistration))

	s.handle(http.MethodPost, PathLogin, s.handleLogin,
		s.rateLimit(ratelimit.ClassLogin))

	// throttle before authenticating
	s.handle(http.MethodPost, PathFetchKeys, s.handleFetchKeys,
		s.rateLimit(ratelimit.ClassFetchKeys), s.requireAuth())

	// everything else is denied
	s.mux.HandleFunc("/", deny)
}

func deny(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusForbidden)
}

// handle attaches a method-guarded exact-path route with optional
// middlewares, applied in the given order. The slashless spelling is denied
// explicitly so the mux does not redirect it.
func (s *Server) handle(method, path string, h http.HandlerFunc, mws ...middleware) {
	s.mux.HandleFunc(strings.TrimSuffix(path, "/"), deny)

	var handler http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}

	s.mux.HandleFunc(path+"{$}", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeText(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
			return
		}
		handler.ServeHTTP(w, r)
	})
}
