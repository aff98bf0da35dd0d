package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/abidm-bit/riceKrispies/internal/common"
)

type errorMapping struct {
	err    error
	status int
	body   string
}

// errorTable is the only place service errors become responses. Anything not
// listed is a 500.
var errorTable = []errorMapping{
	{common.ErrorValidation, http.StatusBadRequest, "invalid registration"},
	{common.ErrorAlreadyExists, http.StatusConflict, "bad request"},
	{common.ErrorUnauthorized, http.StatusBadRequest, "wrong credentials"},
	{common.ErrRateLimitExceeded, http.StatusTooManyRequests, "rate limit exceeded"},
	{common.ErrInvalidToken, http.StatusForbidden, ""},
	{common.ErrNoAvailableKeys, http.StatusInternalServerError, "internal server error"},
}

var internalError = errorMapping{nil, http.StatusInternalServerError, "internal server error"}

func lookupError(err error) errorMapping {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			return m
		}
	}
	return internalError
}

// writeError answers with the mapped status and fixed body. Unmapped errors
// are logged since their text never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	m := lookupError(err)
	if m.err == nil || errors.Is(err, common.ErrorInternal) {
		s.log.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path, "request_id", RequestID(r.Context()))
	}
	writeText(w, m.status, m.body)
}

func writeText(w http.ResponseWriter, status int, body string) {
	if body == "" {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
