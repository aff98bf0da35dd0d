package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/abidm-bit/riceKrispies/internal/common"
)

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID   int64  `json:"userId"`
	JWTToken string `json:"jwtToken"`
}

type FetchKeyResponse struct {
	Key    string `json:"key"`
	UserID int64  `json:"userId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	return req, true
}

// POST /users/register/
// Body: {"email": "...", "password": "..."}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		s.writeError(w, r, common.ErrorValidation)
		return
	}

	if _, err := s.deps.Users.Register(r.Context(), req.Email, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeText(w, http.StatusCreated, "Account created")
}

// POST /users/login/
// Body: {"email": "...", "password": "..."}
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		s.writeError(w, r, common.ErrorUnauthorized)
		return
	}

	res, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{UserID: res.UserID, JWTToken: res.Token})
}

// POST /fetchKeys/
// The user comes from the bearer token; the body is ignored.
func (s *Server) handleFetchKeys(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())

	k, err := s.deps.Keys.Allocate(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, FetchKeyResponse{Key: k.Token, UserID: userID})
}
