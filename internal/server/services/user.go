// Package services contains the server-side business logic: account
// registration and login (UserService) and key allocation (KeyService).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/abidm-bit/riceKrispies/internal/cryptox"
	"github.com/abidm-bit/riceKrispies/internal/server/auth"
	"github.com/abidm-bit/riceKrispies/internal/server/models"
	"github.com/abidm-bit/riceKrispies/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login hands back to the caller.
type LoginResult struct {
	UserID int64
	Token  string
}

// UserService registers accounts and exchanges credentials for tokens.
type UserService struct {
	repomanager repomanager.RepositoryManager
	hasher      cryptox.PasswordHasher
	gate        *auth.Gate
	policy      PasswordPolicy

	dummyOnce   sync.Once
	dummyDigest string
}

func NewUserService(m repomanager.RepositoryManager, hasher cryptox.PasswordHasher, gate *auth.Gate, policy PasswordPolicy) *UserService {
	return &UserService{
		repomanager: m,
		hasher:      hasher,
		gate:        gate,
		policy:      policy,
	}
}

// Register validates the credentials, hashes the password and stores a new
// user. A taken email yields common.ErrorAlreadyExists; the store decides
// this atomically.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil, common.ErrorValidation
	}
	if err := s.policy.Check(password); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	u, err := s.repomanager.Users().Create(ctx, &models.User{Email: email, PasswordDigest: digest})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("%w: create user: %v", common.ErrorInternal, err)
	}
	return u, nil
}

// Login verifies the password and issues a token. Unknown emails and wrong
// passwords both return common.ErrorUnauthorized after one hash comparison.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummy())
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	if !s.hasher.Verify(password, user.PasswordDigest) {
		return nil, common.ErrorUnauthorized
	}

	token, err := s.gate.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrorInternal, err)
	}

	return &LoginResult{UserID: user.ID, Token: token}, nil
}

// dummy returns a digest no real password matches, so that lookups of unknown
// emails cost the same as a wrong password.
func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("dummy-Password!")
		if err == nil {
			s.dummyDigest = d
		}
	})
	return s.dummyDigest
}
