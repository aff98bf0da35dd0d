// Package auth issues and validates the HS256 bearer tokens that protect key
// allocation.
package auth

import (
	"errors"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is how long an issued token is accepted. JWT times have
// one-second resolution and iat is rounded down, so a token issued at a
// fractional second expires up to one second before issue time plus
// TokenValidity, never after it.
const TokenValidity = 24 * time.Hour

// Claims carries the identity of the token holder next to the registered
// iat/exp claims.
type Claims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Gate signs and verifies tokens with one secret loaded at startup.
type Gate struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Gate)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

func NewGate(secret []byte, opts ...Option) (*Gate, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	g := &Gate{secret: secret, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Issue returns a signed token for the user. The issue time is the current
// clock truncated to whole seconds, and the token expires TokenValidity later.
func (g *Gate) Issue(userID int64, email string) (string, error) {
	iat := g.now().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(TokenValidity)),
		},
	})

	return token.SignedString(g.secret)
}

// Validate checks signature, algorithm and expiry. Every failure is reported
// as common.ErrInvalidToken.
func (g *Gate) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return nil, common.ErrInvalidToken
	}
	if claims.UserID <= 0 || claims.Email == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

func (g *Gate) ExtractUserID(tokenString string) (int64, error) {
	c, err := g.Validate(tokenString)
	if err != nil {
		return 0, err
	}
	return c.UserID, nil
}

func (g *Gate) ExtractEmail(tokenString string) (string, error) {
	c, err := g.Validate(tokenString)
	if err != nil {
		return "", err
	}
	return c.Email, nil
}
