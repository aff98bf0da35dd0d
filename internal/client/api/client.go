// Package api is an HTTP client for the key server. Error responses are
// mapped back onto the sentinels in internal/common.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abidm-bit/riceKrispies/internal/common"
)

// ErrUnavailable is returned when the server cannot be reached.
var ErrUnavailable = errors.New("server unavailable")

const (
	pathRegister  = "/users/register/"
	pathLogin     = "/users/login/"
	pathFetchKeys = "/fetchKeys/"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	UserID int64  `json:"userId"`
	Token  string `json:"jwtToken"`
}

type Key struct {
	Key    string `json:"key"`
	UserID int64  `json:"userId"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	resp, err := c.post(ctx, pathRegister, "", credentials{Email: email, Password: password})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return responseError(resp, common.ErrorValidation)
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	resp, err := c.post(ctx, pathLogin, "", credentials{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, common.ErrorUnauthorized)
	}

	var res LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &res, nil
}

// FetchKey claims one key for the holder of token.
func (c *Client) FetchKey(ctx context.Context, token string) (*Key, error) {
	resp, err := c.post(ctx, pathFetchKeys, token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp, common.ErrorValidation)
	}

	var k Key
	if err := json.NewDecoder(resp.Body).Decode(&k); err != nil {
		return nil, fmt.Errorf("decode key response: %w", err)
	}
	return &k, nil
}

func (c *Client) post(ctx context.Context, path, token string, body any) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// responseError maps a non-success status to a sentinel. A 400 means
// different things per endpoint, so the caller supplies badRequest.
func responseError(resp *http.Response, badRequest error) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	var sentinel error
	switch resp.StatusCode {
	case http.StatusBadRequest:
		sentinel = badRequest
	case http.StatusForbidden:
		sentinel = common.ErrInvalidToken
	case http.StatusConflict:
		sentinel = common.ErrorAlreadyExists
	case http.StatusTooManyRequests:
		sentinel = common.ErrRateLimitExceeded
	default:
		sentinel = common.ErrorInternal
	}

	if len(msg) == 0 {
		return fmt.Errorf("%w (status %d)", sentinel, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
