package common

const (
	// AuthorizationHeaderName carries the bearer token on protected calls.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "

	// RequestIDHeaderName echoes the id assigned to every HTTP request.
	RequestIDHeaderName = "X-Request-ID"
)
