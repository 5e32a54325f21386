package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the server.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the bearer token was rejected.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrInvalidResponse indicates the server returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrInvalidToken indicates a token that does not parse, is expired or has no subject.
	ErrInvalidToken = errors.New("network: invalid token")

	// ErrUnknownMethod indicates the server does not implement the requested method.
	ErrUnknownMethod = errors.New("network: unknown method")

	// ErrInvalidParams indicates request params that do not decode.
	ErrInvalidParams = errors.New("network: invalid params")

	// ErrNoEndpoint indicates no endpoint was configured.
	ErrNoEndpoint = errors.New("network: no endpoint configured")
)
