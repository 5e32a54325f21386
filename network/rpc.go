package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries a per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

// RPCClient is a JSON-RPC client for a wetkey server.
// It handles request serialization, bearer authentication, and response parsing.
// RemoteStore and RemoteAuthority are built on top of the Call method.
type RPCClient struct {
	url    string
	token  string
	client *http.Client
	nextID atomic.Int64
}

// rpcRequest represents a JSON-RPC request payload. Params is a single object.
type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC response payload.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents an error returned by the JSON-RPC server.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewRPCClient creates a new JSON-RPC client with the given configuration.
// The client sends a bearer token when Token is non-empty, and maintains
// a connection pool for efficient reuse.
func NewRPCClient(cfg ClientConfig) *RPCClient {
	return &RPCClient{
		url:   cfg.Endpoint,
		token: cfg.Token,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
	}
}

// URL returns the endpoint the client calls.
func (c *RPCClient) URL() string { return c.url }

// Call invokes a JSON-RPC method. It serializes params, sends the request
// with the bearer token, and deserializes the response into result.
//
// If params is nil, no params are sent. If result is nil, the response
// result is discarded.
//
// Call returns ErrConnectionFailed if the HTTP request fails, ErrAuthFailed
// on HTTP 401, and ErrInvalidResponse if the response cannot be decoded.
// RPC-level errors are mapped back to the sentinel the server reported, so
// errors.Is(err, store.ErrNotFound) behaves as it does in-process.
func (c *RPCClient) Call(ctx context.Context, method string, params, result any) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("network: marshal params: %w", err)
		}
		reqBody.Params = raw
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("network: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: %s", ErrAuthFailed, bytes.TrimSpace(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrInvalidResponse, err)
	}

	if rpcResp.ID != reqBody.ID {
		return fmt.Errorf("%w: response ID mismatch: expected %d, got %d",
			ErrInvalidResponse, reqBody.ID, rpcResp.ID)
	}

	if rpcResp.Error != nil {
		return decodeError(rpcResp.Error)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%w: unmarshal result: %w", ErrInvalidResponse, err)
		}
	}

	return nil
}
