package network

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/store"
)

// DefaultMaxRequestBytes bounds a request body. A 2 MiB chunk is about
// 2.7 MiB once base64 encoded.
const DefaultMaxRequestBytes = 8 << 20

// Server serves the store and the key authority over JSON-RPC on POST.
// Requests without a token run as the anonymous principal.
type Server struct {
	backend   *store.Backend
	authority keyauth.KeyAuthority
	secret    []byte
	maxBody   int64
	log       logging.Logger
	handlers  map[string]handler
}

type call struct {
	caller  principal.Identity
	session *store.Session
	params  json.RawMessage
}

type handler func(ctx context.Context, c *call) (any, error)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) { s.log = l }
}

// WithMaxRequestBytes overrides DefaultMaxRequestBytes.
func WithMaxRequestBytes(n int64) ServerOption {
	return func(s *Server) { s.maxBody = n }
}

// NewServer returns a handler over backend and authority. Tokens are
// verified with secret.
func NewServer(backend *store.Backend, authority keyauth.KeyAuthority, secret []byte, opts ...ServerOption) *Server {
	s := &Server{
		backend:   backend,
		authority: authority,
		secret:    secret,
		maxBody:   DefaultMaxRequestBytes,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handlers = map[string]handler{
		MethodOpenAtomic:    s.openAtomic,
		MethodContinueChunk: s.continueChunk,
		MethodFetchChunk:    s.fetchChunk,
		MethodListFiles:     s.listFiles,
		MethodFileInfo:      s.fileInfo,
		MethodDeleteFile:    s.deleteFile,
		MethodRegisterFile:  s.registerFile,
		MethodShare:         s.share,
		MethodUnshare:       s.unshare,
		MethodSharedFiles:   s.sharedFiles,
		MethodListGrantees:  s.listGrantees,
		MethodCreateProfile: s.createProfile,
		MethodLookupUser:    s.lookupUser,
		MethodPublicKey:     s.publicKey,
		MethodDecryptionKey: s.decryptionKey,
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	log := s.log.With("request_id", r.Header.Get(RequestIDHeader))

	caller, err := s.authenticate(r)
	if err != nil {
		log.Warn(ctx, "rejected token", "err", err)
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var req rpcRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody)).Decode(&req); err != nil {
		writeResponse(w, rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: err.Error()}})
		return
	}
	resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}

	h, ok := s.handlers[req.Method]
	if !ok {
		resp.Error = encodeError(fmt.Errorf("%w: %q", ErrUnknownMethod, req.Method))
		writeResponse(w, resp)
		return
	}
	result, err := h(ctx, &call{caller: caller, session: s.backend.Session(caller), params: req.Params})
	if err != nil {
		log.Debug(ctx, "rpc failed", "method", req.Method, "caller", caller.String(), "err", err)
		resp.Error = encodeError(err)
		writeResponse(w, resp)
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		resp.Error = &rpcError{Code: codeInternal, Message: err.Error()}
		writeResponse(w, resp)
		return
	}
	resp.Result = raw
	writeResponse(w, resp)
}

func (s *Server) authenticate(r *http.Request) (principal.Identity, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return principal.Anonymous, nil
	}
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("%w: expected bearer token", ErrInvalidToken)
	}
	return ParseToken(strings.TrimSpace(token), s.secret)
}

func writeResponse(w http.ResponseWriter, resp rpcResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func decodeParams[T any](raw json.RawMessage) (T, error) {
	var v T
	if len(raw) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	return v, nil
}

func (s *Server) openAtomic(ctx context.Context, c *call) (any, error) {
	req, err := decodeParams[store.OpenRequest](c.params)
	if err != nil {
		return nil, err
	}
	id, err := c.session.OpenAtomic(ctx, req)
	if err != nil {
		return nil, err
	}
	return openResult{FileID: id}, nil
}

func (s *Server) continueChunk(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[chunkParams](c.params)
	if err != nil {
		return nil, err
	}
	return struct{}{}, c.session.ContinueChunk(ctx, p.FileID, p.Index, p.Content)
}

func (s *Server) fetchChunk(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[chunkParams](c.params)
	if err != nil {
		return nil, err
	}
	return c.session.FetchChunk(ctx, p.FileID, p.Index)
}

func (s *Server) listFiles(ctx context.Context, c *call) (any, error) {
	return c.session.ListFiles(ctx)
}

func (s *Server) fileInfo(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[fileParams](c.params)
	if err != nil {
		return nil, err
	}
	return c.session.FileInfo(ctx, p.FileID)
}

func (s *Server) deleteFile(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[fileParams](c.params)
	if err != nil {
		return nil, err
	}
	return struct{}{}, c.session.DeleteFile(ctx, p.FileID)
}

func (s *Server) registerFile(ctx context.Context, c *call) (any, error) {
	req, err := decodeParams[store.RegisterRequest](c.params)
	if err != nil {
		return nil, err
	}
	id, err := c.session.RegisterFile(ctx, req)
	if err != nil {
		return nil, err
	}
	return openResult{FileID: id}, nil
}

func (s *Server) share(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[shareParams](c.params)
	if err != nil {
		return nil, err
	}
	return struct{}{}, c.session.Share(ctx, p.FileID, p.Grantee)
}

func (s *Server) unshare(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[shareParams](c.params)
	if err != nil {
		return nil, err
	}
	return struct{}{}, c.session.Unshare(ctx, p.FileID, p.Grantee)
}

func (s *Server) sharedFiles(ctx context.Context, c *call) (any, error) {
	return c.session.GetSharedFiles(ctx)
}

func (s *Server) listGrantees(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[fileParams](c.params)
	if err != nil {
		return nil, err
	}
	return c.session.ListGrantees(ctx, p.FileID)
}

func (s *Server) createProfile(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[profileParams](c.params)
	if err != nil {
		return nil, err
	}
	return c.session.CreateProfile(ctx, p.Username, p.DisplayName)
}

func (s *Server) lookupUser(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[profileParams](c.params)
	if err != nil {
		return nil, err
	}
	return c.session.LookupUser(ctx, p.Username)
}

func (s *Server) publicKey(ctx context.Context, _ *call) (any, error) {
	pk, err := s.authority.GetPublicKey(ctx)
	if err != nil {
		return nil, err
	}
	return publicKeyResult{PublicKey: pk}, nil
}

// decryptionKey only serves keys for the token subject.
func (s *Server) decryptionKey(ctx context.Context, c *call) (any, error) {
	p, err := decodeParams[keyParams](c.params)
	if err != nil {
		return nil, err
	}
	if c.caller.IsAnonymous() {
		return nil, fmt.Errorf("%w: anonymous caller", keyauth.ErrAccessDenied)
	}
	if !p.Identity.Equal(c.caller) {
		return nil, fmt.Errorf("%w: identity does not match token subject", keyauth.ErrAccessDenied)
	}
	wrapped, err := s.authority.GetEncryptedDecryptionKey(ctx, p.TransportPublicKey, c.caller, p.FileID)
	if err != nil {
		return nil, err
	}
	return keyResult{WrappedKey: wrapped}, nil
}
