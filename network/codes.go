package network

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/store"
)

// JSON-RPC error codes. Application codes are positive and each names one
// sentinel error.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternal       = -32603

	codeNotAuthenticated    = 1
	codeNotFound            = 2
	codeNotUploaded         = 3
	codePermissionDenied    = 4
	codeUserNotFound        = 5
	codeInvalidInput        = 6
	codeSelfShare           = 7
	codeOutOfOrder          = 8
	codeAlreadyUploaded     = 9
	codeUsernameTaken       = 10
	codeAccessDenied        = 11
	codeAuthorityDown       = 12
	codeInvalidTransportKey = 13
)

// sentinels maps application codes to the errors they stand for. Order
// matters in encodeError: authority errors wrap store causes, and
// ErrSelfShare wraps ErrInvalidInput, so those are listed first.
var sentinels = []struct {
	code int
	err  error
}{
	{codeAccessDenied, keyauth.ErrAccessDenied},
	{codeInvalidTransportKey, keyauth.ErrInvalidTransportKey},
	{codeAuthorityDown, keyauth.ErrUnavailable},
	{codeSelfShare, store.ErrSelfShare},
	{codeNotAuthenticated, store.ErrNotAuthenticated},
	{codeUserNotFound, store.ErrUserNotFound},
	{codeNotUploaded, store.ErrNotUploaded},
	{codeNotFound, store.ErrNotFound},
	{codePermissionDenied, store.ErrPermissionDenied},
	{codeOutOfOrder, store.ErrOutOfOrder},
	{codeAlreadyUploaded, store.ErrAlreadyUploaded},
	{codeUsernameTaken, store.ErrUsernameTaken},
	{codeInvalidInput, store.ErrInvalidInput},
	{codeMethodNotFound, ErrUnknownMethod},
	{codeInvalidParams, ErrInvalidParams},
}

// encodeError returns the wire form of err. The sentinel text is stripped
// from the message since the code already carries it.
func encodeError(err error) *rpcError {
	msg := err.Error()
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			msg = strings.TrimPrefix(strings.TrimPrefix(msg, s.err.Error()), ": ")
			return &rpcError{Code: s.code, Message: msg}
		}
	}
	return &rpcError{Code: codeInternal, Message: msg}
}

// decodeError turns a wire error back into a wrapped sentinel.
func decodeError(e *rpcError) error {
	for _, s := range sentinels {
		if s.code != e.Code {
			continue
		}
		if e.Message == "" {
			return s.err
		}
		return fmt.Errorf("%w: %s", s.err, e.Message)
	}
	return fmt.Errorf("network: rpc error %d: %s", e.Code, e.Message)
}
