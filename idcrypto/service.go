// Package idcrypto encrypts payloads to an identity and decrypts them with
// a key obtained from the key authority through a one-time transport key.
package idcrypto

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/transport"
)

// DefaultPublicKeyTTL is how long a fetched master public key is reused.
const DefaultPublicKeyTTL = 10 * time.Minute

// Service is safe for concurrent use. It holds no per-file state; the only
// cache is the master public key.
type Service struct {
	authority keyauth.KeyAuthority
	ttl       time.Duration
	pinned    *ibe.PublicKey
	rand      io.Reader
	now       func() time.Time
	log       logging.Logger

	mu        sync.Mutex
	cached    *ibe.PublicKey
	fetchedAt time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublicKeyTTL sets how long the master public key is cached.
// Zero fetches it on every Encrypt.
func WithPublicKeyTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

// WithPinnedPublicKey rejects any authority key that differs from pk.
func WithPinnedPublicKey(pk *ibe.PublicKey) Option {
	return func(s *Service) { s.pinned = pk }
}

// WithRand sets the randomness source for encryption seeds.
func WithRand(r io.Reader) Option {
	return func(s *Service) { s.rand = r }
}

// WithClock overrides time.Now for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService returns a Service backed by authority.
func NewService(authority keyauth.KeyAuthority, opts ...Option) *Service {
	s := &Service{
		authority: authority,
		ttl:       DefaultPublicKeyTTL,
		rand:      rand.Reader,
		now:       time.Now,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encrypt encrypts plaintext so that only a key derived for identity opens it.
func (s *Service) Encrypt(ctx context.Context, plaintext []byte, identity principal.Identity) ([]byte, error) {
	if identity.IsAnonymous() {
		return nil, fmt.Errorf("%w: anonymous identity", ErrKeyUnavailable)
	}
	pk, err := s.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	ct, err := ibe.EncryptRandom(pk, identity, plaintext, s.rand)
	if err != nil {
		return nil, fmt.Errorf("idcrypto: encrypt: %w", err)
	}
	return ct.Serialize()
}

// Decrypt recovers the plaintext of payload.
//
// identity is the caller. fileID, when set, asks the authority for the
// file owner's key. A fresh transport key pair is generated per call and
// wiped together with the identity key on every return path.
func (s *Service) Decrypt(ctx context.Context, payload []byte, identity principal.Identity, fileID *uint64) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrEmptyCiphertext
	}
	ct, err := ibe.Deserialize(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	kp, err := transport.NewKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
	defer kp.Zeroize()

	wrapped, err := s.authority.GetEncryptedDecryptionKey(ctx, kp.PublicKey(), identity, fileID)
	if err != nil {
		return nil, classifyAuthorityError(err)
	}

	recipient := principal.Identity(ct.Identity())
	raw, err := kp.Unwrap(wrapped, recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap: %w", ErrDecryptionFailed, err)
	}
	defer transport.Zero(raw)

	dk, err := ibe.ParseIdentityKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	defer dk.Zeroize()

	pk, err := s.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	if err := ibe.VerifyIdentityKey(pk, recipient, dk); err != nil {
		s.log.Warn(ctx, "issued key failed verification", "recipient", recipient.String())
		// The authority may have rotated its master key since it was cached.
		s.invalidate()
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	plaintext, err := ct.Decrypt(dk)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

// publicKey returns the cached master public key, refreshing it after the TTL.
func (s *Service) publicKey(ctx context.Context) (*ibe.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil && s.ttl > 0 && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	raw, err := s.authority.GetPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
	pk, err := ibe.ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
	if s.pinned != nil && !s.pinned.Equal(pk) {
		return nil, fmt.Errorf("%w: authority key does not match pinned key", ErrKeyUnavailable)
	}
	s.cached = pk
	s.fetchedAt = s.now()
	return pk, nil
}

func (s *Service) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

func classifyAuthorityError(err error) error {
	switch {
	case errors.Is(err, keyauth.ErrAccessDenied):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrKeyUnavailable, err)
	}
}
