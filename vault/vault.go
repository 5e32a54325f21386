// Package vault is the client facade over a wetkey server: it uploads,
// downloads and shares files for one identity and keeps the local file
// registry in the data directory.
package vault

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/wetkeyorg/libwetkey-go/config"
	"github.com/wetkeyorg/libwetkey-go/discovery"
	"github.com/wetkeyorg/libwetkey-go/idcrypto"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/network"
	"github.com/wetkeyorg/libwetkey-go/principal"
	"github.com/wetkeyorg/libwetkey-go/registry"
	"github.com/wetkeyorg/libwetkey-go/sharing"
	"github.com/wetkeyorg/libwetkey-go/store"
	"github.com/wetkeyorg/libwetkey-go/transfer"
)

// registryFile is the registry snapshot inside the data directory.
const registryFile = "files.json"

// Store is everything a Vault needs from the file service.
// *network.RemoteStore and *store.Session satisfy it.
type Store interface {
	store.FileStore
	store.SharingStore
	store.UserDirectory
}

// Vault is the client layer. The CLI and embedding applications call Vault
// methods to move files and manage grants.
type Vault struct {
	Identity principal.Identity
	Store    Store
	Crypto   *idcrypto.Service
	Files    *registry.Registry
	Sharing  *sharing.Controller
	DataDir  string // empty keeps the registry in memory only

	transfer    transfer.Config
	parallelism int
	cryptoOpts  []idcrypto.Option
	log         logging.Logger
}

// Option configures a Vault.
type Option func(*Vault)

// WithTransferConfig sets the chunk size and file size limit.
func WithTransferConfig(cfg transfer.Config) Option {
	return func(v *Vault) { v.transfer = cfg }
}

// WithParallelism bounds the number of concurrent uploads in UploadBatch.
func WithParallelism(n int) Option {
	return func(v *Vault) { v.parallelism = n }
}

// WithDataDir persists the file registry under dir.
func WithDataDir(dir string) Option {
	return func(v *Vault) { v.DataDir = dir }
}

// WithCryptoOptions passes options to the identity crypto service.
func WithCryptoOptions(opts ...idcrypto.Option) Option {
	return func(v *Vault) { v.cryptoOpts = append(v.cryptoOpts, opts...) }
}

// WithLogger sets the logger shared by the vault and its components.
func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// New creates a Vault acting as identity against st, with keys from authority.
func New(identity principal.Identity, st Store, authority keyauth.KeyAuthority, opts ...Option) (*Vault, error) {
	v := &Vault{
		Identity:    identity,
		Store:       st,
		transfer:    transfer.DefaultConfig(),
		parallelism: 1,
		log:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.parallelism < 1 {
		v.parallelism = 1
	}

	v.Crypto = idcrypto.NewService(authority, append([]idcrypto.Option{idcrypto.WithLogger(v.log)}, v.cryptoOpts...)...)
	v.Files = registry.New(st)
	v.Sharing = sharing.NewController(st, sharing.WithLogger(v.log))

	if v.DataDir != "" {
		if err := v.Files.Load(v.registryPath()); err != nil {
			return nil, fmt.Errorf("vault: load registry: %w", err)
		}
	}
	return v, nil
}

// Open connects to the server described by cfg. The endpoint comes from
// cfg.Endpoint or, failing that, from SRV discovery under cfg.Domain. When a
// domain is set the authority key published in its TXT record is pinned.
func Open(cfg config.Config, log logging.Logger) (*Vault, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	cc, err := network.ResolveConfig(&network.ClientConfig{
		Endpoint: cfg.Endpoint,
		Token:    cfg.Token,
		Domain:   cfg.Domain,
	}, nil)
	if err != nil {
		return nil, err
	}

	identity, err := resolveIdentity(cfg)
	if err != nil {
		return nil, err
	}

	var resolver discovery.DNSResolver
	if cfg.Resolver != "" {
		resolver = discovery.NewDNSSECResolver(cfg.Resolver)
	}

	cryptoOpts := []idcrypto.Option{idcrypto.WithPublicKeyTTL(cfg.PubKeyTTL)}
	if cc.Domain != "" {
		if cc.Endpoint == "" {
			if cc.Endpoint, err = discovery.ResolveEndpoint(cc.Domain, resolver); err != nil {
				return nil, fmt.Errorf("vault: discover endpoint: %w", err)
			}
		}
		pk, err := discovery.ResolveAuthorityKey(cc.Domain, resolver)
		if err != nil {
			return nil, fmt.Errorf("vault: discover authority key: %w", err)
		}
		cryptoOpts = append(cryptoOpts, idcrypto.WithPinnedPublicKey(pk))
	}

	rpc := network.NewRPCClient(*cc)
	log.Debug(context.Background(), "vault opened", "endpoint", rpc.URL(), "identity", identity.String())

	return New(identity, network.NewRemoteStore(rpc), network.NewRemoteAuthority(rpc),
		WithTransferConfig(transfer.Config{ChunkSize: cfg.ChunkSize, MaxFileSize: cfg.MaxFileSize}),
		WithParallelism(cfg.Parallelism),
		WithDataDir(cfg.DataDir),
		WithCryptoOptions(cryptoOpts...),
		WithLogger(log),
	)
}

// resolveIdentity prefers the configured identity over the token subject.
func resolveIdentity(cfg config.Config) (principal.Identity, error) {
	if cfg.Identity != "" {
		id, err := principal.Parse(cfg.Identity)
		if err != nil {
			return nil, fmt.Errorf("vault: parse identity: %w", err)
		}
		return id, nil
	}
	if cfg.Token == "" {
		return nil, ErrNoIdentity
	}
	return network.TokenSubject(cfg.Token)
}

// Close saves the registry.
func (v *Vault) Close() error {
	if v.DataDir == "" {
		return nil
	}
	if err := v.Files.Save(v.registryPath()); err != nil {
		return fmt.Errorf("vault: save registry: %w", err)
	}
	return nil
}

func (v *Vault) registryPath() string {
	return filepath.Join(v.DataDir, registryFile)
}

// persist saves the registry after a mutation. The registry mirrors the
// store, so a failed save only costs a refresh on the next run.
func (v *Vault) persist(ctx context.Context) {
	if v.DataDir == "" {
		return
	}
	if err := v.Files.Save(v.registryPath()); err != nil {
		v.log.Warn(ctx, "registry not saved", "error", err)
	}
}

func (v *Vault) session() *transfer.Session {
	return transfer.NewSession(v.Store, v.Crypto, transfer.WithConfig(v.transfer), transfer.WithLogger(v.log))
}
