// Package daemon assembles the wetkey server: the reference store backend,
// the key authority and the JSON-RPC endpoint that exposes both.
package daemon

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wetkeyorg/libwetkey-go/config"
	"github.com/wetkeyorg/libwetkey-go/ibe"
	"github.com/wetkeyorg/libwetkey-go/keyauth"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/network"
	"github.com/wetkeyorg/libwetkey-go/store"
)

// File names inside the daemon data directory.
const (
	MasterKeyFile = "master.key"
	SecretFile    = "jwt.secret"
	StateFile     = "state.db"
	ChunkDir      = "chunks"
)

// RPCPath is where the JSON-RPC handler is mounted.
const RPCPath = "/rpc"

const secretLen = 32

// Daemon owns the server-side components and the resources behind them.
type Daemon struct {
	Backend   *store.Backend
	Authority *keyauth.Authority
	Secret    []byte

	master     *ibe.MasterKey
	cfg        config.Config
	passphrase string
	log        logging.Logger
	closers    []io.Closer
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithPassphrase seals a newly created master key with passphrase and is
// required to open a sealed one.
func WithPassphrase(p string) Option {
	return func(d *Daemon) { d.passphrase = p }
}

// Open builds a Daemon from cfg, creating the master key and signing secret
// in cfg.DataDir on first start.
func Open(ctx context.Context, cfg config.Config, log logging.Logger, opts ...Option) (*Daemon, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("daemon: create data dir: %w", err)
	}

	d := &Daemon{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(d)
	}
	ok := false
	defer func() {
		if !ok {
			_ = d.Close()
		}
	}()

	var err error
	if d.master, err = LoadOrCreateMasterKey(filepath.Join(cfg.DataDir, MasterKeyFile), d.passphrase); err != nil {
		return nil, err
	}
	if d.Secret, err = LoadOrCreateSecret(filepath.Join(cfg.DataDir, SecretFile)); err != nil {
		return nil, err
	}

	chunks, backendOpts, err := d.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	backendOpts = append(backendOpts, store.WithLogger(log))
	if d.Backend, err = store.NewBackend(ctx, chunks, backendOpts...); err != nil {
		return nil, fmt.Errorf("daemon: open backend: %w", err)
	}
	d.Authority = keyauth.NewAuthority(d.master, d.Backend, keyauth.WithLogger(log))

	log.Info(ctx, "daemon ready", "backend", cfg.Backend, "datadir", cfg.DataDir)
	ok = true
	return d, nil
}

// openStorage selects the chunk store. Every backend except mem keeps file
// metadata in a bolt database next to the master key.
func (d *Daemon) openStorage(ctx context.Context) (store.ChunkStore, []store.BackendOption, error) {
	if d.cfg.Backend == config.BackendMemory {
		return store.NewMemChunkStore(), nil, nil
	}

	bolt, err := store.OpenBoltStore(filepath.Join(d.cfg.DataDir, StateFile))
	if err != nil {
		return nil, nil, fmt.Errorf("daemon: %w", err)
	}
	d.closers = append(d.closers, bolt)
	state := []store.BackendOption{store.WithStateStore(bolt)}

	switch d.cfg.Backend {
	case config.BackendBolt:
		return bolt, state, nil
	case config.BackendFS:
		fs, err := store.NewFSChunkStore(filepath.Join(d.cfg.DataDir, ChunkDir))
		if err != nil {
			return nil, nil, fmt.Errorf("daemon: %w", err)
		}
		return fs, state, nil
	case config.BackendS3:
		s3, err := store.NewS3ChunkStore(ctx, d.cfg.S3Bucket, d.cfg.S3Region, d.cfg.S3Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("daemon: %w", err)
		}
		return s3, state, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidBackend, d.cfg.Backend)
	}
}

// PublicKey returns the authority's master public key.
func (d *Daemon) PublicKey() *ibe.PublicKey {
	return d.master.PublicKey()
}

// Handler returns the HTTP routes served by the daemon.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(RPCPath, network.NewServer(d.Backend, d.Authority, d.Secret, network.WithServerLogger(d.log)))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		_, _ = io.WriteString(w, "ok\n")
	})
	return mux
}

// Serve listens on cfg.ListenAddr until ctx is cancelled, then shuts down
// gracefully.
func (d *Daemon) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", d.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("daemon: listen: %w", err)
	}
	return d.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (d *Daemon) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	d.log.Info(ctx, "listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("daemon: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("daemon: shutdown: %w", err)
	}
	d.log.Info(ctx, "stopped")
	return nil
}

// Close releases storage and wipes the master key from memory.
func (d *Daemon) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i].Close())
	}
	d.closers = nil
	if d.master != nil {
		d.master.Zeroize()
		d.master = nil
	}
	return errors.Join(errs...)
}

// LoadOrCreateMasterKey reads the master key at path or generates and
// writes a new one with mode 0600. A non-empty passphrase seals a new key;
// a sealed key cannot be read without it.
func LoadOrCreateMasterKey(path, passphrase string) (*ibe.MasterKey, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if isSealed(data) {
			if passphrase == "" {
				return nil, ErrSealed
			}
			if data, err = unseal(data, passphrase); err != nil {
				return nil, err
			}
		}
		mk, err := ibe.ParseMasterKey(data)
		if err != nil {
			return nil, fmt.Errorf("daemon: parse %s: %w", path, err)
		}
		return mk, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("daemon: read master key: %w", err)
	}

	mk, err := ibe.GenerateMasterKey(nil)
	if err != nil {
		return nil, fmt.Errorf("daemon: generate master key: %w", err)
	}
	raw, err := mk.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("daemon: encode master key: %w", err)
	}
	if passphrase != "" {
		if raw, err = seal(raw, passphrase); err != nil {
			return nil, err
		}
	}
	if err := writeSecretFile(path, raw); err != nil {
		return nil, err
	}
	return mk, nil
}

// LoadOrCreateSecret reads the hex token signing secret at path or creates it.
func LoadOrCreateSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		secret, err := hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil || len(secret) < secretLen {
			return nil, fmt.Errorf("daemon: %s is not a %d-byte hex secret", path, secretLen)
		}
		return secret, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("daemon: read secret: %w", err)
	}

	secret := make([]byte, secretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("daemon: generate secret: %w", err)
	}
	if err := writeSecretFile(path, []byte(hex.EncodeToString(secret)+"\n")); err != nil {
		return nil, err
	}
	return secret, nil
}

func writeSecretFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("daemon: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("daemon: create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("daemon: write %s: %w", path, err)
	}
	return f.Close()
}
