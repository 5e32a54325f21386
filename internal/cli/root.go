// Package cli implements the wetkey command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wetkeyorg/libwetkey-go/config"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/network"
	"github.com/wetkeyorg/libwetkey-go/vault"
)

// app carries the global flags and the lazily opened vault.
type app struct {
	dataDir  string
	endpoint string
	token    string
	domain   string
	identity string
	resolver string
	logLevel string

	// getenv is os.Getenv outside tests.
	getenv func(string) string

	v      *vault.Vault
	closer io.Closer
}

// Execute runs the CLI with os.Args. Cancelling ctx stops a transfer
// between chunks.
func Execute(ctx context.Context) error {
	root, a := newRoot(os.Getenv)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close())
}

// newRoot builds the command tree.
func newRoot(getenv func(string) string) (*cobra.Command, *app) {
	a := &app{getenv: getenv}
	root := &cobra.Command{
		Use:           "wetkey",
		Short:         "Encrypted chunked file transfer client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.dataDir, "datadir", config.DefaultDataDir(), "data directory")
	pf.StringVar(&a.endpoint, "endpoint", "", "server JSON-RPC URL (env "+network.EnvEndpoint+")")
	pf.StringVar(&a.token, "token", "", "bearer token (env "+network.EnvToken+")")
	pf.StringVar(&a.domain, "domain", "", "discover the server under this domain (env "+network.EnvDomain+")")
	pf.StringVar(&a.identity, "identity", "", "identity to act as (default: token subject)")
	pf.StringVar(&a.resolver, "resolver", "", "DNSSEC-validating resolver host:port for discovery")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		a.initCmd(),
		a.uploadCmd(),
		a.downloadCmd(),
		a.listCmd(),
		a.removeCmd(),
		a.registerCmd(),
		a.shareCmd(),
		a.unshareCmd(),
		a.granteesCmd(),
		a.sharedCmd(),
		a.profileCmd(),
	)
	return root, a
}

// loadConfig reads the config file and layers env and flags over it.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(config.ConfigPath(a.dataDir))
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.DefaultConfig()
	case err != nil:
		return config.Config{}, err
	}
	cfg.DataDir = a.dataDir

	// The config file sits below the environment.
	env := map[string]string{
		network.EnvEndpoint: firstNonEmpty(a.getenv(network.EnvEndpoint), cfg.Endpoint),
		network.EnvToken:    firstNonEmpty(a.getenv(network.EnvToken), cfg.Token),
		network.EnvDomain:   firstNonEmpty(a.getenv(network.EnvDomain), cfg.Domain),
	}
	flags := network.ClientConfig{Endpoint: a.endpoint, Token: a.token, Domain: a.domain}
	cc, err := network.ResolveConfig(&flags, env)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Endpoint, cfg.Token, cfg.Domain = cc.Endpoint, cc.Token, cc.Domain

	if a.identity != "" {
		cfg.Identity = a.identity
	}
	if a.resolver != "" {
		cfg.Resolver = a.resolver
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	return cfg, nil
}

// vault opens the vault on first use.
func (a *app) vault() (*vault.Vault, error) {
	if a.v != nil {
		return a.v, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	log, closer, err := logging.Open(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	v, err := vault.Open(cfg, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	a.v, a.closer = v, closer
	return v, nil
}

func (a *app) close() error {
	if a.v == nil {
		return nil
	}
	err := a.v.Close()
	if cerr := a.closer.Close(); err == nil {
		err = cerr
	}
	a.v, a.closer = nil, nil
	return err
}

func parseFileID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid file id %q", s)
	}
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
