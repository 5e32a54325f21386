package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wetkeyorg/libwetkey-go/config"
	"github.com/wetkeyorg/libwetkey-go/discovery"
	"github.com/wetkeyorg/libwetkey-go/logging"
	"github.com/wetkeyorg/libwetkey-go/network"
	"github.com/wetkeyorg/libwetkey-go/principal"
)

// Environment variables read by the daemon, usually from a .env file.
const (
	EnvDataDir  = "WETKEYD_DATADIR"
	EnvListen   = "WETKEYD_LISTEN"
	EnvBackend  = "WETKEYD_BACKEND"
	EnvS3Bucket = "WETKEYD_S3_BUCKET"
	EnvS3Region = "AWS_REGION"

	// EnvPassphrase seals the master key at rest.
	EnvPassphrase = "WETKEYD_PASSPHRASE"
)

type flags struct {
	dataDir  string
	listen   string
	backend  string
	logLevel string
}

// NewCommand builds the wetkeyd command tree.
func NewCommand() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "wetkeyd",
		Short:         "Serve the wetkey store and key authority",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional.
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			log, closer, err := logging.Open(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			d, err := Open(cmd.Context(), cfg, log, WithPassphrase(os.Getenv(EnvPassphrase)))
			if err != nil {
				return err
			}
			defer func() { _ = d.Close() }()
			return d.Serve(cmd.Context())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.dataDir, "datadir", "", "data directory (default ~/.wetkey/server)")
	pf.StringVar(&f.listen, "listen", "", "listen address")
	pf.StringVar(&f.backend, "backend", "", "chunk storage: mem, fs, bolt or s3")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(f.tokenCmd(), f.pubkeyCmd())
	return root
}

// config layers flags over the environment over the config file.
func (f *flags) config() (config.Config, error) {
	dir := firstSet(f.dataDir, os.Getenv(EnvDataDir), filepath.Join(config.DefaultDataDir(), "server"))
	cfg, err := config.LoadConfig(config.ConfigPath(dir))
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.DefaultConfig()
	case err != nil:
		return config.Config{}, err
	}
	cfg.DataDir = dir
	cfg.ListenAddr = firstSet(f.listen, os.Getenv(EnvListen), cfg.ListenAddr)
	cfg.Backend = firstSet(f.backend, os.Getenv(EnvBackend), cfg.Backend)
	cfg.S3Bucket = firstSet(os.Getenv(EnvS3Bucket), cfg.S3Bucket)
	cfg.S3Region = firstSet(os.Getenv(EnvS3Region), cfg.S3Region)
	cfg.LogLevel = firstSet(f.logLevel, cfg.LogLevel)
	return cfg, config.ValidateConfig(cfg)
}

func (f *flags) tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <identity>",
		Short: "Issue a bearer token for an identity (0x-prefixed hex or text)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			id, err := principal.Parse(args[0])
			if err != nil {
				return err
			}
			secret, err := LoadOrCreateSecret(filepath.Join(cfg.DataDir, SecretFile))
			if err != nil {
				return err
			}
			tok, err := network.IssueToken(id, secret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", network.DefaultTokenTTL, "token lifetime")
	return cmd
}

func (f *flags) pubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey",
		Short: "Print the TXT record that publishes the authority key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config()
			if err != nil {
				return err
			}
			mk, err := LoadOrCreateMasterKey(filepath.Join(cfg.DataDir, MasterKeyFile), os.Getenv(EnvPassphrase))
			if err != nil {
				return err
			}
			defer mk.Zeroize()
			fmt.Fprintln(cmd.OutOrStdout(), discovery.TXTRecord(mk.PublicKey()))
			return nil
		},
	}
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
