// Copyright (c) 2026 The WetKey developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and saves the wetkey configuration file, a plain
// "key = value" text file at {datadir}/config.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wetkeyorg/libwetkey-go/chunk"
)

// Chunk backends selectable with the "backend" key.
const (
	BackendMemory = "mem"
	BackendFS     = "fs"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// Config holds client and daemon settings.
type Config struct {
	DataDir     string
	Endpoint    string
	Domain      string
	Resolver    string
	Token       string
	Identity    string
	ChunkSize   int
	MaxFileSize int64
	PubKeyTTL   time.Duration
	Parallelism int

	ListenAddr string
	Backend    string
	S3Bucket   string
	S3Region   string
	S3Prefix   string

	LogLevel string
	LogFile  string
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:     DefaultDataDir(),
		ChunkSize:   chunk.DefaultChunkSize,
		MaxFileSize: chunk.DefaultMaxFileSize,
		PubKeyTTL:   10 * time.Minute,
		Parallelism: 4,
		ListenAddr:  "127.0.0.1:8710",
		Backend:     BackendBolt,
		LogLevel:    "info",
	}
}

// DefaultDataDir returns ~/.wetkey, or .wetkey when the home directory
// cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wetkey"
	}
	return filepath.Join(home, ".wetkey")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), "config")
}

// LoadConfig reads path on top of DefaultConfig. Unknown keys are ignored
// so older binaries can read newer files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		if err := cfg.set(key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %w", ErrInvalidConfigLine, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return strings.ToLower(key), strings.TrimSpace(value), nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case "datadir":
		c.DataDir = value
	case "endpoint":
		c.Endpoint = value
	case "domain":
		c.Domain = value
	case "resolver":
		c.Resolver = value
	case "token":
		c.Token = value
	case "identity":
		c.Identity = value
	case "chunksize":
		c.ChunkSize, err = parseSize(value)
	case "maxfilesize":
		var n int
		n, err = parseSize(value)
		c.MaxFileSize = int64(n)
	case "pubkeyttl":
		c.PubKeyTTL, err = time.ParseDuration(value)
	case "parallelism":
		c.Parallelism, err = strconv.Atoi(value)
	case "listen":
		c.ListenAddr = value
	case "backend":
		c.Backend = value
	case "s3bucket":
		c.S3Bucket = value
	case "s3region":
		c.S3Region = value
	case "s3prefix":
		c.S3Prefix = value
	case "loglevel":
		c.LogLevel = value
	case "logfile":
		c.LogFile = value
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// parseSize accepts a byte count with an optional KiB, MiB or GiB suffix.
func parseSize(s string) (int, error) {
	mult := 1
	for _, u := range []struct {
		suffix string
		mult   int
	}{{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30}} {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			mult = u.mult
			break
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n * mult, nil
}

// SaveConfig writes cfg to path with mode 0600, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# WetKey Configuration\n\n")
	write := func(key, value string) { fmt.Fprintf(&b, "%s = %s\n", key, value) }
	write("datadir", cfg.DataDir)
	write("endpoint", cfg.Endpoint)
	write("domain", cfg.Domain)
	write("resolver", cfg.Resolver)
	write("token", cfg.Token)
	write("identity", cfg.Identity)
	write("chunksize", strconv.Itoa(cfg.ChunkSize))
	write("maxfilesize", strconv.FormatInt(cfg.MaxFileSize, 10))
	write("pubkeyttl", cfg.PubKeyTTL.String())
	write("parallelism", strconv.Itoa(cfg.Parallelism))
	b.WriteString("\n# daemon\n")
	write("listen", cfg.ListenAddr)
	write("backend", cfg.Backend)
	write("s3bucket", cfg.S3Bucket)
	write("s3region", cfg.S3Region)
	write("s3prefix", cfg.S3Prefix)
	b.WriteString("\n# logging\n")
	write("loglevel", cfg.LogLevel)
	write("logfile", cfg.LogFile)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
