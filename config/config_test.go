// Copyright (c) 2026 The WetKey developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"ListenAddr", cfg.ListenAddr, "127.0.0.1:8710"},
		{"Backend", cfg.Backend, BackendBolt},
		{"ChunkSize", cfg.ChunkSize, 2 << 20},
		{"MaxFileSize", cfg.MaxFileSize, int64(100 << 20)},
		{"PubKeyTTL", cfg.PubKeyTTL, 10 * time.Minute},
		{"Parallelism", cfg.Parallelism, 4},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	// DataDir depends on the home directory.
	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:     "/tmp/test-wetkey",
		Endpoint:    "https://keys.example.com/rpc",
		Domain:      "example.com",
		Resolver:    "1.1.1.1:53",
		Token:       "eyJhbGciOi.payload.sig",
		Identity:    "alice",
		ChunkSize:   1 << 20,
		MaxFileSize: 50 << 20,
		PubKeyTTL:   time.Minute,
		Parallelism: 8,
		ListenAddr:  ":9000",
		Backend:     BackendS3,
		S3Bucket:    "chunks",
		S3Region:    "eu-west-1",
		S3Prefix:    "prod/",
		LogLevel:    "debug",
		LogFile:     "/tmp/wetkey.log",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"DataDir", loaded.DataDir, original.DataDir},
		{"Endpoint", loaded.Endpoint, original.Endpoint},
		{"Domain", loaded.Domain, original.Domain},
		{"Resolver", loaded.Resolver, original.Resolver},
		{"Token", loaded.Token, original.Token},
		{"Identity", loaded.Identity, original.Identity},
		{"ChunkSize", loaded.ChunkSize, original.ChunkSize},
		{"MaxFileSize", loaded.MaxFileSize, original.MaxFileSize},
		{"PubKeyTTL", loaded.PubKeyTTL, original.PubKeyTTL},
		{"Parallelism", loaded.Parallelism, original.Parallelism},
		{"ListenAddr", loaded.ListenAddr, original.ListenAddr},
		{"Backend", loaded.Backend, original.Backend},
		{"S3Bucket", loaded.S3Bucket, original.S3Bucket},
		{"S3Region", loaded.S3Region, original.S3Region},
		{"S3Prefix", loaded.S3Prefix, original.S3Prefix},
		{"LogLevel", loaded.LogLevel, original.LogLevel},
		{"LogFile", loaded.LogFile, original.LogFile},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestSaveConfigMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes not reliable on Windows")
	}
	path := filepath.Join(t.TempDir(), "config")
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600 since the file holds the token", info.Mode().Perm())
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "this-is-not-key-value\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("LoadConfig bad line: got %v, want ErrInvalidConfigLine", err)
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# This is a comment
endpoint = https://keys.example.com/rpc

# Another comment
loglevel = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Endpoint != "https://keys.example.com/rpc" {
		t.Errorf("Endpoint = %q, want %q", cfg.Endpoint, "https://keys.example.com/rpc")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.ListenAddr != "127.0.0.1:8710" {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, "127.0.0.1:8710")
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "futurekey = futurevalue\ndomain = example.com\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.Domain != "example.com" {
		t.Errorf("Domain = %q, want %q", cfg.Domain, "example.com")
	}
}

func TestLoadConfigSizesAndDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	content := "chunksize = 512 KiB\nmaxfilesize = 10MiB\npubkeyttl = 90s\nparallelism = 2\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ChunkSize != 512<<10 {
		t.Errorf("ChunkSize = %d, want %d", cfg.ChunkSize, 512<<10)
	}
	if cfg.MaxFileSize != 10<<20 {
		t.Errorf("MaxFileSize = %d, want %d", cfg.MaxFileSize, 10<<20)
	}
	if cfg.PubKeyTTL != 90*time.Second {
		t.Errorf("PubKeyTTL = %v, want 90s", cfg.PubKeyTTL)
	}
	if cfg.Parallelism != 2 {
		t.Errorf("Parallelism = %d, want 2", cfg.Parallelism)
	}
}

func TestLoadConfigBadNumber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("chunksize = lots\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadConfig(path)
	if !errors.Is(err, ErrInvalidConfigLine) {
		t.Errorf("LoadConfig bad number: got %v, want ErrInvalidConfigLine", err)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_endpoint",
			modify:  func(c *Config) { c.Endpoint = "keys.example.com" },
			wantErr: ErrInvalidEndpoint,
		},
		{
			name:    "zero_chunksize",
			modify:  func(c *Config) { c.ChunkSize = 0 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "chunk_above_limit",
			modify:  func(c *Config) { c.ChunkSize, c.MaxFileSize = 8<<20, 1<<20 },
			wantErr: ErrInvalidChunkSize,
		},
		{
			name:    "zero_parallelism",
			modify:  func(c *Config) { c.Parallelism = 0 },
			wantErr: ErrInvalidParallelism,
		},
		{
			name:    "bad_backend",
			modify:  func(c *Config) { c.Backend = "tape" },
			wantErr: ErrInvalidBackend,
		},
		{
			name:    "s3_without_bucket",
			modify:  func(c *Config) { c.Backend = BackendS3 },
			wantErr: ErrMissingBucket,
		},
		{
			name:    "bad_listen_addr",
			modify:  func(c *Config) { c.ListenAddr = "not-a-valid-addr" },
			wantErr: ErrInvalidListenAddr,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidBackends(t *testing.T) {
	for _, backend := range []string{BackendMemory, BackendFS, BackendBolt, BackendS3} {
		cfg := DefaultConfig()
		cfg.Backend = backend
		cfg.S3Bucket = "chunks"
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with backend %q: %v", backend, err)
		}
	}
}

func TestValidateConfigValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with loglevel %q: %v", level, err)
		}
	}
}

// ---------------------------------------------------------------------------
// ConfigPath tests
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.wetkey")
	want := filepath.Join("/home/user/.wetkey", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: DefaultDataDir
// ---------------------------------------------------------------------------

func TestDefaultDataDir_EndsWith_DotWetkey(t *testing.T) {
	dir := DefaultDataDir()
	if !strings.HasSuffix(dir, ".wetkey") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".wetkey")
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: LoadConfig parser edge cases
// ---------------------------------------------------------------------------

func TestLoadConfig_EmptyValue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "domain=\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Domain != "" {
		t.Errorf("Domain = %q, want empty string", cfg.Domain)
	}
}

func TestLoadConfig_MultipleEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	// The value "/tmp/a=b.log" contains an extra '='.
	// parseKeyValue should split on the first '=' only.
	content := "logfile=/tmp/a=b.log\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
}

func TestLoadConfig_WhitespaceAroundEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	// Leading/trailing whitespace on the line and around '='.
	content := "  domain = example.com  \n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Domain != "example.com" {
		t.Errorf("Domain = %q, want %q", cfg.Domain, "example.com")
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: SaveConfig output format
// ---------------------------------------------------------------------------

func TestSaveConfig_OutputContainsHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := DefaultConfig()
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "# WetKey Configuration") {
		t.Error("saved config should contain header '# WetKey Configuration'")
	}
}

func TestSaveConfig_OutputContainsAllKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	cfg.LogFile = "/var/log/wetkey.log"
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	keys := []string{
		"datadir", "endpoint", "domain", "resolver", "token", "identity",
		"chunksize", "maxfilesize", "pubkeyttl", "parallelism",
		"listen", "backend", "s3bucket", "s3region", "s3prefix",
		"loglevel", "logfile",
	}
	for _, key := range keys {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: ValidateConfig boundary cases
// ---------------------------------------------------------------------------

func TestValidateConfig_LogLevelCaseInsensitive(t *testing.T) {
	// ValidateConfig lowercases the log level before lookup,
	// so mixed-case values should be accepted.
	levels := []string{"INFO", "Debug", "WARN", "Error", "dEbUg"}
	for _, level := range levels {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.LogLevel = level
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with LogLevel %q: %v", level, err)
			}
		})
	}
}

func TestValidateConfig_EmptyListenAddr(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ListenAddr = ""
	err := ValidateConfig(cfg)
	if !errors.Is(err, ErrInvalidListenAddr) {
		t.Errorf("ValidateConfig empty ListenAddr: got %v, want ErrInvalidListenAddr", err)
	}
}

func TestValidateConfig_ValidListenAddrVariants(t *testing.T) {
	addrs := []string{
		"127.0.0.1:80",
		"0.0.0.0:443",
		":8080",
		"localhost:3000",
		"[::1]:8080",
	}
	for _, addr := range addrs {
		t.Run(addr, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ListenAddr = addr
			if err := ValidateConfig(cfg); err != nil {
				t.Errorf("ValidateConfig with ListenAddr %q: %v", addr, err)
			}
		})
	}
}

func TestValidateConfig_EmptyBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = ""
	err := ValidateConfig(cfg)
	if !errors.Is(err, ErrInvalidBackend) {
		t.Errorf("ValidateConfig empty Backend: got %v, want ErrInvalidBackend", err)
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: LoadConfig error paths
// ---------------------------------------------------------------------------

func TestLoadConfig_PermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := os.WriteFile(path, []byte("domain=example.com\n"), 0600); err != nil {
		t.Fatal(err)
	}
	// Remove read permission.
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	// The error should NOT be ErrConfigNotFound; the file exists.
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("LoadConfig on unreadable file should not return ErrConfigNotFound")
	}
}

// ---------------------------------------------------------------------------
// Supplementary tests: ConfigPath
// ---------------------------------------------------------------------------

func TestConfigPath_WithTrailingSlash(t *testing.T) {
	got := ConfigPath("/foo/")
	want := filepath.Join("/foo", "config")
	if got != want {
		t.Errorf("ConfigPath(%q) = %q, want %q", "/foo/", got, want)
	}
}
