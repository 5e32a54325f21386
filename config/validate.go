// Copyright (c) 2026 The WetKey developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validBackends = map[string]bool{
	BackendMemory: true,
	BackendFS:     true,
	BackendBolt:   true,
	BackendS3:     true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidEndpoint, cfg.Endpoint)
		}
	}

	if cfg.ChunkSize <= 0 || (cfg.MaxFileSize > 0 && int64(cfg.ChunkSize) > cfg.MaxFileSize) {
		return ErrInvalidChunkSize
	}

	if cfg.Parallelism < 1 {
		return ErrInvalidParallelism
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validBackends[cfg.Backend] {
		return ErrInvalidBackend
	}
	if cfg.Backend == BackendS3 && cfg.S3Bucket == "" {
		return ErrMissingBucket
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}
