// Copyright (c) 2026 The WetKey developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidChunkSize indicates a non-positive chunk size or one above the file limit.
	ErrInvalidChunkSize = errors.New("config: chunk size must be positive and not exceed maxfilesize")

	// ErrInvalidParallelism indicates a non-positive parallelism.
	ErrInvalidParallelism = errors.New("config: parallelism must be at least 1")

	// ErrInvalidBackend indicates the chunk backend is not recognized.
	ErrInvalidBackend = errors.New("config: invalid backend (must be \"mem\", \"fs\", \"bolt\", or \"s3\")")

	// ErrMissingBucket indicates the s3 backend without a bucket.
	ErrMissingBucket = errors.New("config: s3 backend requires s3bucket")

	// ErrInvalidEndpoint indicates an endpoint that is not an http(s) URL.
	ErrInvalidEndpoint = errors.New("config: endpoint must be an http or https URL")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
