package network

import (
	"fmt"
	"strings"
)

// ClientConfig holds the connection parameters for a wetkey server.
type ClientConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
	Domain   string `json:"domain"`
}

// DefaultEndpoint is a server on the local machine.
const DefaultEndpoint = "http://127.0.0.1:8710/rpc"

// Environment variable names read by ResolveConfig.
const (
	EnvEndpoint = "WETKEY_ENDPOINT"
	EnvToken    = "WETKEY_TOKEN"
	EnvDomain   = "WETKEY_DOMAIN"
)

// ResolveConfig merges client configuration from three sources with decreasing priority:
//  1. CLI flags (highest priority)
//  2. Environment variables (WETKEY_ENDPOINT, WETKEY_TOKEN, WETKEY_DOMAIN)
//  3. Defaults (lowest priority)
//
// A configured domain suppresses the default endpoint so that discovery can
// supply one.
func ResolveConfig(flags *ClientConfig, env map[string]string) (*ClientConfig, error) {
	var result ClientConfig

	if env != nil {
		if v, ok := env[EnvEndpoint]; ok && v != "" {
			result.Endpoint = v
		}
		if v, ok := env[EnvToken]; ok && v != "" {
			result.Token = v
		}
		if v, ok := env[EnvDomain]; ok && v != "" {
			result.Domain = v
		}
	}

	if flags != nil {
		if flags.Endpoint != "" {
			result.Endpoint = flags.Endpoint
		}
		if flags.Token != "" {
			result.Token = flags.Token
		}
		if flags.Domain != "" {
			result.Domain = flags.Domain
		}
	}

	if result.Endpoint == "" && result.Domain == "" {
		result.Endpoint = DefaultEndpoint
	}
	if result.Endpoint != "" && !strings.HasPrefix(result.Endpoint, "http://") && !strings.HasPrefix(result.Endpoint, "https://") {
		return nil, fmt.Errorf("network: endpoint %q must be an http or https URL", result.Endpoint)
	}
	return &result, nil
}
