// Package discovery locates a wetkey server and its authority key from DNS.
//
//	_wetkey._tcp.{domain}  SRV  -> https://{target}:{port}/rpc
//	_wetkey.{domain}       TXT  "wetkey-pk=<hex master public key>"
package discovery

import (
	"encoding/hex"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/wetkeyorg/libwetkey-go/ibe"
)

// DNSResolver defines the interface for DNS lookups.
// This allows tests to mock DNS resolution.
type DNSResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
	LookupTXT(name string) ([]string, error)
}

type defaultDNSResolver struct{}

func (d *defaultDNSResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

func (d *defaultDNSResolver) LookupTXT(name string) ([]string, error) {
	return net.LookupTXT(name)
}

// DefaultDNSResolver is the production DNS resolver using the net package.
var DefaultDNSResolver DNSResolver = &defaultDNSResolver{}

const (
	// SRVService is the SRV service label: _wetkey._tcp.{domain}.
	SRVService = "wetkey"

	// TXTPrefix introduces the authority key in a TXT record.
	TXTPrefix = "wetkey-pk="

	rpcPath = "/rpc"
)

// ResolveEndpoints returns the server URLs for domain, ordered by SRV
// priority (ascending) then weight (descending).
func ResolveEndpoints(domain string, resolver DNSResolver) ([]string, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if resolver == nil {
		resolver = DefaultDNSResolver
	}

	_, addrs, err := resolver.LookupSRV(SRVService, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: SRV lookup for _%s._tcp.%s: %w", ErrDNSLookupFailed, SRVService, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: no SRV records for _%s._tcp.%s", ErrNoEndpoints, SRVService, domain)
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	endpoints := make([]string, len(addrs))
	for i, srv := range addrs {
		host := strings.TrimSuffix(srv.Target, ".")
		endpoints[i] = "https://" + net.JoinHostPort(host, fmt.Sprint(srv.Port)) + rpcPath
	}
	return endpoints, nil
}

// ResolveEndpoint returns the preferred server URL for domain.
func ResolveEndpoint(domain string, resolver DNSResolver) (string, error) {
	endpoints, err := ResolveEndpoints(domain, resolver)
	if err != nil {
		return "", err
	}
	return endpoints[0], nil
}

// ResolveAuthorityKey reads the master public key published at
// _wetkey.{domain}. The first record carrying TXTPrefix wins.
func ResolveAuthorityKey(domain string, resolver DNSResolver) (*ibe.PublicKey, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if resolver == nil {
		resolver = DefaultDNSResolver
	}

	name := "_" + SRVService + "." + domain
	txts, err := resolver.LookupTXT(name)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT lookup for %s: %w", ErrDNSLookupFailed, name, err)
	}

	var keyHex string
	for _, txt := range txts {
		txt = strings.TrimSpace(txt)
		if strings.HasPrefix(txt, TXTPrefix) {
			keyHex = strings.TrimSpace(strings.TrimPrefix(txt, TXTPrefix))
			break
		}
	}
	if keyHex == "" {
		return nil, fmt.Errorf("%w: no %s TXT record for %s", ErrDNSLookupFailed, TXTPrefix, name)
	}

	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex in TXT record: %w", ErrInvalidAuthorityKey, err)
	}
	pk, err := ibe.ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAuthorityKey, err)
	}
	return pk, nil
}

// TXTRecord returns the TXT record value that publishes pk.
func TXTRecord(pk *ibe.PublicKey) string {
	return TXTPrefix + hex.EncodeToString(pk.Bytes())
}
