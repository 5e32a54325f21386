package discovery

import "errors"

var (
	// ErrDNSLookupFailed indicates a DNS query failed or returned nothing usable.
	ErrDNSLookupFailed = errors.New("discovery: DNS lookup failed")

	// ErrNoEndpoints indicates SRV resolution returned no records.
	ErrNoEndpoints = errors.New("discovery: no endpoints found")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the answer.
	ErrDNSSECValidationFailed = errors.New("discovery: DNSSEC validation failed")

	// ErrInvalidAuthorityKey indicates a TXT record whose key does not parse.
	ErrInvalidAuthorityKey = errors.New("discovery: invalid authority key")
)
