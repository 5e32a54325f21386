package discovery

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wetkeyorg/libwetkey-go/ibe"
)

type mockResolver struct {
	srvs   []*net.SRV
	srvErr error
	txts   map[string][]string
	txtErr error
}

func (m *mockResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return "", m.srvs, m.srvErr
}

func (m *mockResolver) LookupTXT(name string) ([]string, error) {
	if m.txtErr != nil {
		return nil, m.txtErr
	}
	return m.txts[name], nil
}

func testKey(t *testing.T) *ibe.PublicKey {
	t.Helper()
	master, err := ibe.GenerateMasterKey(nil)
	require.NoError(t, err)
	return master.PublicKey()
}

func TestResolveEndpoints_Ordering(t *testing.T) {
	r := &mockResolver{srvs: []*net.SRV{
		{Target: "backup.example.com.", Port: 8443, Priority: 20, Weight: 100},
		{Target: "light.example.com.", Port: 443, Priority: 10, Weight: 1},
		{Target: "heavy.example.com.", Port: 443, Priority: 10, Weight: 50},
	}}
	endpoints, err := ResolveEndpoints("example.com", r)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://heavy.example.com:443/rpc",
		"https://light.example.com:443/rpc",
		"https://backup.example.com:8443/rpc",
	}, endpoints)

	first, err := ResolveEndpoint("example.com", r)
	require.NoError(t, err)
	assert.Equal(t, endpoints[0], first)
}

func TestResolveEndpoints_Errors(t *testing.T) {
	_, err := ResolveEndpoints("", &mockResolver{})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)

	_, err = ResolveEndpoints("example.com", &mockResolver{})
	assert.ErrorIs(t, err, ErrNoEndpoints)

	_, err = ResolveEndpoints("example.com", &mockResolver{srvErr: errors.New("servfail")})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestResolveAuthorityKey(t *testing.T) {
	pk := testKey(t)
	r := &mockResolver{txts: map[string][]string{
		"_wetkey.example.com": {"v=spf1 -all", TXTRecord(pk)},
	}}
	got, err := ResolveAuthorityKey("example.com", r)
	require.NoError(t, err)
	assert.True(t, pk.Equal(got))
}

func TestResolveAuthorityKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		txts []string
		want error
	}{
		{"no record", nil, ErrDNSLookupFailed},
		{"no prefix", []string{"something else"}, ErrDNSLookupFailed},
		{"bad hex", []string{TXTPrefix + "zz"}, ErrInvalidAuthorityKey},
		{"not a key", []string{TXTPrefix + "0102"}, ErrInvalidAuthorityKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockResolver{txts: map[string][]string{"_wetkey.example.com": tt.txts}}
			_, err := ResolveAuthorityKey("example.com", r)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	_, err := ResolveAuthorityKey("", &mockResolver{})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestNewDNSSECResolver_Defaults(t *testing.T) {
	assert.Equal(t, "8.8.8.8:53", NewDNSSECResolver("").Upstream)
	assert.Equal(t, "1.1.1.1:53", NewDNSSECResolver("1.1.1.1:53").Upstream)
}

// startDNS serves answers for the SRV and TXT names used by the tests on a
// local UDP port. ad controls the Authenticated Data flag.
func startDNS(t *testing.T, ad bool, txt string) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.AuthenticatedData = ad
		q := req.Question[0]
		switch {
		case q.Qtype == dns.TypeSRV && q.Name == "_wetkey._tcp.example.com.":
			m.Answer = append(m.Answer, &dns.SRV{
				Hdr:      dns.RR_Header{Name: q.Name, Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 60},
				Priority: 10, Weight: 5, Port: 8443, Target: "rpc.example.com.",
			})
		case q.Qtype == dns.TypeTXT && q.Name == "_wetkey.example.com.":
			// A single TXT string holds at most 255 bytes.
			m.Answer = append(m.Answer, &dns.TXT{
				Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 60},
				Txt: []string{txt[:200], txt[200:]},
			})
		default:
			m.Rcode = dns.RcodeNameError
		}
		_ = w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go func() { _ = srv.ActivateAndServe() }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}
	return pc.LocalAddr().String()
}

func TestDNSSECResolver_LocalServer(t *testing.T) {
	pk := testKey(t)
	addr := startDNS(t, true, TXTRecord(pk))
	r := &DNSSECResolver{Upstream: addr, Timeout: 2 * time.Second}

	endpoint, err := ResolveEndpoint("example.com", r)
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com:8443/rpc", endpoint)

	got, err := ResolveAuthorityKey("example.com", r)
	require.NoError(t, err)
	assert.True(t, pk.Equal(got))

	_, err = r.LookupTXT("missing.example.com")
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestDNSSECResolver_RequiresAD(t *testing.T) {
	addr := startDNS(t, false, TXTRecord(testKey(t)))
	r := &DNSSECResolver{Upstream: addr, Timeout: 2 * time.Second}

	_, err := r.LookupTXT("_wetkey.example.com")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
	_, _, err = r.LookupSRV("wetkey", "tcp", "example.com")
	assert.ErrorIs(t, err, ErrDNSSECValidationFailed)
}
