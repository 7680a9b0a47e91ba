package webfetch

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLookup returns a Validator whose DNS answers come from the given map.
func stubLookup(answers map[string][]string) *Validator {
	return &Validator{Lookup: func(host string) ([]net.IP, error) {
		addrs, ok := answers[host]
		if !ok {
			return nil, errors.New("no such host")
		}
		ips := make([]net.IP, 0, len(addrs))
		for _, a := range addrs {
			ips = append(ips, net.ParseIP(a))
		}
		return ips, nil
	}}
}

func TestValidate_SchemePolicy(t *testing.T) {
	v := NewValidator()
	for _, u := range []string{
		"ftp://example.com/file",
		"file:///etc/passwd",
		"javascript:alert(1)",
		"gopher://example.com",
	} {
		vr := v.Validate(u)
		assert.False(t, vr.Safe, "scheme should be blocked: %s", u)
		assert.Contains(t, vr.Err, "scheme")
	}
}

func TestValidate_NoHostname(t *testing.T) {
	vr := NewValidator().Validate("http://")
	assert.False(t, vr.Safe)
}

func TestValidate_LocalhostWithoutDNS(t *testing.T) {
	// localhost and 0.0.0.0 are rejected before any lookup runs.
	v := &Validator{Lookup: func(string) ([]net.IP, error) {
		t.Fatal("lookup must not be called for localhost")
		return nil, nil
	}}
	assert.False(t, v.Validate("http://localhost/admin").Safe)
	assert.False(t, v.Validate("http://0.0.0.0:8080/").Safe)
}

func TestValidate_LiteralPrivateIP(t *testing.T) {
	v := NewValidator()
	for _, u := range []string{
		"http://127.0.0.1/",
		"http://10.1.2.3/",
		"http://192.168.1.1/",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
	} {
		vr := v.Validate(u)
		assert.False(t, vr.Safe, "literal IP should be blocked: %s", u)
	}
}

func TestValidate_LiteralPublicIP(t *testing.T) {
	vr := NewValidator().Validate("http://93.184.216.34/")
	require.True(t, vr.Safe)
	assert.Equal(t, "93.184.216.34", vr.ResolvedIP)
}

// Boundary addresses for every deny-listed range.
func TestValidate_DenyListBoundaries(t *testing.T) {
	blocked := []string{
		"10.0.0.0", "10.255.255.255",
		"172.16.0.0", "172.31.255.255",
		"192.168.0.0", "192.168.255.255",
		"127.0.0.1", "127.255.255.255",
		"169.254.0.1", "169.254.255.255",
		"0.0.0.1", "0.255.255.255",
		"::1",
		"fc00::1", "fdff:ffff:ffff:ffff:ffff:ffff:ffff:ffff",
		"fe80::1", "febf::1",
	}
	for i, addr := range blocked {
		host := fmt.Sprintf("internal%d.example.com", i)
		v := stubLookup(map[string][]string{host: {addr}})
		vr := v.Validate("http://" + host + "/")
		assert.False(t, vr.Safe, "address %s should be blocked", addr)
		assert.Contains(t, vr.Err, "private/internal")
	}
}

func TestValidate_JustOutsideDenyList(t *testing.T) {
	public := []string{
		"9.255.255.255", "11.0.0.0",
		"172.15.255.255", "172.32.0.0",
		"192.167.255.255", "192.169.0.0",
		"1.0.0.1",
		"2606:4700:4700::1111",
	}
	for i, addr := range public {
		host := fmt.Sprintf("public%d.example.com", i)
		v := stubLookup(map[string][]string{host: {addr}})
		vr := v.Validate("http://" + host + "/")
		assert.True(t, vr.Safe, "address %s should be allowed: %s", addr, vr.Err)
	}
}

func TestValidate_MixedRecordsConservative(t *testing.T) {
	// One private address among public ones rejects the whole hostname —
	// multi-A-record rebinding must not slip through.
	v := stubLookup(map[string][]string{
		"rebind.example.com": {"93.184.216.34", "10.0.0.5", "1.1.1.1"},
	})
	vr := v.Validate("https://rebind.example.com/")
	assert.False(t, vr.Safe)
	assert.Contains(t, vr.Err, "10.0.0.5")
}

func TestValidate_DNSFailureIsRejection(t *testing.T) {
	v := stubLookup(map[string][]string{})
	vr := v.Validate("https://unresolvable.example.com/")
	assert.False(t, vr.Safe)
	assert.Contains(t, vr.Err, "cannot resolve hostname")
}

func TestValidate_PublicHostname(t *testing.T) {
	v := stubLookup(map[string][]string{"ok.example.com": {"93.184.216.34"}})
	vr := v.Validate("https://ok.example.com/page")
	require.True(t, vr.Safe)
	assert.Equal(t, "93.184.216.34", vr.ResolvedIP)
	assert.Empty(t, vr.Err)
}
