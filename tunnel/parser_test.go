package tunnel

import (
	"bytes"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yllada/wg-tunnels/common"
)

// Fake keys (valid base64-encoded 32-byte values for testing only).
const (
	testPrivateKey   = "YWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWFhYWE=" // 32x 0x61
	testPublicKey    = "YmJiYmJiYmJiYmJiYmJiYmJiYmJiYmJiYmJiYmJiYmI=" // 32x 0x62
	testPresharedKey = "Y2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2NjY2M=" // 32x 0x63
)

const sampleConf = "\xEF\xBB\xBF[Interface]\n" +
	"PrivateKey = " + testPrivateKey + "\n" +
	"Address = 10.8.1.4/32, fd00::4\n" +
	"DNS = 198.51.100.53, 208.67.222.222\n" +
	"ListenPort = 51820\n" +
	"MTU = 1380 # lower for PPPoE\n" +
	"PostUp = iptables -A FORWARD -i %i -j ACCEPT\n" +
	"postdown = iptables -D FORWARD -i %i -j ACCEPT; ip6tables -D FORWARD -i %i -j ACCEPT\n" +
	"Table = off ; no routes\n" +
	"\n" +
	"; first peer\n" +
	"[Peer]\n" +
	"Endpoint = vpn.example.com:51820\n" +
	"PublicKey = " + testPublicKey + "\n" +
	"PresharedKey = " + testPresharedKey + "\n" +
	"AllowedIPs = 0.0.0.0/0,::/0\n" +
	"PersistentKeepalive = 25\n" +
	"\n" +
	"[peer]\n" +
	"publickey = " + testPrivateKey + "\n" +
	"allowedips = 192.168.7.0/24\n"

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig("wg0", strings.NewReader(sampleConf))
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}

	if cfg.Name != "wg0" || cfg.Interface.Name != "wg0" {
		t.Errorf("names = (%q, %q), want wg0", cfg.Name, cfg.Interface.Name)
	}
	if cfg.Interface.PrivateKey.String() != testPrivateKey {
		t.Errorf("PrivateKey = %s", cfg.Interface.PrivateKey)
	}
	wantAddrs := []netip.Prefix{netip.MustParsePrefix("10.8.1.4/32"), netip.MustParsePrefix("fd00::4/128")}
	if len(cfg.Interface.Addresses) != 2 || cfg.Interface.Addresses[0] != wantAddrs[0] || cfg.Interface.Addresses[1] != wantAddrs[1] {
		t.Errorf("Addresses = %v, want %v", cfg.Interface.Addresses, wantAddrs)
	}
	if len(cfg.Interface.DNS) != 2 {
		t.Errorf("DNS = %v", cfg.Interface.DNS)
	}
	if cfg.Interface.ListenPort != 51820 {
		t.Errorf("ListenPort = %d", cfg.Interface.ListenPort)
	}
	if cfg.Interface.MTU != 1380 || cfg.EffectiveMTU() != 1380 {
		t.Errorf("MTU = %d", cfg.Interface.MTU)
	}

	wantExtra := []KeyValue{
		{"PostUp", "iptables -A FORWARD -i %i -j ACCEPT"},
		{"PostDown", "iptables -D FORWARD -i %i -j ACCEPT; ip6tables -D FORWARD -i %i -j ACCEPT"},
		{"Table", "off"},
	}
	if len(cfg.Interface.Extra) != len(wantExtra) {
		t.Fatalf("Extra = %v, want %v", cfg.Interface.Extra, wantExtra)
	}
	for i, kv := range wantExtra {
		if cfg.Interface.Extra[i] != kv {
			t.Errorf("Extra[%d] = %+v, want %+v", i, cfg.Interface.Extra[i], kv)
		}
	}

	if len(cfg.Peers) != 2 {
		t.Fatalf("len(Peers) = %d, want 2", len(cfg.Peers))
	}
	p := cfg.Peers[0]
	if p.PublicKey.String() != testPublicKey {
		t.Errorf("PublicKey = %s", p.PublicKey)
	}
	if p.PresharedKey == nil || p.PresharedKey.String() != testPresharedKey {
		t.Errorf("PresharedKey = %v", p.PresharedKey)
	}
	if p.Endpoint != "vpn.example.com:51820" {
		t.Errorf("Endpoint = %s", p.Endpoint)
	}
	if len(p.AllowedIPs) != 2 || p.PersistentKeepalive != 25 {
		t.Errorf("peer = %+v", p)
	}
	if cfg.Peers[1].PresharedKey != nil || len(cfg.Peers[1].AllowedIPs) != 1 {
		t.Errorf("second peer = %+v", cfg.Peers[1])
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseConfig_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine string
	}{
		{"missing interface", "[Peer]\nPublicKey = " + testPublicKey + "\n", ""},
		{"unknown section", "[Interface]\n[Bogus]\n", "line 2"},
		{"duplicate interface", "[Interface]\n[Interface]\n", "line 2"},
		{"no equals", "[Interface]\nPrivateKey\n", "line 2"},
		{"bad key", "[Interface]\nPrivateKey = short\n", "line 2"},
		{"bad address", "[Interface]\nAddress = 10.0.0.300/24\n", "line 2"},
		{"bad mtu", "[Interface]\nMTU = 12\n", "line 2"},
		{"unknown key", "[Interface]\nColour = blue\n", "line 2"},
		{"key before section", "PrivateKey = " + testPrivateKey + "\n", "line 1"},
		{"endpoint without port", "[Interface]\n[Peer]\nEndpoint = example.com\n", "line 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig("wg0", strings.NewReader(tt.input))
			if !errors.Is(err, common.ErrInvalidConfig) {
				t.Fatalf("ParseConfig() error = %v, want ErrInvalidConfig", err)
			}
			if tt.wantLine != "" && !strings.Contains(err.Error(), tt.wantLine) {
				t.Errorf("error %q should mention %q", err, tt.wantLine)
			}
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	cfg, err := ParseConfig("wg0", strings.NewReader(sampleConf))
	if err != nil {
		t.Fatal(err)
	}

	again, err := ParseConfig("wg0", bytes.NewReader(cfg.Marshal()))
	if err != nil {
		t.Fatalf("ParseConfig(Marshal()) error = %v", err)
	}
	if !bytes.Equal(cfg.Marshal(), again.Marshal()) {
		t.Errorf("round trip changed output:\n%s\n---\n%s", cfg.Marshal(), again.Marshal())
	}
	if again.Interface.PrivateKey != cfg.Interface.PrivateKey {
		t.Error("private key lost in round trip")
	}
	for _, line := range []string{
		"PostUp = iptables -A FORWARD -i %i -j ACCEPT\n",
		"PostDown = iptables -D FORWARD -i %i -j ACCEPT; ip6tables -D FORWARD -i %i -j ACCEPT\n",
		"Table = off\n",
	} {
		if !bytes.Contains(cfg.Marshal(), []byte(line)) {
			t.Errorf("Marshal() missing %q", line)
		}
		if !bytes.Contains(cfg.MarshalPublic(), []byte(line)) {
			t.Errorf("MarshalPublic() missing %q", line)
		}
	}
}

func TestMarshalPublic_OmitsPrivateKey(t *testing.T) {
	cfg, err := ParseConfig("wg0", strings.NewReader(sampleConf))
	if err != nil {
		t.Fatal(err)
	}

	out := cfg.MarshalPublic()
	if bytes.Contains(out, []byte("PrivateKey")) {
		t.Errorf("MarshalPublic() leaked the private key:\n%s", out)
	}

	again, err := ParseConfig("wg0", bytes.NewReader(out))
	if err != nil {
		t.Fatalf("ParseConfig(MarshalPublic()) error = %v", err)
	}
	if !again.Interface.PrivateKey.IsZero() {
		t.Error("private key should be zero")
	}
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "office.conf")
	if err := os.WriteFile(path, []byte(sampleConf), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseConfigFile(path)
	if err != nil {
		t.Fatalf("ParseConfigFile() error = %v", err)
	}
	if cfg.TunnelName() != "office" {
		t.Errorf("TunnelName() = %q, want office", cfg.TunnelName())
	}

	dotted := filepath.Join(t.TempDir(), "wg.home.conf")
	if err := os.WriteFile(dotted, []byte(sampleConf), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err = ParseConfigFile(dotted)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TunnelName() != "wg.home" {
		t.Errorf("TunnelName() = %q, want wg.home", cfg.TunnelName())
	}

	if _, err := ParseConfigFile(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
		t.Error("ParseConfigFile(missing) should fail")
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"wg0", true},
		{"home_office-1.2", true},
		{"a=b+c", true},
		{"", false},
		{"sixteen-chars-xxx", false},
		{"has space", false},
		{"slash/name", false},
	}

	for _, tt := range tests {
		err := ValidName(tt.name)
		if tt.valid && err != nil {
			t.Errorf("ValidName(%q) error = %v", tt.name, err)
		}
		if !tt.valid && !errors.Is(err, common.ErrInvalidName) {
			t.Errorf("ValidName(%q) error = %v, want ErrInvalidName", tt.name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := testConfig("wg0")
	if err := cfg.Validate(); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("Validate() without private key error = %v", err)
	}

	key, err := GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Interface.PrivateKey = key
	cfg.Peers = []Peer{{}}
	if err := cfg.Validate(); !errors.Is(err, common.ErrInvalidConfig) {
		t.Errorf("Validate() with keyless peer error = %v", err)
	}

	cfg.Peers = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg, err := ParseConfig("wg0", strings.NewReader(sampleConf))
	if err != nil {
		t.Fatal(err)
	}
	clone := cfg.Clone()

	clone.Interface.Addresses[0] = netip.MustParsePrefix("192.0.2.1/32")
	clone.Peers[0].AllowedIPs[0] = netip.MustParsePrefix("192.0.2.0/24")
	clone.Peers[0].PresharedKey[0] = 0
	clone.Interface.Extra[0].Value = "true"

	if cfg.Interface.Addresses[0] == clone.Interface.Addresses[0] {
		t.Error("Addresses shared between clone and original")
	}
	if cfg.Peers[0].AllowedIPs[0] == clone.Peers[0].AllowedIPs[0] {
		t.Error("AllowedIPs shared between clone and original")
	}
	if cfg.Interface.Extra[0].Value == "true" {
		t.Error("Extra shared between clone and original")
	}
	if cfg.Peers[0].PresharedKey.String() != testPresharedKey {
		t.Error("PresharedKey shared between clone and original")
	}

	var nilCfg *Configuration
	if nilCfg.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
