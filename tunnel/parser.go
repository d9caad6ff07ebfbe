package tunnel

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yllada/wg-tunnels/common"
)

// ParseConfigFile reads a wg-quick .conf file. The configuration name is
// the file name without its .conf extension.
func ParseConfigFile(path string) (*Configuration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), ".conf")
	return ParseConfig(name, f)
}

// ParseConfig parses wg-quick text. The interface name is set to name, since
// wg-quick files carry no name of their own.
func ParseConfig(name string, r io.Reader) (*Configuration, error) {
	cfg := &Configuration{
		Name:      name,
		Interface: Interface{Name: name},
	}

	section := ""
	sawInterface := false
	var peer *Peer
	lineNo := 0

	flushPeer := func() {
		if peer != nil {
			cfg.Peers = append(cfg.Peers, *peer)
			peer = nil
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\xEF\xBB\xBF")
		}
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			line = stripSemicolonComment(line)
			flushPeer()
			section = strings.ToLower(strings.Trim(line, "[] "))
			switch section {
			case "interface":
				if sawInterface {
					return nil, parseError(lineNo, "duplicate [Interface] section")
				}
				sawInterface = true
			case "peer":
				peer = &Peer{}
			default:
				return nil, parseError(lineNo, "unknown section %q", line)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, parseError(lineNo, "expected key = value, got %q", line)
		}
		key = strings.TrimSpace(key)
		// Hook commands are shell text where ';' separates commands.
		if _, hook := extraKeys[strings.ToLower(key)]; !hook {
			value = stripSemicolonComment(value)
		}
		value = strings.TrimSpace(value)

		var err error
		switch section {
		case "interface":
			err = parseInterfaceKey(key, value, &cfg.Interface)
		case "peer":
			err = parsePeerKey(key, value, peer)
		default:
			err = fmt.Errorf("key outside of a section")
		}
		if err != nil {
			return nil, parseError(lineNo, "%s: %v", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	flushPeer()

	if !sawInterface {
		return nil, fmt.Errorf("%w: missing [Interface] section", common.ErrInvalidConfig)
	}
	return cfg, nil
}

// extraKeys maps the lower-case wg-quick keys kept in Interface.Extra to
// their canonical spelling.
var extraKeys = map[string]string{
	"table":      "Table",
	"fwmark":     "FwMark",
	"saveconfig": "SaveConfig",
	"preup":      "PreUp",
	"postup":     "PostUp",
	"predown":    "PreDown",
	"postdown":   "PostDown",
}

func stripSemicolonComment(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func parseError(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: line %d: %s", common.ErrInvalidConfig, line, fmt.Sprintf(format, args...))
}

func parseInterfaceKey(key, value string, iface *Interface) error {
	switch strings.ToLower(key) {
	case "privatekey":
		k, err := ParseKey(value)
		if err != nil {
			return err
		}
		iface.PrivateKey = k
	case "listenport":
		port, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid port %q", value)
		}
		iface.ListenPort = uint16(port)
	case "address":
		for _, s := range splitCSV(value) {
			prefix, err := parsePrefix(s)
			if err != nil {
				return err
			}
			iface.Addresses = append(iface.Addresses, prefix)
		}
	case "dns":
		for _, s := range splitCSV(value) {
			ip, err := netip.ParseAddr(s)
			if err != nil {
				return fmt.Errorf("invalid DNS %q", s)
			}
			iface.DNS = append(iface.DNS, ip)
		}
	case "mtu":
		mtu, err := strconv.Atoi(value)
		if err != nil || mtu < 576 || mtu > 65535 {
			return fmt.Errorf("invalid MTU %q", value)
		}
		iface.MTU = mtu
	default:
		canonical, ok := extraKeys[strings.ToLower(key)]
		if !ok {
			return fmt.Errorf("unknown key")
		}
		iface.Extra = append(iface.Extra, KeyValue{Key: canonical, Value: value})
	}
	return nil
}

func parsePeerKey(key, value string, peer *Peer) error {
	switch strings.ToLower(key) {
	case "publickey":
		k, err := ParseKey(value)
		if err != nil {
			return err
		}
		peer.PublicKey = k
	case "presharedkey":
		k, err := ParseKey(value)
		if err != nil {
			return err
		}
		peer.PresharedKey = &k
	case "allowedips":
		for _, s := range splitCSV(value) {
			prefix, err := parsePrefix(s)
			if err != nil {
				return err
			}
			peer.AllowedIPs = append(peer.AllowedIPs, prefix)
		}
	case "endpoint":
		if !strings.Contains(value, ":") {
			return fmt.Errorf("endpoint %q has no port", value)
		}
		peer.Endpoint = value
	case "persistentkeepalive":
		if strings.EqualFold(value, "off") {
			peer.PersistentKeepalive = 0
			return nil
		}
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid keepalive %q", value)
		}
		peer.PersistentKeepalive = uint16(n)
	default:
		return fmt.Errorf("unknown key")
	}
	return nil
}

// parsePrefix accepts both CIDR notation and bare addresses.
func parsePrefix(s string) (netip.Prefix, error) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p, nil
	}
	ip, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid address %q", s)
	}
	return netip.PrefixFrom(ip, ip.BitLen()), nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Marshal renders the configuration as wg-quick text.
func (c *Configuration) Marshal() []byte {
	return c.marshal(true)
}

// MarshalPublic renders the configuration without the interface private key.
func (c *Configuration) MarshalPublic() []byte {
	return c.marshal(false)
}

func (c *Configuration) marshal(withPrivateKey bool) []byte {
	var b bytes.Buffer

	b.WriteString("[Interface]\n")
	if withPrivateKey && !c.Interface.PrivateKey.IsZero() {
		fmt.Fprintf(&b, "PrivateKey = %s\n", c.Interface.PrivateKey)
	}
	if len(c.Interface.Addresses) > 0 {
		fmt.Fprintf(&b, "Address = %s\n", joinStringers(c.Interface.Addresses))
	}
	if c.Interface.ListenPort != 0 {
		fmt.Fprintf(&b, "ListenPort = %d\n", c.Interface.ListenPort)
	}
	if c.Interface.MTU != 0 {
		fmt.Fprintf(&b, "MTU = %d\n", c.Interface.MTU)
	}
	if len(c.Interface.DNS) > 0 {
		fmt.Fprintf(&b, "DNS = %s\n", joinStringers(c.Interface.DNS))
	}
	for _, kv := range c.Interface.Extra {
		fmt.Fprintf(&b, "%s = %s\n", kv.Key, kv.Value)
	}

	for _, p := range c.Peers {
		b.WriteString("\n[Peer]\n")
		fmt.Fprintf(&b, "PublicKey = %s\n", p.PublicKey)
		if p.PresharedKey != nil {
			fmt.Fprintf(&b, "PresharedKey = %s\n", *p.PresharedKey)
		}
		if len(p.AllowedIPs) > 0 {
			fmt.Fprintf(&b, "AllowedIPs = %s\n", joinStringers(p.AllowedIPs))
		}
		if p.Endpoint != "" {
			fmt.Fprintf(&b, "Endpoint = %s\n", p.Endpoint)
		}
		if p.PersistentKeepalive != 0 {
			fmt.Fprintf(&b, "PersistentKeepalive = %d\n", p.PersistentKeepalive)
		}
	}
	return b.Bytes()
}

func joinStringers[T fmt.Stringer](items []T) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}
	return strings.Join(parts, ", ")
}
