package tunnel

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/yllada/wg-tunnels/common"
)

// Configuration is a wg-quick style tunnel configuration.
// The registry only reads Name and Interface.Name; everything else is
// carried for the callers that import, display and export tunnels.
type Configuration struct {
	// Name is the configuration's own name, usually the file base name.
	Name string
	// Interface holds the local side of the tunnel.
	Interface Interface
	// Peers lists the remote sides.
	Peers []Peer
}

// Interface is the [Interface] section of a configuration.
type Interface struct {
	Name       string
	PrivateKey Key
	Addresses  []netip.Prefix
	ListenPort uint16
	// MTU is zero when unset, meaning common.DefaultMTU.
	MTU int
	DNS []netip.Addr
	// Extra holds wg-quick keys that are stored and exported unchanged,
	// in file order: Table, FwMark, SaveConfig and the Pre/Post hooks.
	Extra []KeyValue
}

// KeyValue is a key and its raw value.
type KeyValue struct {
	Key   string
	Value string
}

// Peer is a [Peer] section of a configuration.
type Peer struct {
	PublicKey    Key
	PresharedKey *Key
	AllowedIPs   []netip.Prefix
	// Endpoint is kept as text because it may be a host name.
	Endpoint            string
	PersistentKeepalive uint16
}

// TunnelName returns the display name a record derives from this configuration.
func (c *Configuration) TunnelName() string {
	if c.Interface.Name != "" {
		return c.Interface.Name
	}
	return c.Name
}

// Clone returns a deep copy of the configuration.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := &Configuration{
		Name: c.Name,
		Interface: Interface{
			Name:       c.Interface.Name,
			PrivateKey: c.Interface.PrivateKey,
			Addresses:  slices.Clone(c.Interface.Addresses),
			ListenPort: c.Interface.ListenPort,
			MTU:        c.Interface.MTU,
			DNS:        slices.Clone(c.Interface.DNS),
			Extra:      slices.Clone(c.Interface.Extra),
		},
	}
	if c.Peers != nil {
		out.Peers = make([]Peer, len(c.Peers))
		for i, p := range c.Peers {
			out.Peers[i] = p
			out.Peers[i].AllowedIPs = slices.Clone(p.AllowedIPs)
			if p.PresharedKey != nil {
				psk := *p.PresharedKey
				out.Peers[i].PresharedKey = &psk
			}
		}
	}
	return out
}

// EffectiveMTU returns the configured MTU or the wg-quick default.
func (c *Configuration) EffectiveMTU() int {
	if c.Interface.MTU > 0 {
		return c.Interface.MTU
	}
	return common.DefaultMTU
}

// Validate checks the fields a tunnel needs before it can be stored.
func (c *Configuration) Validate() error {
	if err := ValidName(c.TunnelName()); err != nil {
		return err
	}
	if c.Interface.PrivateKey.IsZero() {
		return fmt.Errorf("%w: interface has no private key", common.ErrInvalidConfig)
	}
	for i, p := range c.Peers {
		if p.PublicKey.IsZero() {
			return fmt.Errorf("%w: peer %d has no public key", common.ErrInvalidConfig, i+1)
		}
	}
	return nil
}

// ValidName reports whether name can be used as a tunnel name.
// Names follow the Linux interface name rules wg-quick enforces.
func ValidName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", common.ErrInvalidName)
	}
	if len(name) > common.MaxTunnelNameLength {
		return fmt.Errorf("%w: %q is longer than %d characters", common.ErrInvalidName, name, common.MaxTunnelNameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '=' || r == '+' || r == '.' || r == '-':
		default:
			return fmt.Errorf("%w: %q contains %q", common.ErrInvalidName, name, r)
		}
	}
	return nil
}
