package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/wg-tunnels/tunnel"
)

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)

// printer writes user-facing messages, coloured only on a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: isTerminal(w)}
}

func (p *printer) success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if p.color {
		msg = successStyle.Render("✓ " + msg)
	}
	fmt.Fprintln(p.w, msg)
}

func (p *printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func publicKeyText(priv tunnel.Key) string {
	if priv.IsZero() {
		return "(none)"
	}
	pub, err := priv.PublicKey()
	if err != nil {
		return "(invalid)"
	}
	return pub.String()
}

// printTunnel writes rec in the layout of `wg show`, without secrets.
func printTunnel(w io.Writer, rec *tunnel.Record) {
	cfg := rec.Configuration()
	iface := cfg.Interface

	fmt.Fprintf(w, "interface: %s\n", rec.Name())
	fmt.Fprintf(w, "  position: %d\n", rec.Position())
	fmt.Fprintf(w, "  public key: %s\n", publicKeyText(iface.PrivateKey))
	if len(iface.Addresses) > 0 {
		addrs := make([]string, len(iface.Addresses))
		for i, a := range iface.Addresses {
			addrs[i] = a.String()
		}
		fmt.Fprintf(w, "  addresses: %s\n", strings.Join(addrs, ", "))
	}
	if iface.ListenPort != 0 {
		fmt.Fprintf(w, "  listening port: %d\n", iface.ListenPort)
	}
	fmt.Fprintf(w, "  mtu: %d\n", cfg.EffectiveMTU())
	if len(iface.DNS) > 0 {
		dns := make([]string, len(iface.DNS))
		for i, d := range iface.DNS {
			dns[i] = d.String()
		}
		fmt.Fprintf(w, "  dns: %s\n", strings.Join(dns, ", "))
	}

	for _, peer := range cfg.Peers {
		fmt.Fprintf(w, "\npeer: %s\n", peer.PublicKey)
		if peer.PresharedKey != nil {
			fmt.Fprintln(w, "  preshared key: (hidden)")
		}
		if peer.Endpoint != "" {
			fmt.Fprintf(w, "  endpoint: %s\n", peer.Endpoint)
		}
		if len(peer.AllowedIPs) > 0 {
			ips := make([]string, len(peer.AllowedIPs))
			for i, p := range peer.AllowedIPs {
				ips[i] = p.String()
			}
			fmt.Fprintf(w, "  allowed ips: %s\n", strings.Join(ips, ", "))
		}
		if peer.PersistentKeepalive != 0 {
			fmt.Fprintf(w, "  persistent keepalive: every %d seconds\n", peer.PersistentKeepalive)
		}
	}
}
