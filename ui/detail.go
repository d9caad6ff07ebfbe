// Package ui provides the terminal interface for the tunnel manager.
// This file renders the tunnel detail pane.
package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/yllada/wg-tunnels/tunnel"
)

// renderDetail shows the interface and peers of rec. The private key is
// never displayed; only the derived public key is.
func renderDetail(rec *tunnel.Record) string {
	cfg := rec.Configuration()
	iface := cfg.Interface

	var rows []string
	rows = append(rows, titleStyle.Render(rec.Name()))
	rows = append(rows, sectionStyle.Render("Interface"))
	rows = append(rows, field("Public key", publicKey(iface.PrivateKey)))
	if len(iface.Addresses) > 0 {
		addrs := make([]string, len(iface.Addresses))
		for i, a := range iface.Addresses {
			addrs[i] = a.String()
		}
		rows = append(rows, field("Addresses", strings.Join(addrs, ", ")))
	}
	if iface.ListenPort != 0 {
		rows = append(rows, field("Listen port", strconv.Itoa(int(iface.ListenPort))))
	}
	rows = append(rows, field("MTU", strconv.Itoa(cfg.EffectiveMTU())))
	if len(iface.DNS) > 0 {
		dns := make([]string, len(iface.DNS))
		for i, d := range iface.DNS {
			dns[i] = d.String()
		}
		rows = append(rows, field("DNS", strings.Join(dns, ", ")))
	}

	for i, peer := range cfg.Peers {
		rows = append(rows, sectionStyle.Render("Peer "+strconv.Itoa(i+1)))
		rows = append(rows, field("Public key", peer.PublicKey.String()))
		if peer.PresharedKey != nil {
			rows = append(rows, field("Preshared key", "enabled"))
		}
		if peer.Endpoint != "" {
			rows = append(rows, field("Endpoint", peer.Endpoint))
		}
		if len(peer.AllowedIPs) > 0 {
			ips := make([]string, len(peer.AllowedIPs))
			for j, p := range peer.AllowedIPs {
				ips[j] = p.String()
			}
			rows = append(rows, field("Allowed IPs", strings.Join(ips, ", ")))
		}
		if peer.PersistentKeepalive != 0 {
			rows = append(rows, field("Keepalive", strconv.Itoa(int(peer.PersistentKeepalive))+"s"))
		}
	}
	if len(cfg.Peers) == 0 {
		rows = append(rows, hintStyle.Render("No peers"))
	}

	return detailBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

func publicKey(priv tunnel.Key) string {
	if priv.IsZero() {
		return "(private key missing)"
	}
	pub, err := priv.PublicKey()
	if err != nil {
		return "(invalid key)"
	}
	return pub.String()
}
