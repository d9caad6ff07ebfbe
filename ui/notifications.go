// Package ui provides the terminal interface for the tunnel manager.
// This file contains the desktop notification sender.
package ui

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/yllada/wg-tunnels/common"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod = notifyDest + ".Notify"
	notifyIcon   = "network-vpn"
)

// urgencyLow is the "low" value of the urgency hint.
const urgencyLow byte = 0

// DesktopNotifier sends notifications over the session D-Bus.
type DesktopNotifier struct {
	conn *dbus.Conn
}

// NewDesktopNotifier connects to the session bus.
func NewDesktopNotifier() (*DesktopNotifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("session bus: %w", err)
	}
	return &DesktopNotifier{conn: conn}, nil
}

// Notify shows a notification with the given title and message.
func (n *DesktopNotifier) Notify(title, message string) error {
	obj := n.conn.Object(notifyDest, notifyPath)
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(urgencyLow),
	}
	call := obj.Call(notifyMethod, 0,
		common.AppName,
		uint32(0),
		notifyIcon,
		title,
		message,
		[]string{},
		hints,
		int32(common.NotificationTimeout.Milliseconds()),
	)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	return nil
}

// NewNotifier returns a desktop notifier when enabled and reachable,
// or nil. Failures are logged and otherwise ignored.
func NewNotifier(enabled bool) common.Notifier {
	if !enabled {
		return nil
	}
	n, err := NewDesktopNotifier()
	if err != nil {
		common.LogDebug("Desktop notifications unavailable: %v", err)
		return nil
	}
	return n
}
