// Package ui provides the terminal interface for the tunnel manager.
//
// The interface is a bubbletea program showing the tunnel list, newest
// first, with a detail pane for the selected tunnel.
//
// # Registry Updates
//
// Model implements tunnel.Observer. Insertions arrive as TunnelsAdded
// calls and are applied to the list at the reported positions. Removals
// have no notification, so the list is rebuilt from the registry after a
// delete completes.
//
// # Event Loop
//
// The registry is only touched from the bubbletea update loop. Completion
// callbacks are posted to the program as messages and run inside Update,
// which also covers the callback queued with Handle.WhenReady while the
// tunnels are still loading.
//
// # File Organization
//
//   - app.go: program setup and the registry dispatcher
//   - model.go: list model, key handling, observer
//   - detail.go: detail pane rendering
//   - styles.go: lipgloss styles
//   - notifications.go: desktop notifications over D-Bus
package ui
