// Package ui provides the terminal interface for the tunnel manager.
// This file contains the main application structure.
package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/manager"
	"github.com/yllada/wg-tunnels/store"
	"github.com/yllada/wg-tunnels/tunnel"
)

// Options holds what the application needs from its caller.
type Options struct {
	Store   store.Store
	Secrets common.SecretStore
	// Notifications enables desktop notifications on add and delete.
	Notifications bool
	// Focus names a tunnel to show once loading finishes.
	Focus string
}

// Application represents the terminal application.
type Application struct {
	ctx     context.Context
	manager *manager.Manager
	model   *Model
	program *tea.Program
}

// NewApplication creates the program and its manager. Registry callbacks
// are delivered through the program so they run in the update loop.
func NewApplication(ctx context.Context, opts Options) *Application {
	app := &Application{ctx: ctx}

	// Send blocks until the loop receives the message, so it must not run
	// on the loop's own goroutine.
	dispatch := func(fn func()) {
		go app.program.Send(runMsg(fn))
	}

	mgrOpts := []manager.Option{
		manager.WithRegistryOptions(tunnel.WithDispatcher(dispatch)),
	}
	if n := NewNotifier(opts.Notifications); n != nil {
		mgrOpts = append(mgrOpts, manager.WithNotifier(n))
	}
	app.manager = manager.New(opts.Store, opts.Secrets, mgrOpts...)
	app.model = NewModel(ctx, app.manager, opts.Focus)
	app.program = tea.NewProgram(app.model, tea.WithAltScreen(), tea.WithContext(ctx))
	return app
}

// Run loads the tunnels and blocks until the user quits.
func (a *Application) Run() error {
	logger := common.GetLogger()
	logger.SetConsole(false)
	defer logger.SetConsole(true)

	a.manager.Open(a.ctx, func(_ *tunnel.Registry, err error) {
		if err != nil {
			a.model.setError(err)
		}
	})

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("terminal interface: %w", err)
	}
	return nil
}

// Manager returns the tunnel manager used by the application.
func (a *Application) Manager() *manager.Manager {
	return a.manager
}
