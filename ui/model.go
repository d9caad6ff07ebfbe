// Package ui provides the terminal interface for the tunnel manager.
// This file contains the tunnel list model.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yllada/wg-tunnels/common"
	"github.com/yllada/wg-tunnels/manager"
	"github.com/yllada/wg-tunnels/tunnel"
)

type mode int

const (
	modeList mode = iota
	modeDetail
	modeInput
	modeConfirm
)

type prompt int

const (
	promptImport prompt = iota
	promptNew
	promptUpdate
)

// runMsg carries a completion callback into the update loop.
type runMsg func()

type keyMap struct {
	quit       key.Binding
	forceQuit  key.Binding
	detail     key.Binding
	back       key.Binding
	remove     key.Binding
	importFile key.Binding
	update     key.Binding
	newTunnel  key.Binding
	confirm    key.Binding
	cancel     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
		detail:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		back:       key.NewBinding(key.WithKeys("esc", "enter", "backspace"), key.WithHelp("esc", "back")),
		remove:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		importFile: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		update:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "replace from file")),
		newTunnel:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		confirm:    key.NewBinding(key.WithKeys("y", "Y")),
		cancel:     key.NewBinding(key.WithKeys("n", "N", "esc")),
	}
}

// tunnelItem is a list row backed by a registry record.
type tunnelItem struct {
	rec *tunnel.Record
}

func (i tunnelItem) Title() string       { return i.rec.Name() }
func (i tunnelItem) FilterValue() string { return i.rec.Name() }

func (i tunnelItem) Description() string {
	cfg := i.rec.Configuration()
	return publicKey(cfg.Interface.PrivateKey) + " · " + plural(len(cfg.Peers), "peer")
}

// Model is the bubbletea model for the tunnel list.
// It observes the registry once the manager's handle resolves.
type Model struct {
	ctx    context.Context
	mgr    *manager.Manager
	reg    *tunnel.Registry
	keys   keyMap
	list   list.Model
	input  textinput.Model
	mode   mode
	prompt prompt
	focus  string
	detail *tunnel.Record
	status string
	err    error
	cmds   []tea.Cmd
}

// NewModel creates the list model. focus names a tunnel to open in the
// detail pane once the tunnels are loaded.
func NewModel(ctx context.Context, mgr *manager.Manager, focus string) *Model {
	keys := newKeyMap()

	l := list.New(nil, list.NewDefaultDelegate(), 80, 24)
	l.Title = "Tunnels"
	l.Styles.Title = titleStyle
	l.SetStatusBarItemName("tunnel", "tunnels")
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.detail, keys.remove, keys.importFile, keys.update, keys.newTunnel}
	}
	l.AdditionalFullHelpKeys = l.AdditionalShortHelpKeys

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4096

	m := &Model{
		ctx:   ctx,
		mgr:   mgr,
		keys:  keys,
		list:  l,
		input: input,
		focus: focus,
	}
	mgr.Handle().WhenReady(m.attach)
	return m
}

// attach binds the model to a loaded registry.
func (m *Model) attach(reg *tunnel.Registry) {
	m.reg = reg
	tunnel.SetObserver(reg, m)
	m.reload()

	if m.focus == "" {
		return
	}
	rec, ok := reg.Find(m.focus)
	if !ok {
		m.err = fmt.Errorf("%w: %s", tunnel.ErrTunnelNotFound, m.focus)
		return
	}
	m.list.Select(rec.Position())
	m.detail = rec
	m.mode = modeDetail
}

// TunnelsAdded inserts rows for new records and selects the first one.
func (m *Model) TunnelsAdded(startPosition, count int) {
	for pos := startPosition; pos < startPosition+count; pos++ {
		rec, err := m.reg.RecordAt(pos)
		if err != nil {
			common.LogWarn("Observer out of step with registry: %v", err)
			m.reload()
			return
		}
		m.cmds = append(m.cmds, m.list.InsertItem(pos, tunnelItem{rec: rec}))
	}
	m.list.Select(startPosition)
}

// reload rebuilds the rows from the registry, keeping the selection on
// the same record when it still exists.
func (m *Model) reload() {
	selectedID := ""
	if item, ok := m.list.SelectedItem().(tunnelItem); ok {
		selectedID = item.rec.ID()
	}
	index := m.list.Index()

	records := m.reg.Records()
	items := make([]list.Item, len(records))
	for i, rec := range records {
		items[i] = tunnelItem{rec: rec}
		if rec.ID() == selectedID {
			index = i
		}
	}
	m.cmds = append(m.cmds, m.list.SetItems(items))
	if len(items) > 0 {
		m.list.Select(min(index, len(items)-1))
	}
}

func (m *Model) selected() (*tunnel.Record, bool) {
	item, ok := m.list.SelectedItem().(tunnelItem)
	if !ok {
		return nil, false
	}
	return item.rec, true
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	cmds := append(m.cmds, cmd)
	m.cmds = nil
	return m, tea.Batch(cmds...)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case runMsg:
		msg()
		return nil

	case tea.WindowSizeMsg:
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-2)
		return nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return tea.Quit
		}
		if m.reg == nil {
			if key.Matches(msg, m.keys.quit) {
				return tea.Quit
			}
			return nil
		}
		switch m.mode {
		case modeDetail:
			return m.updateDetail(msg)
		case modeInput:
			return m.updateInput(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		}
		if m.list.FilterState() != list.Filtering {
			if cmd, handled := m.updateList(msg); handled {
				return cmd
			}
		}
	}

	if m.reg == nil {
		return nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.detail):
		if rec, ok := m.selected(); ok {
			m.detail = rec
			m.mode = modeDetail
		}
		return nil, true
	case key.Matches(msg, m.keys.remove):
		if _, ok := m.selected(); ok {
			m.mode = modeConfirm
		}
		return nil, true
	case key.Matches(msg, m.keys.importFile):
		return m.startInput(promptImport, "path to .conf file"), true
	case key.Matches(msg, m.keys.update):
		if _, ok := m.selected(); !ok {
			return nil, true
		}
		return m.startInput(promptUpdate, "path to replacement .conf file"), true
	case key.Matches(msg, m.keys.newTunnel):
		return m.startInput(promptNew, "tunnel name"), true
	}
	return nil, false
}

func (m *Model) updateDetail(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.quit):
		return tea.Quit
	case key.Matches(msg, m.keys.back):
		m.detail = nil
		m.mode = modeList
	}
	return nil
}

func (m *Model) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.confirm):
		m.mode = modeList
		if rec, ok := m.selected(); ok {
			m.deleteTunnel(rec.Name())
		}
	case key.Matches(msg, m.keys.cancel):
		m.mode = modeList
	}
	return nil
}

func (m *Model) startInput(p prompt, placeholder string) tea.Cmd {
	m.prompt = p
	m.mode = modeInput
	m.input.Reset()
	m.input.Placeholder = placeholder
	return m.input.Focus()
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		m.mode = modeList
		return nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		m.mode = modeList
		if value == "" {
			return nil
		}
		switch m.prompt {
		case promptImport:
			m.mgr.Import(m.ctx, value, m.onAdded)
		case promptNew:
			m.mgr.Generate(m.ctx, value, m.onAdded)
		case promptUpdate:
			if rec, ok := m.selected(); ok {
				name := rec.Name()
				m.mgr.UpdateFromFile(m.ctx, name, value, func(err error) {
					if err != nil {
						m.setError(err)
						return
					}
					m.setStatus("Updated " + name)
				})
			}
		}
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) onAdded(rec *tunnel.Record, err error) {
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Added " + rec.Name())
}

// deleteTunnel removes name and rebuilds the list when the removal
// completes, since the registry does not report removals.
func (m *Model) deleteTunnel(name string) {
	m.mgr.Delete(m.ctx, name, func(err error) {
		if err != nil {
			m.setError(err)
			return
		}
		m.reload()
		m.setStatus("Deleted " + name)
	})
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.err = nil
}

func (m *Model) setError(err error) {
	common.LogError("%v", err)
	m.err = err
	m.status = ""
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.reg == nil {
		if m.err != nil {
			return appStyle.Render(errorStyle.Render("Failed to load tunnels: "+m.err.Error()) +
				"\n\n" + hintStyle.Render("q quit"))
		}
		return appStyle.Render(titleStyle.Render(common.AppName) + "\n\nLoading tunnels…")
	}

	var b strings.Builder
	if m.mode == modeDetail && m.detail != nil {
		b.WriteString(renderDetail(m.detail))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("esc back · q quit"))
	} else {
		b.WriteString(m.list.View())
	}
	b.WriteString("\n")
	b.WriteString(m.footer())
	return appStyle.Render(b.String())
}

func (m *Model) footer() string {
	switch m.mode {
	case modeInput:
		label := "Import"
		switch m.prompt {
		case promptNew:
			label = "New tunnel"
		case promptUpdate:
			if rec, ok := m.selected(); ok {
				label = "Replace " + rec.Name() + " from"
			}
		}
		return label + " " + m.input.View()
	case modeConfirm:
		if rec, ok := m.selected(); ok {
			return errorStyle.Render(fmt.Sprintf("Delete tunnel %s? (y/n)", rec.Name()))
		}
	}
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
