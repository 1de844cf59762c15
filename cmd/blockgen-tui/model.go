package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rmax-ai/blockgen/pkg/archive"
	"github.com/rmax-ai/blockgen/pkg/canvas"
	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/diagram"
	"github.com/rmax-ai/blockgen/pkg/graph"
	"github.com/rmax-ai/blockgen/pkg/store"
)

// nudge is how far one keypress moves a block on the canvas.
const nudge = 20

type mode int

const (
	modeBrowse mode = iota
	modePrompt
	modeConnect
	modeEdit
)

// Edit form fields. Components follow at fieldComponents+i.
const (
	fieldTitle = iota
	fieldAnnotation
	fieldComponents
)

type generatedMsg struct {
	ticket      canvas.Ticket
	description string
	diagram     diagram.Diagram
	err         error
}

type model struct {
	ctx     context.Context
	ctrl    *canvas.Controller
	backend store.Backend
	api     *client.Client
	archive *archive.Archive

	mode     mode
	spinner  spinner.Model
	prompt   textinput.Model
	field    textinput.Model
	viewport viewport.Model

	selected  int
	edgeSel   int
	target    int
	edit      *canvas.EditSession
	editField int

	description string
	pending     bool
	notice      client.Notification
	width       int
}

func newModel(ctx context.Context, ctrl *canvas.Controller, backend store.Backend, api *client.Client, arch *archive.Archive) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	prompt := textinput.New()
	prompt.Placeholder = "Bluetooth speaker with RGB lighting effects"
	prompt.CharLimit = 500
	prompt.Width = 80

	field := textinput.New()
	field.CharLimit = 200
	field.Width = 60

	vp := viewport.New(100, viewportHeight)
	vp.Style = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		PaddingRight(2)

	m := model{
		ctx:      ctx,
		ctrl:     ctrl,
		backend:  backend,
		api:      api,
		archive:  arch,
		spinner:  s,
		prompt:   prompt,
		field:    field,
		viewport: vp,
		width:    100,
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		var cmd tea.Cmd
		switch m.mode {
		case modePrompt:
			m, cmd = m.updatePrompt(msg)
		case modeConnect:
			m, cmd = m.updateConnect(msg)
		case modeEdit:
			m, cmd = m.updateEdit(msg)
		default:
			m, cmd = m.updateBrowse(msg)
		}
		m.refresh()
		return m, cmd

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case generatedMsg:
		m = m.applyGenerated(msg)
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
		m.refresh()
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (model, tea.Cmd) {
	snap := m.ctrl.Snapshot()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "g":
		m.mode = modePrompt
		m.prompt.SetValue(m.description)
		return m, m.prompt.Focus()
	case "t":
		m.report(m.ctrl.Load(m.ctx, diagram.DefaultTemplate()), "Template loaded")
		m.description = ""
		m.selected = 0
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j", "tab":
		if m.selected < len(snap.Nodes)-1 {
			m.selected++
		}
	case "H", "J", "K", "L":
		m.move(msg.String())
	case "[":
		if m.edgeSel > 0 {
			m.edgeSel--
		}
	case "]":
		if m.edgeSel < len(snap.Edges)-1 {
			m.edgeSel++
		}
	case "c":
		if len(snap.Nodes) < 2 {
			m.notice = client.Notification{Level: client.LevelWarn, Title: "Connect", Message: "Need at least two blocks."}
			return m, nil
		}
		m.mode = modeConnect
		m.target = m.nextTarget(m.selected, 1)
		m.field.Reset()
		m.field.Placeholder = "label (optional)"
		return m, m.field.Focus()
	case "e":
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		sess, err := m.ctrl.BeginEdit(id)
		if err != nil {
			m.report(err, "")
			return m, nil
		}
		m.edit = sess
		m.mode = modeEdit
		m.editField = fieldTitle
		m.loadField()
		return m, m.field.Focus()
	case "x":
		if id, ok := m.selectedID(); ok {
			m.report(m.ctrl.DeleteNode(m.ctx, id), "Block deleted")
			m.clampSelection()
		}
	case "X":
		if m.edgeSel >= 0 && m.edgeSel < len(snap.Edges) {
			m.report(m.ctrl.DeleteEdge(m.ctx, snap.Edges[m.edgeSel].ID), "Connection deleted")
			m.clampSelection()
		}
	case "r":
		m.report(m.ctrl.Reset(m.ctx), "Canvas cleared")
		m.description = ""
		m.selected, m.edgeSel = 0, 0
	case "s":
		m.export()
	}
	return m, nil
}

func (m model) updatePrompt(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.prompt.Blur()
		return m, nil
	case "enter":
		if m.pending {
			return m, nil
		}
		description := strings.TrimSpace(m.prompt.Value())
		if description == "" {
			m.notice = client.Notify(&client.ValidationError{Message: "description is required"})
			return m, nil
		}
		m.mode = modeBrowse
		m.prompt.Blur()
		m.pending = true
		m.notice = client.Notification{}
		ticket := m.ctrl.BeginRequest()
		return m, tea.Batch(m.spinner.Tick, generate(m.ctx, m.api, ticket, description))
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m model) updateConnect(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.field.Blur()
		return m, nil
	case "up":
		m.target = m.nextTarget(m.target, -1)
		return m, nil
	case "down", "tab":
		m.target = m.nextTarget(m.target, 1)
		return m, nil
	case "enter":
		snap := m.ctrl.Snapshot()
		m.mode = modeBrowse
		m.field.Blur()
		if m.selected >= len(snap.Nodes) || m.target >= len(snap.Nodes) {
			return m, nil
		}
		_, err := m.ctrl.Connect(m.ctx, snap.Nodes[m.selected].ID, snap.Nodes[m.target].ID, strings.TrimSpace(m.field.Value()))
		m.report(err, "Connected")
		return m, nil
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m model) updateEdit(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.edit.Cancel()
		m.edit = nil
		m.mode = modeBrowse
		m.field.Blur()
		m.notice = client.Notification{Level: client.LevelInfo, Title: "Edit", Message: "Changes discarded."}
		return m, nil
	case "tab", "down":
		m.storeField()
		m.editField = (m.editField + 1) % m.fieldCount()
		m.loadField()
		return m, nil
	case "shift+tab", "up":
		m.storeField()
		m.editField = (m.editField + m.fieldCount() - 1) % m.fieldCount()
		m.loadField()
		return m, nil
	case "ctrl+n":
		m.storeField()
		if err := m.edit.AddComponent(""); err != nil {
			m.report(err, "")
			return m, nil
		}
		m.editField = m.fieldCount() - 1
		m.loadField()
		return m, nil
	case "ctrl+d":
		if m.editField < fieldComponents {
			return m, nil
		}
		if err := m.edit.RemoveComponent(m.editField - fieldComponents); err != nil {
			m.report(err, "")
			return m, nil
		}
		if m.editField >= m.fieldCount() {
			m.editField = m.fieldCount() - 1
		}
		m.loadField()
		return m, nil
	case "enter", "ctrl+s":
		m.storeField()
		m.report(m.edit.Confirm(m.ctx), "Block updated")
		m.edit = nil
		m.mode = modeBrowse
		m.field.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return m, cmd
}

func (m model) applyGenerated(msg generatedMsg) model {
	m.pending = false
	if msg.err != nil {
		m.notice = client.Notify(msg.err)
		return m
	}

	err := m.ctrl.ReplaceIfCurrent(m.ctx, msg.ticket, msg.diagram)
	if errors.Is(err, canvas.ErrStaleResult) {
		return m
	}
	m.description = msg.description
	m.selected, m.edgeSel = 0, 0
	if err == nil && m.backend != nil {
		err = m.backend.SetDescription(m.ctx, msg.description)
	}
	if err != nil {
		m.report(err, "")
		return m
	}
	m.notice = client.Notify(nil)
	return m
}

func (m *model) move(key string) {
	id, ok := m.selectedID()
	if !ok {
		return
	}
	n, _ := m.ctrl.Node(id)
	pos := n.Position
	switch key {
	case "H":
		pos.X -= nudge
	case "L":
		pos.X += nudge
	case "K":
		pos.Y -= nudge
	case "J":
		pos.Y += nudge
	}
	m.report(m.ctrl.MoveNode(m.ctx, id, pos), "")
}

func (m *model) export() {
	snap := m.ctrl.Snapshot()
	if len(snap.Nodes) == 0 {
		m.notice = client.Notification{Level: client.LevelWarn, Title: "Export", Message: "Nothing to export."}
		return
	}
	key, err := m.archive.Save(m.ctx, graph.NewExport(m.description, snap.Nodes, snap.Edges, time.Now()))
	if err != nil {
		m.notice = client.Notification{Level: client.LevelError, Title: "Export failed", Message: err.Error()}
		return
	}
	m.notice = client.Notification{Level: client.LevelInfo, Title: "Exported", Message: key}
}

// report turns the result of a canvas operation into the status line. A
// failed store sync leaves the edit applied locally.
func (m *model) report(err error, ok string) {
	switch {
	case err == nil && ok == "":
		return
	case err == nil:
		m.notice = client.Notification{Level: client.LevelInfo, Title: ok}
	case errors.Is(err, canvas.ErrSyncFailed):
		m.notice = client.Notification{Level: client.LevelWarn, Title: "Not saved", Message: err.Error()}
	default:
		m.notice = client.Notification{Level: client.LevelError, Title: "Error", Message: err.Error()}
	}
}

func (m *model) selectedID() (string, bool) {
	snap := m.ctrl.Snapshot()
	if m.selected < 0 || m.selected >= len(snap.Nodes) {
		return "", false
	}
	return snap.Nodes[m.selected].ID, true
}

func (m *model) clampSelection() {
	snap := m.ctrl.Snapshot()
	if m.selected >= len(snap.Nodes) {
		m.selected = max(len(snap.Nodes)-1, 0)
	}
	if m.edgeSel >= len(snap.Edges) {
		m.edgeSel = max(len(snap.Edges)-1, 0)
	}
}

// nextTarget steps from i in direction dir, skipping the selected block.
func (m *model) nextTarget(i, dir int) int {
	n := len(m.ctrl.Snapshot().Nodes)
	if n < 2 {
		return 0
	}
	for {
		i = (i + dir + n) % n
		if i != m.selected {
			return i
		}
	}
}

func (m *model) fieldCount() int {
	return fieldComponents + len(m.edit.Draft().Components)
}

func (m *model) loadField() {
	draft := m.edit.Draft()
	switch {
	case m.editField == fieldTitle:
		m.field.Placeholder = "title"
		m.field.SetValue(draft.Title)
	case m.editField == fieldAnnotation:
		m.field.Placeholder = "annotation"
		m.field.SetValue(draft.Annotation)
	default:
		m.field.Placeholder = "component"
		m.field.SetValue(draft.Components[m.editField-fieldComponents])
	}
}

func (m *model) storeField() {
	value := strings.TrimSpace(m.field.Value())
	var err error
	switch {
	case m.editField == fieldTitle:
		err = m.edit.SetTitle(value)
	case m.editField == fieldAnnotation:
		err = m.edit.SetAnnotation(value)
	default:
		err = m.edit.SetComponent(m.editField-fieldComponents, value)
	}
	m.report(err, "")
}

func generate(ctx context.Context, api *client.Client, ticket canvas.Ticket, description string) tea.Cmd {
	return func() tea.Msg {
		d, err := api.Generate(ctx, description)
		return generatedMsg{ticket: ticket, description: description, diagram: d, err: err}
	}
}
