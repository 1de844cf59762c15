package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rmax-ai/blockgen/pkg/client"
	"github.com/rmax-ai/blockgen/pkg/diagram"
)

const viewportHeight = 12

var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	selectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	categoryStyles = map[diagram.Category]lipgloss.Style{
		diagram.CategoryPower:       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		diagram.CategoryInputs:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		diagram.CategoryProcessing:  lipgloss.NewStyle().Foreground(lipgloss.Color("99")),
		diagram.CategoryOutputs:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		diagram.CategoryPeripherals: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

func (m model) View() string {
	title := "Block Diagram"
	if m.description != "" {
		title = fmt.Sprintf("Block Diagram: %s", m.description)
	}
	if m.pending {
		title = fmt.Sprintf("%s %s  generating...", title, m.spinner.View())
	}
	header := headerStyle.Width(m.width).Render(title)

	var input string
	switch m.mode {
	case modePrompt:
		input = paneStyle.Width(m.width - 2).Render("Describe your product\n" + m.prompt.View())
	case modeConnect:
		input = paneStyle.Width(m.width - 2).Render(m.connectView())
	case modeEdit:
		input = paneStyle.Width(m.width - 2).Render(m.editView())
	}

	parts := []string{header, m.viewport.View()}
	if input != "" {
		parts = append(parts, input)
	}
	parts = append(parts, m.statusView(), subtleStyle.Render(m.helpView()))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refresh re-renders the working set into the viewport.
func (m *model) refresh() {
	m.viewport.SetContent(m.canvasView())
}

func (m model) canvasView() string {
	snap := m.ctrl.Snapshot()
	if len(snap.Nodes) == 0 {
		return subtleStyle.Render("Empty canvas. Press g to generate or t to load the template.")
	}

	var sb strings.Builder
	for i, n := range snap.Nodes {
		marker := "  "
		name := n.Data.Title
		if i == m.selected {
			marker = "> "
			name = selectStyle.Render(name)
		}
		cat := categoryStyles[n.Data.Category].Render(fmt.Sprintf("%-12s", n.Data.Category))
		fmt.Fprintf(&sb, "%s%s %s %s\n", marker, cat, name, subtleStyle.Render(fmt.Sprintf("@(%.0f,%.0f)", n.Position.X, n.Position.Y)))
		fmt.Fprintf(&sb, "    %s\n", strings.Join(n.Data.Components, ", "))
		if n.Data.Annotation != "" {
			fmt.Fprintf(&sb, "    %s\n", subtleStyle.Render(n.Data.Annotation))
		}
	}

	if len(snap.Edges) > 0 {
		sb.WriteString("\n")
	}
	for i, e := range snap.Edges {
		marker := "  "
		if i == m.edgeSel {
			marker = "* "
		}
		line := fmt.Sprintf("%s -> %s", e.Source, e.Target)
		if label, ok := e.LabelText(); ok && label != "" {
			line += ": " + label
		}
		fmt.Fprintf(&sb, "%s%s\n", marker, line)
	}
	return sb.String()
}

func (m model) connectView() string {
	snap := m.ctrl.Snapshot()
	if m.selected >= len(snap.Nodes) || m.target >= len(snap.Nodes) {
		return ""
	}
	return fmt.Sprintf("Connect %s -> %s  (up/down to pick target)\n%s",
		snap.Nodes[m.selected].Data.Title,
		selectStyle.Render(snap.Nodes[m.target].Data.Title),
		m.field.View())
}

func (m model) editView() string {
	if m.edit == nil {
		return ""
	}
	draft := m.edit.Draft()
	labels := []string{"Title: " + draft.Title, "Annotation: " + draft.Annotation}
	for i, c := range draft.Components {
		labels = append(labels, fmt.Sprintf("Component %d: %s", i+1, c))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Editing %s\n", m.edit.NodeID())
	for i, l := range labels {
		if i == m.editField {
			fmt.Fprintf(&sb, "> %s\n", m.field.View())
			continue
		}
		fmt.Fprintf(&sb, "  %s\n", l)
	}
	return sb.String()
}

func (m model) statusView() string {
	if m.notice.Title == "" {
		return ""
	}
	text := m.notice.Title
	if m.notice.Message != "" {
		text += ": " + m.notice.Message
	}
	switch m.notice.Level {
	case client.LevelError:
		return errorStyle.Render(text)
	case client.LevelWarn:
		return warnStyle.Render(text)
	default:
		return okStyle.Render(text)
	}
}

func (m model) helpView() string {
	switch m.mode {
	case modePrompt:
		return "enter generate • esc cancel"
	case modeConnect:
		return "enter connect • esc cancel"
	case modeEdit:
		return "tab next field • ctrl+n add component • ctrl+d remove component • enter save • esc discard"
	}
	return "g generate • t template • j/k select • HJKL move • c connect • e edit • x delete block • [ ] X delete link • r reset • s export • q quit"
}
