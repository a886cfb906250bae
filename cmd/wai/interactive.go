package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/abi"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browseModel struct {
	calc      *abi.Calculator
	filter    textinput.Model
	entries   []browseEntry
	visible   []int
	selected  int
	filtering bool
	state     browseState
}

type browseEntry struct {
	iface *wai.Interface
	td    *wai.TypeDef
	fn    *wai.Function
	name  string
}

type browseState int

const (
	stateBrowse browseState = iota
	stateDetail
)

func newBrowseModel(ifaces []*wai.Interface) *browseModel {
	m := &browseModel{calc: abi.NewCalculator()}

	for _, iface := range ifaces {
		for _, td := range iface.TypeDefs {
			m.entries = append(m.entries, browseEntry{
				iface: iface,
				td:    td,
				name:  iface.Name + "." + td.Name,
			})
		}
		for _, fn := range iface.Functions {
			m.entries = append(m.entries, browseEntry{
				iface: iface,
				fn:    fn,
				name:  iface.Name + "." + fn.Name,
			})
		}
		for _, res := range iface.Resources {
			for _, fn := range res.Kind.(*wai.Resource).Functions {
				m.entries = append(m.entries, browseEntry{
					iface: iface,
					fn:    fn,
					name:  iface.Name + "." + res.Name + "." + fn.Name,
				})
			}
		}
	}

	m.filter = textinput.New()
	m.filter.Placeholder = "filter"
	m.filter.Prompt = "/ "
	m.filter.Width = 40
	m.refilter()
	return m
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter", "esc":
			m.filtering = false
			m.filter.Blur()
			if key.String() == "esc" {
				m.filter.SetValue("")
				m.refilter()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refilter()
			return m, cmd
		}
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.state == stateBrowse && m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.state == stateBrowse && m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "/":
		if m.state == stateBrowse {
			m.filtering = true
			m.filter.Focus()
		}

	case "enter":
		if m.state == stateBrowse && len(m.visible) > 0 {
			m.state = stateDetail
		}

	case "esc":
		if m.state == stateDetail {
			m.state = stateBrowse
		}
	}

	return m, nil
}

// refilter recomputes the visible entry set from the filter text and
// clamps the selection.
func (m *browseModel) refilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, e := range m.entries {
		if needle == "" || strings.Contains(strings.ToLower(e.name), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = 0
	}
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("wai browser"))
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse:
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matches"))
			b.WriteString("\n")
		}
		for i, idx := range m.visible {
			line := m.entryLine(m.entries[idx])
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter details • / filter • q quit"))

	case stateDetail:
		e := m.entries[m.visible[m.selected]]
		b.WriteString(nameStyle.Render(e.name))
		b.WriteString("\n\n")
		if e.td != nil {
			b.WriteString(detailStyle.Render(typeDetail(m.calc, e.td)))
		} else {
			b.WriteString(detailStyle.Render(functionDetail(m.calc, e.fn)))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("esc back • q quit"))
	}

	return b.String()
}

func (m *browseModel) entryLine(e browseEntry) string {
	if e.td != nil {
		return typeStyle.Render(kindString(e.td.Kind)) + " " + nameStyle.Render(e.name)
	}
	return typeStyle.Render("func") + " " + nameStyle.Render(e.name)
}

func runInteractive(ifaces []*wai.Interface) error {
	p := tea.NewProgram(newBrowseModel(ifaces), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
