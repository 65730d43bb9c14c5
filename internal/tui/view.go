package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpText = "tab/1-4 switch • space play • d reject • a add result • u url • s search • / filter • e export • o autoplay • q quit"

func (m Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("Music Queue Manager  ·  %d pending", len(m.snap.Pending))
	if m.player != nil {
		state := "off"
		if m.player.Autoplay() {
			state = "on"
		}
		header += "  ·  autoplay " + state
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(m.tabsView())
	b.WriteString("\n")

	if m.active == tabSearch {
		b.WriteString("Search: " + m.searchInput.View() + "\n")
	}
	if f := m.filters[m.active]; f != "" || m.focus == focusFilter {
		b.WriteString("Filter: " + m.filterInput.View() + "\n")
	}
	b.WriteString(borderStyle.Render(m.tables[m.active].View()))
	b.WriteString("\n")

	b.WriteString("Add URL: " + m.urlInput.View() + "\n")
	if m.status != "" {
		style := infoStyle
		if m.statusErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, tabCount)
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if tab(i) == m.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
