package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(playing bool) string {
	if !playing {
		return "space play  q quit"
	}
	return "space pause  ↑/↓ volume  q quit"
}
