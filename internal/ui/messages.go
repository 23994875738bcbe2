package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/barviz/internal/asset"
)

// frameInterval paces both the analysis loop and the prompt fade.
const frameInterval = time.Second / 30

type frameMsg time.Time
type progressMsg asset.Progress

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func waitForProgress(ch <-chan asset.Progress) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}
