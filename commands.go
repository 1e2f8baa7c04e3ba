package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// commandNames is the command-line vocabulary, in /help order.
var commandNames = []string{
	"/help", "/fetch", "/stream", "/stop", "/clear", "/since24h", "/untilnow",
	"/copy", "/qr", "/markdown", "/history", "/quit",
}

func (m *model) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.SplitN(text, " ", 2)
	cmd := strings.ToLower(parts[0])
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	logger.Debugf("handleCommand: cmd=%s arg=%q", cmd, arg)

	switch cmd {
	case "/help":
		m.addSystemMsg("commands: " + strings.Join(commandNames, " "))
		return m, nil

	case "/fetch":
		// /fetch [n]: bounded fetch, default limit when the form has none.
		if arg != "" {
			m.fields[fieldLimit].SetValue(arg)
		} else if m.fields[fieldLimit].Value() == "" {
			m.fields[fieldLimit].SetValue(fmt.Sprint(defaultLimit))
		}
		return m, m.submit()

	case "/stream":
		m.fields[fieldLimit].SetValue("")
		return m, m.submit()

	case "/stop":
		m.stop()
		return m, nil

	case "/clear":
		return m, m.clearFilters()

	case "/since24h":
		m.fields[fieldSince].SetValue(since24h(m.now()))
		return m, m.applyForm()

	case "/untilnow":
		m.fields[fieldUntil].SetValue(untilNow(m.now()))
		return m, m.applyForm()

	case "/copy":
		if arg == "filter" {
			st := m.feed.State()
			if !st.Acceptable {
				m.addSystemMsg("no filter to copy")
				return m, nil
			}
			return m, copyToClipboard(filterJSON(st.Filter))
		}
		return m, m.copySelected()

	case "/qr":
		m.showQR()
		return m, nil

	case "/markdown":
		m.markdown = !m.markdown
		m.updateViewport()
		return m, nil

	case "/history":
		recent := m.history.recent(5)
		if len(recent) == 0 {
			m.addSystemMsg("no history")
			return m, nil
		}
		var items []string
		for _, e := range recent {
			items = append(items, fmt.Sprintf("%s %s (%s)", e.Mode, e.Input.Relay, relativeTime(m.now(), e.Time)))
		}
		m.addSystemMsg("recent: " + strings.Join(items, " | ") + " · ctrl+p to recall")
		return m, nil

	case "/quit":
		return m.quit()
	}

	m.addSystemMsg(fmt.Sprintf("unknown command: %s (/help for commands)", cmd))
	return m, nil
}
