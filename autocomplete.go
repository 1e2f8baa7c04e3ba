package main

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// updateSuggestions generates autocomplete suggestions for the command line.
func (m *model) updateSuggestions() {
	text := m.cmdInput.Value()
	if !strings.HasPrefix(text, "/") {
		text = "/" + text
	}

	tokens := strings.Fields(text)
	trailingSpace := text[len(text)-1] == ' '

	var suggestions []string
	switch {
	case len(tokens) <= 1 && !trailingSpace:
		// Partial top-level command: /he → /help
		prefix := "/"
		if len(tokens) == 1 {
			prefix = strings.ToLower(tokens[0])
		}
		for _, c := range commandNames {
			if strings.HasPrefix(c, prefix) && c != prefix {
				suggestions = append(suggestions, c)
			}
		}

	case strings.ToLower(tokens[0]) == "/copy":
		options := []string{"event", "filter"}
		switch {
		case len(tokens) == 1 && trailingSpace:
			suggestions = options
		case len(tokens) == 2 && !trailingSpace:
			prefix := strings.ToLower(tokens[1])
			for _, o := range options {
				if strings.HasPrefix(o, prefix) && o != prefix {
					suggestions = append(suggestions, o)
				}
			}
		}
	}

	if len(suggestions) == 0 {
		m.acSuggestions = nil
		m.acIndex = 0
		return
	}

	// Reset index when the suggestion list changes.
	if !slices.Equal(suggestions, m.acSuggestions) {
		m.acIndex = 0
	}
	m.acSuggestions = suggestions
}

// acceptSuggestion replaces the partial token in input with the selected suggestion.
func (m *model) acceptSuggestion() {
	if len(m.acSuggestions) == 0 {
		return
	}
	if m.acIndex >= len(m.acSuggestions) {
		m.acIndex = 0
	}

	selected := m.acSuggestions[m.acIndex]
	text := m.cmdInput.Value()

	var newText string
	if strings.HasPrefix(selected, "/") {
		// Completing the command itself: replace entire text.
		newText = selected + " "
	} else if lastSpace := strings.LastIndex(text, " "); lastSpace >= 0 {
		// Completing an argument: replace from last space.
		newText = text[:lastSpace+1] + selected + " "
	} else {
		newText = selected + " "
	}

	m.cmdInput.SetValue(newText)
	m.cmdInput.CursorEnd()
	m.acSuggestions = nil
	m.acIndex = 0
	m.updateLayout()
}

// viewAutocomplete renders the suggestions on one line. When they do not
// fit, leading entries scroll off so the selected one stays visible.
func (m *model) viewAutocomplete() string {
	items := make([]string, len(m.acSuggestions))
	for i, s := range m.acSuggestions {
		style := acSuggestionStyle
		if i == m.acIndex {
			style = acSelectedStyle
		}
		items[i] = style.Render(s)
	}

	first := 0
	for first < m.acIndex && lipgloss.Width(strings.Join(items[first:m.acIndex+1], "")) > m.width-2 {
		first++
	}
	row := strings.Join(items[first:], "")
	if first > 0 {
		row = acSuggestionStyle.Render("◂") + row
	}
	return truncate.StringWithTail(row, uint(max(m.width, 1)), "▸")
}
