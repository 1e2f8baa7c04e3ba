package main

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/nbd-wtf/go-nostr"
)

// formField indexes the filter form inputs, top to bottom.
type formField int

const (
	fieldRelay formField = iota
	fieldKind
	fieldLimit
	fieldAuthor
	fieldSince
	fieldUntil
	fieldTags
	fieldCount
)

var fieldLabels = [fieldCount]string{"relay", "kind", "limit", "author", "since", "until", "tags"}

var fieldPlaceholders = [fieldCount]string{
	"wss://relay.damus.io",
	"1,7 (empty = all kinds)",
	"empty = live stream",
	"npub1... or hex",
	"unix seconds (ctrl+t = 24h ago)",
	"unix seconds (ctrl+n = now)",
	"t:nostr,p:<hex>",
}

type model struct {
	cfg      Config
	histPath string
	feed     *feedController
	history  *historyRing

	// TUI dimensions
	width  int
	height int

	// Form
	fields []textinput.Model
	focus  formField

	// Command line (ctrl+k)
	cmdInput  textinput.Model
	cmdActive bool

	// Autocomplete for the command line
	acSuggestions []string
	acIndex       int

	// Event list and detail pane
	viewport viewport.Model
	selected int
	mdRender *glamour.TermRenderer
	mdStyle  string
	markdown bool

	// systemMsg is the one-line notice under the form.
	systemMsg string

	// QR overlay (non-empty = show full-screen QR)
	qrOverlay string

	now func() time.Time
}

func newModel(cfg Config, histPath string, feed *feedController, history []HistoryEntry, mdStyle string) *model {
	fields := make([]textinput.Model, fieldCount)
	for i := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fieldPlaceholders[i]
		ti.CharLimit = 512
		fields[i] = ti
	}
	fields[fieldRelay].Focus()

	ci := textinput.New()
	ci.Prompt = "> "
	ci.Placeholder = "/help"
	ci.CharLimit = 256

	m := &model{
		cfg:      cfg,
		histPath: histPath,
		feed:     feed,
		history:  newHistoryRing(history, cfg.HistorySize),
		width:    80,
		height:   24,
		fields:   fields,
		cmdInput: ci,
		viewport: viewport.New(80, 10),
		mdStyle:  mdStyle,
		now:      time.Now,
	}
	feed.onActivate = m.recordActivation
	m.setForm(cfg.Input())
	return m
}

func (m *model) Init() tea.Cmd {
	logger.Debugf("Init: relay=%q", m.fields[fieldRelay].Value())
	return tea.Batch(textinput.Blink, m.applyForm())
}

// formInput reads the form as raw filter input.
func (m *model) formInput() RawFilterInput {
	return RawFilterInput{
		Relay:  m.fields[fieldRelay].Value(),
		Kind:   m.fields[fieldKind].Value(),
		Limit:  m.fields[fieldLimit].Value(),
		Author: m.fields[fieldAuthor].Value(),
		Since:  m.fields[fieldSince].Value(),
		Until:  m.fields[fieldUntil].Value(),
		Tags:   m.fields[fieldTags].Value(),
	}
}

// setForm overwrites every form field. It does not notify the controller.
func (m *model) setForm(raw RawFilterInput) {
	vals := [fieldCount]string{raw.Relay, raw.Kind, raw.Limit, raw.Author, raw.Since, raw.Until, raw.Tags}
	for i, v := range vals {
		m.fields[i].SetValue(v)
	}
}

// applyForm hands the form to the controller and redraws.
func (m *model) applyForm() tea.Cmd {
	cmd := m.feed.SetInput(m.formInput())
	m.clampSelection()
	m.updateViewport()
	return cmd
}

func (m *model) setFocus(f formField) {
	m.fields[m.focus].Blur()
	m.focus = (f + fieldCount) % fieldCount
	if !m.cmdActive {
		m.fields[m.focus].Focus()
	}
}

// recordActivation is the controller's activation hook: every started run
// lands in the history file and the recall ring.
func (m *model) recordActivation(mode FeedMode, addr string, _ StructuredFilter) {
	raw := m.feed.Input()
	e := HistoryEntry{Time: m.now(), Mode: mode.String(), Input: raw}
	m.history.add(e)
	if m.cfg.HistoryEnabled() {
		appendHistoryEntry(m.histPath, e)
	}
	logger.Debugf("recordActivation: mode=%s relay=%s", mode, addr)
}

// selectedEvent returns the highlighted event, if any.
func (m *model) selectedEvent() *nostr.Event {
	evts := m.feed.State().Events
	if m.selected < 0 || m.selected >= len(evts) {
		return nil
	}
	return evts[m.selected]
}

func (m *model) clampSelection() {
	n := len(m.feed.State().Events)
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// moveSelection moves the highlight by delta rows and keeps it on screen.
func (m *model) moveSelection(delta int) {
	m.selected += delta
	m.clampSelection()
	if m.selected < m.viewport.YOffset {
		m.viewport.SetYOffset(m.selected)
	} else if m.selected >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(m.selected - m.viewport.Height + 1)
	}
	m.updateViewport()
}

func (m *model) addSystemMsg(text string) {
	logger.Debugf("system: %s", text)
	m.systemMsg = text
}
