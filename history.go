package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const historyTimeLayout = "2006-01-02 15:04:05"

// HistoryEntry is one recorded activation: when it started, how, and the form
// that produced it.
type HistoryEntry struct {
	Time  time.Time
	Mode  string
	Input RawFilterInput
}

// escapeField escapes backslashes, newlines and tabs for single-line storage.
// Backslash is escaped first to avoid double-escaping.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}

// unescapeField reverses escapeField.
func unescapeField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '\\' {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i += 2
				continue
			case 't':
				b.WriteByte('\t')
				i += 2
				continue
			case '\\':
				b.WriteByte('\\')
				i += 2
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func formatHistoryLine(e HistoryEntry) string {
	in := e.Input
	fields := []string{
		e.Time.UTC().Format(historyTimeLayout),
		e.Mode,
		in.Relay, in.Kind, in.Limit, in.Author, in.Since, in.Until, in.Tags,
	}
	for i := range fields {
		fields[i] = escapeField(fields[i])
	}
	return strings.Join(fields, "\t") + "\n"
}

// parseHistoryLine parses a single tab-separated history line.
func parseHistoryLine(line string) (HistoryEntry, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 9 {
		return HistoryEntry{}, fmt.Errorf("expected 9 tab-separated fields, got %d", len(parts))
	}
	ts, err := time.Parse(historyTimeLayout, parts[0])
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("invalid timestamp %q: %w", parts[0], err)
	}
	for i := range parts {
		parts[i] = unescapeField(parts[i])
	}
	return HistoryEntry{
		Time: ts,
		Mode: parts[1],
		Input: RawFilterInput{
			Relay:  parts[2],
			Kind:   parts[3],
			Limit:  parts[4],
			Author: parts[5],
			Since:  parts[6],
			Until:  parts[7],
			Tags:   parts[8],
		},
	}, nil
}

// appendHistoryEntry appends one activation to the history file. Failures are
// logged and otherwise ignored.
func appendHistoryEntry(path string, e HistoryEntry) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Warnf("history: failed to create dir: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logger.Warnf("history: failed to open %s: %v", path, err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(formatHistoryLine(e)); err != nil {
		logger.Warnf("history: failed to write to %s: %v", path, err)
	}
}

// loadHistory returns the last n entries of the history file, oldest first.
func loadHistory(path string, n int) ([]HistoryEntry, error) {
	if path == "" || n <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := readLastNLines(f, n)
	if err != nil {
		return nil, fmt.Errorf("history: read %s: %w", path, err)
	}

	entries := make([]HistoryEntry, 0, len(lines))
	for _, line := range lines {
		e, err := parseHistoryLine(line)
		if err != nil {
			logger.Debugf("history: skipping malformed line in %s: %v", path, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// readLastNLines reads the last n lines from a file by seeking backward.
func readLastNLines(f *os.File, n int) ([]string, error) {
	const chunkSize = 8192

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := stat.Size()
	if size == 0 {
		return nil, nil
	}

	var buf []byte
	offset := size
	linesFound := 0

	for offset > 0 && linesFound <= n {
		readSize := min(int64(chunkSize), offset)
		offset -= readSize

		chunk := make([]byte, readSize)
		if _, err := f.ReadAt(chunk, offset); err != nil && err != io.EOF {
			return nil, err
		}
		buf = append(chunk, buf...)

		for _, b := range chunk {
			if b == '\n' {
				linesFound++
			}
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(string(buf)))
	scanner.Buffer(make([]byte, 0, 64*1024), len(buf)+1)
	var all []string
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			all = append(all, line)
		}
	}
	if len(all) > n {
		all = all[len(all)-n:]
	}
	return all, nil
}

// historyRing is the in-memory recall list behind ctrl+p.
type historyRing struct {
	entries []HistoryEntry
	size    int
	pos     int // index of the next entry to recall, counting back from the end
}

func newHistoryRing(entries []HistoryEntry, size int) *historyRing {
	h := &historyRing{size: size}
	for _, e := range entries {
		h.add(e)
	}
	return h
}

func (h *historyRing) add(e HistoryEntry) {
	// Skip consecutive duplicates so re-activating the same filter does not
	// push older ones out of reach.
	if n := len(h.entries); n > 0 && h.entries[n-1].Input == e.Input {
		h.entries[n-1] = e
	} else {
		h.entries = append(h.entries, e)
	}
	if h.size > 0 && len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
}

// rewind makes the next prev start from the newest entry again.
func (h *historyRing) rewind() {
	h.pos = 0
}

// prev returns the next older entry, wrapping to the newest.
func (h *historyRing) prev() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	if h.pos >= len(h.entries) {
		h.pos = 0
	}
	e := h.entries[len(h.entries)-1-h.pos]
	h.pos++
	return e, true
}

// recent returns up to n entries, newest first.
func (h *historyRing) recent(n int) []HistoryEntry {
	out := make([]HistoryEntry, 0, n)
	for i := len(h.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.entries[i])
	}
	return out
}
