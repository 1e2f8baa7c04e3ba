package main

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	tea "github.com/charmbracelet/bubbletea"
)

type clipboardCopiedMsg struct {
	bytes int
	via   string
}

// clipboardOut is where the OSC 52 fallback is written.
var clipboardOut io.Writer = os.Stderr

// copyToClipboard copies text to the system clipboard, falling back to the
// OSC 52 escape sequence when no clipboard tool is available (SSH, bare TTY).
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if !clipboard.Unsupported {
			err := clipboard.WriteAll(text)
			if err == nil {
				logger.Debugf("clipboard: copied %d bytes via system clipboard", len(text))
				return clipboardCopiedMsg{bytes: len(text), via: "clipboard"}
			}
			logger.Debugf("clipboard: system clipboard failed: %v", err)
		}

		if _, err := osc52.New(text).WriteTo(clipboardOut); err != nil {
			logger.Warnf("clipboard: OSC 52 failed: %v", err)
			return clipboardErrMsg{err: err}
		}
		logger.Debugf("clipboard: sent %d bytes via OSC 52", len(text))
		return clipboardCopiedMsg{bytes: len(text), via: "OSC 52"}
	}
}

type clipboardErrMsg struct {
	err error
}
