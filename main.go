package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"
)

func main() {
	configFlag := flag.String("config", "", "path to config file")
	debugFlag := flag.Bool("debug", false, "enable debug logging to debug.log")
	relayFlag := flag.StringP("relay", "r", "", "relay address (wss:// is assumed when no scheme is given)")
	kindFlag := flag.StringP("kind", "k", "", "comma-separated event kinds")
	limitFlag := flag.StringP("limit", "l", "", "fetch at most N events instead of streaming")
	authorFlag := flag.StringP("author", "a", "", "author npub or hex pubkey")
	sinceFlag := flag.String("since", "", "unix timestamp lower bound")
	untilFlag := flag.String("until", "", "unix timestamp upper bound")
	tagsFlag := flag.StringP("tags", "t", "", "tag filters, name:value[,name:value...]")
	flag.Parse()

	if *debugFlag {
		closeLog, err := initLogger("debug.log")
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not open debug log: %v\n", err)
			os.Exit(1)
		}
		defer closeLog()
		logger.Info("debug logging enabled")
	}

	cfg, err := LoadConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Flags override the config file.
	overrides := []struct {
		name string
		dst  *string
		val  string
	}{
		{"relay", &cfg.Relay, *relayFlag},
		{"kind", &cfg.Filter.Kind, *kindFlag},
		{"limit", &cfg.Filter.Limit, *limitFlag},
		{"author", &cfg.Filter.Author, *authorFlag},
		{"since", &cfg.Filter.Since, *sinceFlag},
		{"until", &cfg.Filter.Until, *untilFlag},
		{"tags", &cfg.Filter.Tags, *tagsFlag},
	}
	for _, o := range overrides {
		if flag.CommandLine.Changed(o.name) {
			*o.dst = o.val
		}
	}
	logger.Infof("config loaded: relay=%q", cfg.Relay)

	histPath := historyPath(cfg, *configFlag)
	var history []HistoryEntry
	if cfg.HistoryEnabled() {
		history, err = loadHistory(histPath, cfg.HistorySize)
		if err != nil {
			logger.Warnf("history: %v", err)
		}
	}

	// Detect the markdown style before the TUI starts so the terminal
	// background-color query (OSC 11) completes while stdio is still normal.
	mdStyle := detectGlamourStyle()

	feed := newFeedController(nostrTransport{})
	m := newModel(cfg, histPath, feed, history, mdStyle)

	logger.Info("starting TUI")
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		feed.Shutdown()
		os.Exit(1)
	}

	feed.Shutdown()
}
