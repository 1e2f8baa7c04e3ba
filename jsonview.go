package main

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/tidwall/pretty"
)

var jsonPrettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  "}

// eventJSON returns the event as indented JSON, keys in wire order.
func eventJSON(evt *nostr.Event) string {
	if evt == nil {
		return ""
	}
	return strings.TrimRight(string(pretty.PrettyOptions([]byte(evt.String()), jsonPrettyOptions)), "\n")
}

// filterJSON returns the wire form of f as indented JSON.
func filterJSON(f StructuredFilter) string {
	data, err := f.MarshalJSON()
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(pretty.PrettyOptions(data, jsonPrettyOptions)), "\n")
}

// highlightJSON colors JSON for the terminal with the named chroma style.
// Unknown styles or chroma errors return the input unchanged.
func highlightJSON(src, style string) string {
	if style == "" {
		return src
	}
	var buf strings.Builder
	if err := quick.Highlight(&buf, src, "json", "terminal256", style); err != nil {
		logger.Debugf("highlightJSON: %v", err)
		return src
	}
	return strings.TrimRight(buf.String(), "\n")
}

// neventFor encodes evt as a nevent pointing at relay.
func neventFor(evt *nostr.Event, relay string) (string, error) {
	var relays []string
	if relay != "" {
		relays = []string{relay}
	}
	return nip19.EncodeEvent(evt.ID, relays, evt.PubKey)
}
