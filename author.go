package main

import (
	"strings"

	"github.com/nbd-wtf/go-nostr/nip19"
)

// DecodeResult tells how decodeAuthor arrived at its output.
type DecodeResult int

const (
	// DecodePassthrough: no npub prefix, the input is used as hex.
	DecodePassthrough DecodeResult = iota
	// DecodeOK: a valid npub was decoded to its hex pubkey.
	DecodeOK
	// DecodeSkipped: looked like an npub but did not decode; the input is
	// used literally.
	DecodeSkipped
)

func (d DecodeResult) String() string {
	switch d {
	case DecodeOK:
		return "decoded"
	case DecodeSkipped:
		return "skipped"
	default:
		return "passthrough"
	}
}

// decodeAuthor converts an npub to a hex pubkey. It never fails: anything it
// cannot decode comes back unchanged.
func decodeAuthor(author string) (string, DecodeResult) {
	if !strings.HasPrefix(author, "npub") {
		return author, DecodePassthrough
	}
	prefix, val, err := nip19.Decode(author)
	if err != nil || prefix != "npub" {
		return author, DecodeSkipped
	}
	pk, ok := val.(string)
	if !ok || pk == "" {
		return author, DecodeSkipped
	}
	return pk, DecodeOK
}
