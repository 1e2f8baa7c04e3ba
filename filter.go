package main

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// defaultLimit is the limit sent when the user leaves the limit field empty.
const defaultLimit = 50

// RawFilterInput is the form as typed. Only Relay is required.
type RawFilterInput struct {
	Relay  string
	Kind   string
	Limit  string
	Author string
	Since  string
	Until  string
	Tags   string
}

// StructuredFilter is the parsed form. A nil or empty field is omitted from
// the wire filter entirely.
type StructuredFilter struct {
	Kinds   []int
	Authors []string
	Since   *nostr.Timestamp
	Until   *nostr.Timestamp
	Limit   *int
	Tags    nostr.TagMap
}

// FilterReport records what buildFilter dropped or degraded on the way.
type FilterReport struct {
	Author  DecodeResult
	Dropped []string
}

// buildFilter parses raw into a StructuredFilter. Malformed fields are left
// out and noted in the report; it never fails.
func buildFilter(raw RawFilterInput) (StructuredFilter, FilterReport) {
	var f StructuredFilter
	var rep FilterReport

	for _, part := range splitList(raw.Kind) {
		k, err := strconv.Atoi(part)
		if err != nil || k < 0 {
			rep.Dropped = append(rep.Dropped, "kind:"+part)
			continue
		}
		f.Kinds = append(f.Kinds, k)
	}

	for _, part := range splitList(raw.Author) {
		pk, res := decodeAuthor(part)
		if res > rep.Author {
			rep.Author = res
		}
		f.Authors = append(f.Authors, pk)
	}

	if ts, ok := parseTimestamp(raw.Since); ok {
		f.Since = &ts
	} else if strings.TrimSpace(raw.Since) != "" {
		rep.Dropped = append(rep.Dropped, "since")
	}
	if ts, ok := parseTimestamp(raw.Until); ok {
		f.Until = &ts
	} else if strings.TrimSpace(raw.Until) != "" {
		rep.Dropped = append(rep.Dropped, "until")
	}

	if s := strings.TrimSpace(raw.Limit); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			f.Limit = &n
		} else {
			rep.Dropped = append(rep.Dropped, "limit")
		}
	}

	f.Tags, rep.Dropped = parseTagExpr(raw.Tags, rep.Dropped)

	return f, rep
}

// parseTagExpr parses "t:bitcoin,p:abc123". Each segment splits on its first
// colon; segments without both a name and a value are dropped.
func parseTagExpr(expr string, dropped []string) (nostr.TagMap, []string) {
	tags := nostr.TagMap{}
	for _, seg := range splitList(expr) {
		name, value, ok := strings.Cut(seg, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			dropped = append(dropped, "tag:"+seg)
			continue
		}
		tags[name] = append(tags[name], value)
	}
	if len(tags) == 0 {
		return nil, dropped
	}
	return tags, dropped
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseTimestamp(s string) (nostr.Timestamp, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return nostr.Timestamp(v), true
}

// HasLimit reports whether the user supplied a limit. It decides between a
// bounded fetch and a stream.
func (f StructuredFilter) HasLimit() bool {
	return f.Limit != nil
}

// wire converts f into the go-nostr filter sent to the relay, falling back to
// fallbackLimit when no limit was given.
func (f StructuredFilter) wire(fallbackLimit int) nostr.Filter {
	nf := nostr.Filter{
		Kinds:   f.Kinds,
		Authors: f.Authors,
		Since:   f.Since,
		Until:   f.Until,
	}
	if len(f.Tags) > 0 {
		nf.Tags = f.Tags
	}
	limit := fallbackLimit
	if f.Limit != nil {
		limit = *f.Limit
	}
	nf.Limit = limit
	nf.LimitZero = limit == 0
	return nf
}

// MarshalJSON renders the wire shape: {kinds?, authors?, since?, until?,
// limit?, "#<tag>"?}. Absent fields have no key at all.
func (f StructuredFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.wireMap(f.Limit, false))
}

func (f StructuredFilter) wireMap(limit *int, canonical bool) map[string]any {
	m := map[string]any{}
	if len(f.Kinds) > 0 {
		kinds := f.Kinds
		if canonical {
			kinds = slices.Sorted(slices.Values(kinds))
		}
		m["kinds"] = kinds
	}
	if len(f.Authors) > 0 {
		authors := f.Authors
		if canonical {
			authors = slices.Sorted(slices.Values(authors))
		}
		m["authors"] = authors
	}
	if f.Since != nil {
		m["since"] = int64(*f.Since)
	}
	if f.Until != nil {
		m["until"] = int64(*f.Until)
	}
	if limit != nil {
		m["limit"] = *limit
	}
	for name, values := range f.Tags {
		if canonical {
			values = slices.Sorted(slices.Values(values))
		}
		m["#"+name] = values
	}
	return m
}

// activationKey identifies one activation: the normalized address plus the
// effective filter, default limit included. Two inputs with equal keys would
// send the same request to the same relay.
func activationKey(addr string, f StructuredFilter) string {
	limit := defaultLimit
	if f.Limit != nil {
		limit = *f.Limit
	}
	// encoding/json sorts map keys, so equal filters give equal bytes. The map
	// holds only strings, ints and string slices, which always marshal.
	b, err := json.Marshal(f.wireMap(&limit, true))
	if err != nil {
		logger.Errorf("activationKey: %v", err)
	}
	return normalizeRelayAddress(addr) + " " + string(b)
}

// activeFilterCount counts the filter fields in use, not counting relay and limit.
func activeFilterCount(raw RawFilterInput) int {
	n := 0
	for _, v := range []string{raw.Kind, raw.Author, raw.Since, raw.Until, raw.Tags} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// since24h returns the "last 24 hours" preset for the since field.
func since24h(now time.Time) string {
	return strconv.FormatInt(now.Add(-24*time.Hour).Unix(), 10)
}

// untilNow returns the "now" preset for the until field.
func untilNow(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}
