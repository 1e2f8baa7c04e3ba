package main

import (
	"slices"

	"github.com/nbd-wtf/go-nostr"
)

// resultAggregator keeps the events of the running activation and the last
// non-empty result set, so the list does not flash to zero while a new
// activation under the same key warms up.
type resultAggregator struct {
	key      string
	current  []*nostr.Event
	lastGood []*nostr.Event
	goodKey  string // key lastGood was produced under
}

// rekey switches to a new activation key. Changing the key empties the
// visible set right away; lastGood is kept but no longer matches.
func (a *resultAggregator) rekey(key string) {
	if key == a.key {
		return
	}
	a.key = key
	a.current = nil
}

// restart clears current for a new run under the same key.
func (a *resultAggregator) restart() {
	a.current = nil
}

// hold brings back lastGood when a run ends without results of its own, as
// long as it was produced under the current key.
func (a *resultAggregator) hold() {
	if len(a.current) == 0 && len(a.lastGood) > 0 && a.goodKey == a.key {
		a.current = a.lastGood
	}
}

// set stores a finished batch. The batch is sorted and deduplicated here.
func (a *resultAggregator) set(evts []*nostr.Event) {
	a.current = sortEvents(dedupeEvents(evts))
	if len(a.current) > 0 {
		a.lastGood = a.current
		a.goodKey = a.key
	}
}

// display returns what the feed should show in the given mode.
func (a *resultAggregator) display(mode FeedMode) []*nostr.Event {
	if len(a.current) == 0 && (mode == ModeStreaming || mode == ModeFetching) &&
		len(a.lastGood) > 0 && a.goodKey == a.key {
		return a.lastGood
	}
	return a.current
}

// sortEvents orders events newest first. Equal timestamps keep their
// arrival order.
func sortEvents(evts []*nostr.Event) []*nostr.Event {
	out := slices.Clone(evts)
	slices.SortStableFunc(out, func(a, b *nostr.Event) int {
		switch {
		case a.CreatedAt > b.CreatedAt:
			return -1
		case a.CreatedAt < b.CreatedAt:
			return 1
		}
		return 0
	})
	return out
}

// dedupeEvents drops repeated ids, keeping the first occurrence.
func dedupeEvents(evts []*nostr.Event) []*nostr.Event {
	seen := make(map[string]bool, len(evts))
	out := make([]*nostr.Event, 0, len(evts))
	for _, e := range evts {
		if e == nil {
			continue
		}
		if e.ID != "" {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
		}
		out = append(out, e)
	}
	return out
}
