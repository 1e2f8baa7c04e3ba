package main

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fiatjaf/eventstore/slicestore"
	"github.com/fiatjaf/khatru"
	gonostr "github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
)

// ─── Embedded relay ──────────────────────────────────────────────────────────

func startTestRelay(t *testing.T) (relayURL string, cleanup func()) {
	t.Helper()

	db := &slicestore.SliceStore{}
	if err := db.Init(); err != nil {
		t.Fatalf("db.Init: %v", err)
	}

	relay := khatru.NewRelay()
	relay.Info.Name = "relaymon-test-relay"
	relay.StoreEvent = append(relay.StoreEvent, db.SaveEvent)
	relay.QueryEvents = append(relay.QueryEvents, db.QueryEvents)
	relay.DeleteEvent = append(relay.DeleteEvent, db.DeleteEvent)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	server := &http.Server{Handler: relay}
	go func() { _ = server.Serve(ln) }()

	url := fmt.Sprintf("ws://127.0.0.1:%d", port)
	t.Logf("test relay running at %s", url)

	return url, func() {
		_ = server.Shutdown(context.Background())
		db.Close()
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type testAuthor struct {
	sk string
	pk string
}

func newTestAuthor(t *testing.T) testAuthor {
	t.Helper()
	sk := gonostr.GeneratePrivateKey()
	pk, err := gonostr.GetPublicKey(sk)
	if err != nil {
		t.Fatalf("GetPublicKey: %v", err)
	}
	return testAuthor{sk: sk, pk: pk}
}

// publish signs and stores one event on the relay.
func publish(t *testing.T, relayURL string, a testAuthor, kind int, content string, createdAt int64, tags gonostr.Tags) *gonostr.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := gonostr.RelayConnect(ctx, relayURL)
	if err != nil {
		t.Fatalf("publish: connect: %v", err)
	}
	defer func() { _ = r.Close() }()

	evt := gonostr.Event{
		PubKey:    a.pk,
		CreatedAt: gonostr.Timestamp(createdAt),
		Kind:      kind,
		Tags:      tags,
		Content:   content,
	}
	if err := evt.Sign(a.sk); err != nil {
		t.Fatalf("publish: sign: %v", err)
	}
	if err := r.Publish(ctx, evt); err != nil {
		t.Fatalf("publish: %v", err)
	}
	return &evt
}

// waitForAll waits until every substr has appeared in the output read so far.
func waitForAll(t *testing.T, tm *teatest.TestModel, timeout time.Duration, substrs ...string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(),
		func(b []byte) bool {
			for _, s := range substrs {
				if !bytes.Contains(b, []byte(s)) {
					return false
				}
			}
			return true
		},
		teatest.WithDuration(timeout),
		teatest.WithCheckInterval(200*time.Millisecond),
	)
}

const defaultTimeout = 15 * time.Second

// ─── Integration Test ────────────────────────────────────────────────────────

func TestIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	relayURL, cleanup := startTestRelay(t)
	defer cleanup()

	alice := newTestAuthor(t)
	bob := newTestAuthor(t)

	base := time.Now().Add(-time.Hour).Unix()
	publish(t, relayURL, alice, 1, "hello from alice", base+10, gonostr.Tags{{"t", "nostr"}})
	publish(t, relayURL, bob, 1, "hello from bob", base+20, nil)
	publish(t, relayURL, alice, 7, "+", base+30, nil)
	newest := publish(t, relayURL, bob, 1, "bob again", base+40, gonostr.Tags{{"t", "nostr"}})

	t.Run("transport/query", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		conn, err := nostrTransport{}.Open(ctx, relayURL)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer func() { _ = conn.Close() }()

		f, _ := buildFilter(RawFilterInput{Kind: "1"})
		evts, err := conn.Query(ctx, f.wire(defaultLimit))
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(evts) != 3 {
			t.Fatalf("got %d kind-1 events, want 3", len(evts))
		}
	})

	t.Run("fetch/limit", func(t *testing.T) {
		c := newFeedController(nostrTransport{})
		run(t, c, c.SetInput(RawFilterInput{Relay: relayURL, Limit: "2"}))

		st := c.State()
		if st.Err != "" {
			t.Fatalf("fetch error: %s", st.Err)
		}
		if len(st.Events) != 2 {
			t.Fatalf("got %d events, want 2", len(st.Events))
		}
		if st.Events[0].ID != newest.ID {
			t.Errorf("first event = %s, want newest %s", st.Events[0].ID, newest.ID)
		}
		if st.Events[0].CreatedAt < st.Events[1].CreatedAt {
			t.Error("events not sorted newest first")
		}
	})

	t.Run("fetch/author-npub-and-tag", func(t *testing.T) {
		c := newFeedController(nostrTransport{})
		npub, err := nip19.EncodePublicKey(bob.pk)
		if err != nil {
			t.Fatalf("EncodePublicKey: %v", err)
		}
		cmd := c.SetInput(RawFilterInput{Relay: relayURL, Author: npub, Tags: "t:nostr", Limit: "10"})
		if c.State().Report.Author != DecodeOK {
			t.Fatalf("author decode = %s, want %s", c.State().Report.Author, DecodeOK)
		}
		run(t, c, cmd)

		st := c.State()
		if len(st.Events) != 1 || st.Events[0].Content != "bob again" {
			t.Fatalf("events = %v, want only bob's tagged note", ids(st.Events))
		}
	})

	t.Run("stream/default", func(t *testing.T) {
		c := newFeedController(nostrTransport{})
		defer c.Shutdown()

		cmd := c.SetInput(RawFilterInput{Relay: relayURL, Kind: "1,7"})
		if c.State().Mode != ModeStreaming {
			t.Fatalf("mode = %s, want streaming", c.State().Mode)
		}
		run(t, c, cmd)

		st := c.State()
		if st.Mode != ModeStreaming || st.Err != "" {
			t.Fatalf("state = %s %q", st.Mode, st.Err)
		}
		if len(st.Events) != 4 {
			t.Errorf("got %d events, want 4", len(st.Events))
		}
	})

	t.Run("fetch/unreachable", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		dead := fmt.Sprintf("ws://%s", ln.Addr())
		_ = ln.Close()

		c := newFeedController(nostrTransport{})
		run(t, c, c.SetInput(RawFilterInput{Relay: dead, Limit: "5"}))
		if st := c.State(); st.Mode != ModeIdle || !strings.Contains(st.Err, dead) {
			t.Errorf("state = %s %q, want idle with an error naming %s", st.Mode, st.Err, dead)
		}
	})

	t.Run("ui/stream", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Relay = relayURL
		cfg.Filter.Kind = "1"
		histPath := filepath.Join(t.TempDir(), "history")

		feed := newFeedController(nostrTransport{})
		m := newModel(cfg, histPath, feed, nil, "dark")
		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 40))
		defer func() { _ = tm.Quit() }()

		waitForAll(t, tm, defaultTimeout, "Events (Live Stream)", "bob again")

		entries, err := loadHistory(histPath, 10)
		if err != nil {
			t.Fatalf("loadHistory: %v", err)
		}
		if len(entries) == 0 || entries[len(entries)-1].Input.Relay != relayURL {
			t.Errorf("history = %+v, want the stream recorded", entries)
		}
	})
}
