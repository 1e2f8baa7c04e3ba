package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nbd-wtf/go-nostr"
)

// fetchTimeout bounds a limited fetch, connect included.
const fetchTimeout = 10 * time.Second

// ErrConnectionTimeout is matched by errors.Is when a bounded fetch runs out
// of time.
var ErrConnectionTimeout = errors.New("connection timed out")

// QueryError is any transport or protocol failure other than a timeout.
type QueryError struct {
	Relay string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("failed to query relay %s: %v", e.Relay, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func timeoutError(relay string, after time.Duration) error {
	return fmt.Errorf("%w after %s: relay %s might be slow to respond", ErrConnectionTimeout, after, relay)
}

// Results of the two activation kinds. activation is the token the
// controller checks before applying anything.
type fetchDoneMsg struct {
	activation uint64
	events     []*nostr.Event
	err        error
}

type streamBatchMsg struct {
	activation uint64
	events     []*nostr.Event
	err        error
}

// queryOnce opens the session's connection and runs one query, racing it
// against ctx. Whichever finishes first wins; the session owner closes the
// connection afterwards, which reclaims the loser.
func queryOnce(ctx context.Context, sess *session, t RelayTransport, addr string, filter nostr.Filter) ([]*nostr.Event, error) {
	type result struct {
		evts []*nostr.Event
		err  error
	}
	done := make(chan result, 1)
	go func() {
		conn, err := sess.open(ctx, t, addr)
		if err != nil {
			done <- result{err: err}
			return
		}
		evts, err := conn.Query(ctx, filter)
		done <- result{evts: evts, err: err}
	}()

	select {
	case r := <-done:
		return r.evts, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fetchEventsCmd runs one bounded fetch. The session is closed on every path
// before the result is handed back.
func fetchEventsCmd(t RelayTransport, sess *session, id uint64, addr string, filter nostr.Filter, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		defer sess.stop()
		logger.Debugf("fetchEvents: activation=%d relay=%s timeout=%s", id, addr, timeout)

		ctx, cancel := context.WithTimeout(sess.ctx, timeout)
		defer cancel()

		evts, err := queryOnce(ctx, sess, t, addr, filter)
		if sess.cancelled() {
			logger.Debugf("fetchEvents: activation=%d cancelled", id)
			return nil
		}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				err = timeoutError(addr, timeout)
			} else {
				err = &QueryError{Relay: addr, Err: err}
			}
			logger.Infof("fetchEvents: activation=%d: %v", id, err)
			return fetchDoneMsg{activation: id, err: err}
		}
		logger.Infof("fetchEvents: activation=%d got %d events", id, len(evts))
		return fetchDoneMsg{activation: id, events: sortEvents(evts)}
	}
}

// streamEventsCmd issues the subscription for one activation and returns its
// batch. The connection stays open until the controller cancels the session.
func streamEventsCmd(t RelayTransport, sess *session, id uint64, addr string, filter nostr.Filter) tea.Cmd {
	return func() tea.Msg {
		logger.Debugf("streamEvents: activation=%d relay=%s", id, addr)

		evts, err := queryOnce(sess.ctx, sess, t, addr, filter)
		if sess.cancelled() {
			logger.Debugf("streamEvents: activation=%d cancelled", id)
			return nil
		}
		if err != nil {
			sess.stop()
			err = fmt.Errorf("streaming failed: %w", &QueryError{Relay: addr, Err: err})
			logger.Infof("streamEvents: activation=%d: %v", id, err)
			return streamBatchMsg{activation: id, err: err}
		}
		logger.Infof("streamEvents: activation=%d got %d events", id, len(evts))
		return streamBatchMsg{activation: id, events: sortEvents(evts)}
	}
}
