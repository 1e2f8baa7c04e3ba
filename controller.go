package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nbd-wtf/go-nostr"
)

// FeedMode is the controller's state. Exactly one is active at a time.
type FeedMode int

const (
	ModeIdle FeedMode = iota
	ModeFetching
	ModeStreaming
	ModeFailed
)

func (m FeedMode) String() string {
	switch m {
	case ModeFetching:
		return "fetching"
	case ModeStreaming:
		return "streaming"
	case ModeFailed:
		return "failed"
	default:
		return "idle"
	}
}

// FeedState is everything the view needs from the controller.
type FeedState struct {
	Mode       FeedMode
	Address    string
	Key        string
	Filter     StructuredFilter
	Report     FilterReport
	Events     []*nostr.Event
	Err        string
	// Activation is the id of the newest run; ids count up from 1.
	Activation uint64
	Acceptable bool
}

// activation is one fetch or stream run, bound to one key and one session.
type activation struct {
	id   uint64
	key  string
	mode FeedMode
	sess *session
}

// feedController decides between a bounded fetch and a stream and owns the
// one running activation. All methods are called from the bubbletea update
// loop; results come back as messages through Handle.
type feedController struct {
	transport RelayTransport
	timeout   time.Duration

	// onActivate is called whenever a run starts.
	onActivate func(mode FeedMode, addr string, filter StructuredFilter)

	raw        RawFilterInput
	addr       string
	filter     StructuredFilter
	report     FilterReport
	key        string
	acceptable bool

	// streamCond is "address acceptable and no limit" as of the last input.
	streamCond bool
	// armed means the operator wants a stream: set when streamCond becomes
	// true, the address changes or on submit; cleared by stop.
	armed bool

	mode      FeedMode
	err       string
	failedKey string
	// fetchedKey is the key of the last fetch started. Only a new key fetches
	// without a submit.
	fetchedKey string

	lastID uint64
	active *activation
	agg    resultAggregator
}

func newFeedController(t RelayTransport) *feedController {
	return &feedController{transport: t, timeout: fetchTimeout}
}

// SetInput takes the current form and applies the mode rules. The returned
// command, if any, starts a new fetch or stream.
func (c *feedController) SetInput(raw RawFilterInput) tea.Cmd {
	prevAddr := c.addr
	prevCond := c.streamCond

	c.raw = raw
	c.addr = normalizeRelayAddress(raw.Relay)
	c.filter, c.report = buildFilter(raw)
	c.acceptable = isAcceptableAddress(c.addr)
	c.key = activationKey(c.addr, c.filter)
	c.agg.rekey(c.key)
	c.streamCond = c.acceptable && !c.filter.HasLimit()

	if !c.acceptable {
		c.armed = false
		c.fetchedKey = ""
		c.cancelActive()
		c.mode = ModeIdle
		c.err = ""
		return nil
	}

	if c.filter.HasLimit() {
		c.armed = false
		if c.active != nil && (c.active.mode == ModeStreaming || c.active.key != c.key) {
			logger.Debugf("SetInput: limit set, cancelling activation=%d", c.active.id)
			c.cancelActive()
			c.mode = ModeIdle
		}
		// Re-running a key that was already fetched takes a submit.
		if c.key == c.fetchedKey {
			return nil
		}
		return c.startFetch()
	}

	if !prevCond || c.addr != prevAddr {
		c.armed = true
	}
	if !c.armed {
		return nil
	}
	if c.active != nil && c.active.mode == ModeStreaming && c.active.key == c.key {
		return nil
	}
	if c.mode == ModeFailed && c.failedKey == c.key {
		return nil
	}
	return c.startStream()
}

// Submit is the explicit start: a fetch when a limit is set, otherwise a
// stream.
func (c *feedController) Submit() tea.Cmd {
	if !c.acceptable {
		logger.Debugf("Submit: address %q not acceptable", c.addr)
		c.cancelActive()
		c.mode = ModeIdle
		return nil
	}
	if c.filter.HasLimit() {
		if c.active != nil && c.active.mode == ModeFetching && c.active.key == c.key {
			return nil
		}
		return c.startFetch()
	}
	c.armed = true
	if c.active != nil && c.active.mode == ModeStreaming && c.active.key == c.key {
		return nil
	}
	return c.startStream()
}

// Stop cancels the running activation. Results already shown stay, including
// the ones carried over while a new run warms up.
func (c *feedController) Stop() {
	c.armed = false
	c.cancelActive()
	if c.mode == ModeStreaming || c.mode == ModeFetching {
		c.mode = ModeIdle
	}
	c.agg.hold()
}

// Shutdown releases the connection on quit.
func (c *feedController) Shutdown() {
	c.armed = false
	c.cancelActive()
}

// Handle applies a fetch or stream result. It reports whether msg belonged
// to the controller; results of a cancelled or replaced activation are
// dropped.
func (c *feedController) Handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		if !c.live(msg.activation, ModeFetching) {
			logger.Debugf("Handle: dropping stale fetch result activation=%d", msg.activation)
			return true
		}
		c.active = nil
		c.mode = ModeIdle
		if msg.err != nil {
			c.err = msg.err.Error()
			c.agg.hold()
			return true
		}
		c.err = ""
		c.agg.set(msg.events)
		return true

	case streamBatchMsg:
		if !c.live(msg.activation, ModeStreaming) {
			logger.Debugf("Handle: dropping stale stream batch activation=%d", msg.activation)
			return true
		}
		if msg.err != nil {
			c.failedKey = c.active.key
			c.cancelActive()
			c.mode = ModeFailed
			c.err = msg.err.Error()
			return true
		}
		c.err = ""
		c.agg.set(msg.events)
		return true
	}
	return false
}

// State returns a snapshot for rendering.
func (c *feedController) State() FeedState {
	return FeedState{
		Mode:       c.mode,
		Address:    c.addr,
		Key:        c.key,
		Filter:     c.filter,
		Report:     c.report,
		Events:     c.agg.display(c.mode),
		Err:        c.err,
		Activation: c.lastID,
		Acceptable: c.acceptable,
	}
}

// Input returns the form the controller last saw.
func (c *feedController) Input() RawFilterInput {
	return c.raw
}

func (c *feedController) startFetch() tea.Cmd {
	act := c.activate(ModeFetching)
	c.fetchedKey = act.key
	return fetchEventsCmd(c.transport, act.sess, act.id, c.addr, c.filter.wire(defaultLimit), c.timeout)
}

func (c *feedController) startStream() tea.Cmd {
	c.fetchedKey = ""
	act := c.activate(ModeStreaming)
	return streamEventsCmd(c.transport, act.sess, act.id, c.addr, c.filter.wire(defaultLimit))
}

// activate cancels whatever runs and starts a new activation under the
// current key.
func (c *feedController) activate(mode FeedMode) *activation {
	c.cancelActive()
	c.lastID++
	act := &activation{
		id:   c.lastID,
		key:  c.key,
		mode: mode,
		sess: newSession(context.Background()),
	}
	c.active = act
	c.agg.restart()
	c.mode = mode
	c.err = ""
	c.failedKey = ""
	logger.Infof("activate: activation=%d mode=%s key=%s", act.id, mode, act.key)
	if c.onActivate != nil {
		c.onActivate(mode, c.addr, c.filter)
	}
	return act
}

func (c *feedController) cancelActive() {
	if c.active == nil {
		return
	}
	logger.Debugf("cancelActive: activation=%d", c.active.id)
	c.active.sess.stop()
	c.active = nil
}

// live reports whether id is the running activation. cancelActive clears
// c.active, so a cancelled run never matches.
func (c *feedController) live(id uint64, mode FeedMode) bool {
	return c.active != nil && c.active.id == id && c.active.mode == mode
}
