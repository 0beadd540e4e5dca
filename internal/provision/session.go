package provision

import (
	"log"
	"sync"
	"time"
)

// DefaultTickInterval is the cadence of elapsed-time refreshes.
const DefaultTickInterval = time.Second

// Channel is the transport contract the controller consumes: the ability to
// subscribe a handler for raw event payloads. The controller never dials,
// closes, or reconnects the underlying channel. The returned cancel func
// must be safe to call more than once.
type Channel interface {
	Subscribe(handler func(payload []byte)) (cancel func())
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.clock = now }
}

// WithTickInterval overrides the elapsed-time refresh cadence.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) { c.track.interval = d }
}

// WithStabilization overrides the delay between terminal detection and
// callback delivery.
func WithStabilization(d time.Duration) Option {
	return func(c *Controller) { c.stabilize = d }
}

// WithLogger sets the diagnostic logger for dropped events.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.norm.Log = l }
}

// Controller binds one transport channel to one aggregation session. All
// session state — the ledger, the completion flag, both timers — is owned
// exclusively by the controller and guarded by one mutex; a generation
// counter turns anything scheduled by an older session (stale ticks, a
// stale stabilization timer, a stale subscription) into a no-op.
type Controller struct {
	mu  sync.Mutex
	gen uint64

	norm      Normalizer
	ledger    *Ledger
	clock     func() time.Time
	stabilize time.Duration
	track     tracker

	completed bool
	outcome   Outcome
	summary   string

	onComplete  func(Outcome)
	unsubscribe func()
	stabTimer   *time.Timer
	listening   bool
}

// NewController creates a controller in the Idle state. onComplete is
// invoked at most once per session, after the stabilization delay.
func NewController(onComplete func(Outcome), opts ...Option) *Controller {
	c := &Controller{
		ledger:     NewLedger(),
		clock:      time.Now,
		stabilize:  DefaultStabilizationDelay,
		track:      tracker{interval: DefaultTickInterval},
		onComplete: onComplete,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind attaches the controller to a transport channel, tearing down any
// previous session first. Bind(nil) is equivalent to Reset. A non-nil
// channel starts a fresh Idle → Listening lifecycle.
func (c *Controller) Bind(ch Channel) {
	c.mu.Lock()
	c.teardownLocked()
	if ch == nil {
		c.mu.Unlock()
		return
	}
	gen := c.gen
	c.listening = true
	c.mu.Unlock()

	cancel := ch.Subscribe(func(payload []byte) {
		c.handle(gen, payload)
	})

	c.mu.Lock()
	if gen != c.gen {
		// Rebound or reset while subscribing; this subscription is stale.
		c.mu.Unlock()
		cancel()
		return
	}
	c.unsubscribe = cancel
	c.mu.Unlock()
}

// Reset tears the session down and returns to Idle. Reachable from every
// state; any pending completion callback is cancelled and never fires.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.teardownLocked()
	c.mu.Unlock()
}

// teardownLocked invalidates the current session: both timers are cancelled
// synchronously before any state is rebuilt, so nothing scheduled by the
// old session can touch the new one.
func (c *Controller) teardownLocked() {
	c.gen++
	if c.stabTimer != nil {
		c.stabTimer.Stop()
		c.stabTimer = nil
	}
	c.track.cancel()
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	c.ledger.Reset()
	c.completed = false
	c.outcome = Outcome{}
	c.summary = ""
	c.listening = false
}

// handle processes one raw payload in transport delivery order. Events for
// a torn-down session are silently ignored.
func (c *Controller) handle(gen uint64, payload []byte) {
	ev, ok := c.norm.Normalize(payload)
	if !ok {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return
	}

	now := c.clock()
	c.ledger.Apply(ev, now)
	c.ensureTrackerLocked()
	c.observeLocked(ev, now)
}

// observeLocked is the completion detector: it checks the event against the
// terminal conditions and, on the first match for this session, freezes the
// ledger and arms the stabilization timer.
func (c *Controller) observeLocked(ev NormalizedEvent, now time.Time) {
	if c.completed {
		return
	}
	o, terminal := terminalOutcome(ev)
	if !terminal {
		return
	}

	c.completed = true
	c.outcome = o
	c.summary = o.Summary()
	c.ledger.CloseInProgress(now)

	gen := c.gen
	c.stabTimer = time.AfterFunc(c.stabilize, func() {
		c.deliver(gen)
	})
}

// deliver fires the completion callback, exactly once, unless the session
// was reset while the stabilization timer was pending.
func (c *Controller) deliver(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.completed {
		c.mu.Unlock()
		return
	}
	cb := c.onComplete
	o := c.outcome
	c.summary = ""
	c.stabTimer = nil
	c.mu.Unlock()

	if cb != nil {
		cb(o)
	}
}

// ensureTrackerLocked starts the elapsed-time ticker when a record is in
// progress and none is running yet.
func (c *Controller) ensureTrackerLocked() {
	if c.track.running() || !c.ledger.AnyInProgress() {
		return
	}
	gen := c.gen
	c.track.start(func() bool {
		return c.tick(gen)
	})
}

// tick refreshes elapsed strings for the session that started the ticker.
// It stops the ticker once nothing is in progress anymore.
func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.ledger.RefreshElapsed(c.clock())
	if !c.ledger.AnyInProgress() {
		c.track.cancel()
		return false
	}
	return true
}

// Snapshot returns the current stage records in arrival order.
func (c *Controller) Snapshot() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Snapshot()
}

// Summary returns the transient outcome summary, empty outside the
// Completing state.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Completed reports whether a terminal condition has been detected for the
// current session.
func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

// Listening reports whether a channel is currently bound.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}
