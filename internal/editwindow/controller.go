// Package editwindow tracks the short window during which the author of a
// freshly posted note may revise it. Only the most recently created note is
// editable, and only once.
package editwindow

import (
	"birthday-notes-be/internal/dto"
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultWindow = 60

// State is Idle when Note is nil.
type State struct {
	Note             *dto.NoteResponse
	SecondsRemaining int
}

func (s State) Idle() bool {
	return s.Note == nil
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type Option func(*Controller)

// WithWindow sets the countdown length in seconds.
func WithWindow(seconds int) Option {
	return func(c *Controller) {
		if seconds > 0 {
			c.window = seconds
		}
	}
}

func WithTickerFactory(f TickerFactory) Option {
	return func(c *Controller) {
		if f != nil {
			c.newTicker = f
		}
	}
}

// WithOnChange registers a callback invoked after every state change. It
// runs without the controller lock held, possibly on the countdown
// goroutine, so it must not call Start, Consume or Stop.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) {
		c.onChange = fn
	}
}

type countdown struct {
	ticker Ticker
	stop   chan struct{}
	done   chan struct{}
}

type Controller struct {
	mu        sync.Mutex
	window    int
	newTicker TickerFactory
	onChange  func(State)

	state      State
	generation uint64
	current    *countdown
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		window:    DefaultWindow,
		newTicker: newRealTicker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start makes note editable for a full window, replacing any note that was
// editable before.
func (c *Controller) Start(note *dto.NoteResponse) {
	c.mu.Lock()
	prev := c.detachLocked()

	c.generation++
	gen := c.generation
	c.state = State{Note: note, SecondsRemaining: c.window}

	cd := &countdown{
		ticker: c.newTicker(time.Second),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	c.current = cd
	state := c.state
	c.mu.Unlock()

	prev.wait()
	go c.run(gen, cd)
	c.notify(state)
}

func (c *Controller) run(gen uint64, cd *countdown) {
	defer close(cd.done)
	for {
		select {
		case <-cd.stop:
			return
		case <-cd.ticker.C():
			c.tick(gen)
		}
	}
}

// Tick advances the countdown by one second.
func (c *Controller) Tick() {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()
	c.tick(gen)
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.state.Idle() {
		c.mu.Unlock()
		return
	}

	c.state.SecondsRemaining--
	var stopped *countdown
	if c.state.SecondsRemaining <= 0 {
		c.state = State{}
		stopped = c.detachLocked()
	}
	state := c.state
	c.mu.Unlock()

	// the countdown goroutine may be the caller, so it is not waited on here
	stopped.signal()
	c.notify(state)
}

// Consume records a successful edit of id and closes the window. It reports
// false when id is not the editable note.
func (c *Controller) Consume(id uuid.UUID) bool {
	c.mu.Lock()
	if c.state.Idle() || c.state.Note.Id != id {
		c.mu.Unlock()
		return false
	}

	c.state = State{}
	c.generation++
	prev := c.detachLocked()
	c.mu.Unlock()

	prev.wait()
	c.notify(State{})
	return true
}

func (c *Controller) CanEdit(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.state.Idle() && c.state.Note.Id == id && c.state.SecondsRemaining > 0
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Stop ends any running countdown and waits for its goroutine to exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	wasIdle := c.state.Idle()
	c.state = State{}
	c.generation++
	prev := c.detachLocked()
	c.mu.Unlock()

	prev.wait()
	if !wasIdle {
		c.notify(State{})
	}
}

func (c *Controller) detachLocked() *countdown {
	cd := c.current
	c.current = nil
	if cd != nil {
		cd.ticker.Stop()
	}
	return cd
}

func (cd *countdown) signal() {
	if cd == nil {
		return
	}
	close(cd.stop)
}

func (cd *countdown) wait() {
	if cd == nil {
		return
	}
	cd.signal()
	<-cd.done
}

func (c *Controller) notify(state State) {
	if c.onChange != nil {
		c.onChange(state)
	}
}
