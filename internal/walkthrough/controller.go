package walkthrough

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultStepDwell     = 4000 * time.Millisecond
	DefaultPhaseInterval = 750 * time.Millisecond
	DefaultScrollDelay   = 100 * time.Millisecond
)

// PlaybackState is everything the view needs to know about where the
// walkthrough is.
type PlaybackState struct {
	ActiveStep     int  `json:"active_step" yaml:"active_step"`
	IsPlaying      bool `json:"is_playing" yaml:"is_playing"`
	AttentionPhase int  `json:"attention_phase" yaml:"attention_phase"`
}

func (s PlaybackState) String() string {
	return fmt.Sprintf("{%d, %t, %d}", s.ActiveStep, s.IsPlaying, s.AttentionPhase)
}

// Timer identifies one of the controller's independently cancellable timers.
type Timer int

const (
	// StepTimer advances the active step while autoplay is on.
	StepTimer Timer = iota
	// PhaseTimer cycles the attention phase while step 3 is playing.
	PhaseTimer
	// ScrollTimer debounces the scroll-to-section notification.
	ScrollTimer
	numTimers
)

func (t Timer) String() string {
	switch t {
	case StepTimer:
		return "step"
	case PhaseTimer:
		return "phase"
	case ScrollTimer:
		return "scroll"
	}
	return fmt.Sprintf("timer(%d)", int(t))
}

// Schedule asks the driver to call Fire(Timer, Tag) after the given delay.
type Schedule struct {
	Timer Timer
	After time.Duration
	Tag   uint64
}

// Timing holds the timer periods.
type Timing struct {
	StepDwell     time.Duration
	PhaseInterval time.Duration
	ScrollDelay   time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		StepDwell:     DefaultStepDwell,
		PhaseInterval: DefaultPhaseInterval,
		ScrollDelay:   DefaultScrollDelay,
	}
}

// Listener receives every state change.
type Listener func(prev, next PlaybackState)

// SectionListener receives the debounced scroll target.
type SectionListener func(Section)

type Option func(*Controller)

// WithTiming overrides the timer periods. Zero fields keep their defaults.
func WithTiming(t Timing) Option {
	return func(c *Controller) {
		if t.StepDwell > 0 {
			c.timing.StepDwell = t.StepDwell
		}
		if t.PhaseInterval > 0 {
			c.timing.PhaseInterval = t.PhaseInterval
		}
		if t.ScrollDelay > 0 {
			c.timing.ScrollDelay = t.ScrollDelay
		}
	}
}

// WithState starts the controller from s instead of {0, false, 0}. The state
// is normalized before use.
func WithState(s PlaybackState) Option {
	return func(c *Controller) { c.initial = s }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

type subscription[T any] struct {
	id int
	fn T
}

// Controller owns the playback state and its timers. It has exactly one
// writer: whoever drives it.
type Controller struct {
	catalog Catalog
	timing  Timing
	log     *zap.Logger

	initial PlaybackState
	state   PlaybackState

	tags    [numTimers]uint64
	armed   [numTimers]bool
	pending []Schedule

	nextID    int
	listeners []subscription[Listener]
	sections  []subscription[SectionListener]
}

// NewController validates the catalog and arms whatever timers the initial
// state requires.
func NewController(catalog Catalog, opts ...Option) (*Controller, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		catalog: catalog,
		timing:  DefaultTiming(),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state = normalize(c.initial)
	c.sync(PlaybackState{ActiveStep: -1})
	return c, nil
}

func (c *Controller) State() PlaybackState { return c.state }
func (c *Controller) Catalog() Catalog     { return c.catalog }
func (c *Controller) Timing() Timing       { return c.timing }

// Step returns the catalog entry for the active step.
func (c *Controller) Step() Step { return c.catalog[c.state.ActiveStep] }

// Section returns the scroll target for the active step.
func (c *Controller) Section() Section { return SectionFor(c.state.ActiveStep) }

// Armed reports whether t is currently scheduled.
func (c *Controller) Armed(t Timer) bool { return c.armed[t] }

// Play starts autoplay. It does nothing at the terminal step.
func (c *Controller) Play() {
	next := c.state
	next.IsPlaying = true
	c.apply(next)
}

// Pause stops autoplay and cancels the step and phase timers.
func (c *Controller) Pause() {
	next := c.state
	next.IsPlaying = false
	c.apply(next)
}

// Toggle flips between Play and Pause.
func (c *Controller) Toggle() {
	if c.state.IsPlaying {
		c.Pause()
		return
	}
	c.Play()
}

// Reset returns to the first step, paused.
func (c *Controller) Reset() {
	c.apply(PlaybackState{})
}

// GoTo jumps to id (clamped to the catalog) and stops autoplay. Landing on a
// step always starts its attention sub-animation from phase 0.
func (c *Controller) GoTo(id int) {
	c.apply(PlaybackState{ActiveStep: ClampStep(id)})
}

// Tick advances autoplay by one step. It is a no-op while paused.
func (c *Controller) Tick() {
	if !c.state.IsPlaying {
		return
	}
	next := c.state
	if next.ActiveStep < LastStep {
		next.ActiveStep++
	} else {
		next.IsPlaying = false
	}
	c.apply(next)
}

// AttentionTick cycles the attention phase. It only acts while the attention
// step is playing.
func (c *Controller) AttentionTick() {
	if !c.attentionActive(c.state) {
		return
	}
	next := c.state
	next.AttentionPhase = (next.AttentionPhase + 1) % AttentionPhases
	c.apply(next)
}

// Dispatch applies a user intent coming from the rendering layer.
func (c *Controller) Dispatch(in Intent) {
	switch in.Kind {
	case IntentPlay:
		c.Play()
	case IntentPause:
		c.Pause()
	case IntentToggle:
		c.Toggle()
	case IntentReset:
		c.Reset()
	case IntentGoTo:
		c.GoTo(in.Step)
	}
}

// Pending returns and clears the schedules queued since the last call.
func (c *Controller) Pending() []Schedule {
	p := c.pending
	c.pending = nil
	return p
}

// Fire reports the expiry of a timer. Expiries whose tag no longer matches
// were cancelled and are ignored; Fire returns false for them.
func (c *Controller) Fire(t Timer, tag uint64) bool {
	if t < 0 || t >= numTimers || !c.armed[t] || c.tags[t] != tag {
		c.log.Debug("stale timer dropped", zap.Stringer("timer", t), zap.Uint64("tag", tag))
		return false
	}
	c.armed[t] = false
	switch t {
	case StepTimer:
		c.Tick()
	case PhaseTimer:
		c.AttentionTick()
	case ScrollTimer:
		sec := c.Section()
		c.log.Debug("scroll", zap.Stringer("section", sec))
		for _, s := range c.sections {
			s.fn(sec)
		}
	}
	return true
}

// Subscribe registers fn for every state change and returns a function that
// removes it. The returned function may be called from inside a listener.
func (c *Controller) Subscribe(fn Listener) func() {
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, subscription[Listener]{id: id, fn: fn})
	return func() { c.listeners = remove(c.listeners, id) }
}

// OnSection registers fn for debounced scroll targets.
func (c *Controller) OnSection(fn SectionListener) func() {
	c.nextID++
	id := c.nextID
	c.sections = append(c.sections, subscription[SectionListener]{id: id, fn: fn})
	return func() { c.sections = remove(c.sections, id) }
}

// remove returns a fresh slice so a notification loop still ranging over subs
// is left intact.
func remove[T any](subs []subscription[T], id int) []subscription[T] {
	out := make([]subscription[T], 0, len(subs))
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

func (c *Controller) apply(next PlaybackState) {
	prev := c.state
	c.state = normalize(next)
	c.sync(prev)
	if c.state == prev {
		return
	}
	c.log.Debug("state change", zap.Stringer("from", prev), zap.Stringer("to", c.state))
	for _, l := range c.listeners {
		l.fn(prev, c.state)
	}
}

// normalize enforces the state invariants on a proposed transition.
func normalize(next PlaybackState) PlaybackState {
	next.ActiveStep = ClampStep(next.ActiveStep)
	if next.ActiveStep >= LastStep {
		next.IsPlaying = false
	}
	if next.ActiveStep != AttentionStep {
		next.AttentionPhase = 0
	}
	if next.AttentionPhase < 0 || next.AttentionPhase >= AttentionPhases {
		next.AttentionPhase = 0
	}
	return next
}

func (c *Controller) attentionActive(s PlaybackState) bool {
	return s.IsPlaying && s.ActiveStep == AttentionStep
}

// sync brings the timers in line with the activation conditions of the
// current state.
func (c *Controller) sync(prev PlaybackState) {
	s := c.state

	stepActive := s.IsPlaying && s.ActiveStep < LastStep
	switch {
	case stepActive && (!c.armed[StepTimer] || prev.ActiveStep != s.ActiveStep):
		c.arm(StepTimer, c.timing.StepDwell)
	case !stepActive:
		c.cancel(StepTimer)
	}

	phaseActive := c.attentionActive(s)
	switch {
	case phaseActive && !c.armed[PhaseTimer]:
		c.arm(PhaseTimer, c.timing.PhaseInterval)
	case !phaseActive:
		c.cancel(PhaseTimer)
	}

	if prev.ActiveStep != s.ActiveStep {
		c.arm(ScrollTimer, c.timing.ScrollDelay)
	}
}

func (c *Controller) arm(t Timer, after time.Duration) {
	c.tags[t]++
	c.armed[t] = true
	c.pending = append(c.pending, Schedule{Timer: t, After: after, Tag: c.tags[t]})
}

func (c *Controller) cancel(t Timer) {
	if !c.armed[t] {
		return
	}
	c.tags[t]++
	c.armed[t] = false
}
