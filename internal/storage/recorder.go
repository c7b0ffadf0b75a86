package storage

import (
	"time"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// Transition is one recorded state change, timed from the start of the
// session.
type Transition struct {
	At    time.Duration
	State walkthrough.PlaybackState
}

// Recorder collects the state changes of a controller.
type Recorder struct {
	now         func() time.Time
	started     time.Time
	last        time.Time
	final       walkthrough.PlaybackState
	transitions []Transition
	unsub       func()
}

// NewRecorder starts recording ctrl. The clock may be nil.
func NewRecorder(ctrl *walkthrough.Controller, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	r := &Recorder{now: now, final: ctrl.State()}
	r.started = now()
	r.last = r.started
	r.transitions = append(r.transitions, Transition{State: r.final})
	r.unsub = ctrl.Subscribe(func(_, next walkthrough.PlaybackState) {
		r.last = r.now()
		r.final = next
		r.transitions = append(r.transitions, Transition{At: r.last.Sub(r.started), State: next})
	})
	return r
}

// Stop detaches the recorder. The collected data stays readable.
func (r *Recorder) Stop() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
		r.last = r.now()
	}
}

func (r *Recorder) Started() time.Time               { return r.started }
func (r *Recorder) Elapsed() time.Duration           { return r.last.Sub(r.started) }
func (r *Recorder) Final() walkthrough.PlaybackState { return r.final }
func (r *Recorder) Transitions() []Transition        { return r.transitions }
