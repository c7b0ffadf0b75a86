package walkthrough

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiry struct {
	timer Timer
	tag   uint64
}

// Runner drives a Controller with wall-clock timers. Timer expiries and
// intents are serialized onto the goroutine running Run, so the controller
// keeps a single writer.
type Runner struct {
	ctrl    *Controller
	log     *zap.Logger
	intents chan Intent
	fired   chan expiry
	timers  [numTimers]*time.Timer

	// ExitOnFinish makes Run return once the terminal step is reached and its
	// scroll notification has been delivered.
	ExitOnFinish bool
}

func NewRunner(ctrl *Controller, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		ctrl:    ctrl,
		log:     log,
		intents: make(chan Intent, 16),
		fired:   make(chan expiry, numTimers),
	}
}

// Send queues an intent. It is safe to call from any goroutine and blocks
// only if the queue is full.
func (r *Runner) Send(in Intent) {
	r.intents <- in
}

// Run processes intents and timer expiries until ctx is done, or until the
// walkthrough finishes when ExitOnFinish is set.
func (r *Runner) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer func() {
		close(done)
		r.stopAll()
	}()

	r.schedule(done)
	for {
		if r.ExitOnFinish && r.finished() {
			r.log.Debug("walkthrough finished")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-r.intents:
			r.log.Debug("intent", zap.Stringer("intent", in))
			r.ctrl.Dispatch(in)
		case ev := <-r.fired:
			r.ctrl.Fire(ev.timer, ev.tag)
		}
		r.schedule(done)
	}
}

func (r *Runner) finished() bool {
	s := r.ctrl.State()
	return s.ActiveStep == LastStep && !s.IsPlaying && !r.ctrl.Armed(ScrollTimer)
}

func (r *Runner) schedule(done <-chan struct{}) {
	for _, s := range r.ctrl.Pending() {
		if old := r.timers[s.Timer]; old != nil {
			old.Stop()
		}
		ev := expiry{timer: s.Timer, tag: s.Tag}
		r.timers[s.Timer] = time.AfterFunc(s.After, func() {
			select {
			case r.fired <- ev:
			case <-done:
			}
		})
	}
}

func (r *Runner) stopAll() {
	for i, t := range r.timers {
		if t != nil {
			t.Stop()
			r.timers[i] = nil
		}
	}
}
