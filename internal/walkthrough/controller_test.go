package walkthrough_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gptwalk/internal/walkthrough"
)

// clock replays the controller's schedules against simulated time.
type clock struct {
	ctrl    *walkthrough.Controller
	now     time.Duration
	pending []due
}

type due struct {
	at time.Duration
	s  walkthrough.Schedule
}

func newClock(ctrl *walkthrough.Controller) *clock {
	c := &clock{ctrl: ctrl}
	c.collect()
	return c
}

func (c *clock) collect() {
	for _, s := range c.ctrl.Pending() {
		c.pending = append(c.pending, due{at: c.now + s.After, s: s})
	}
}

// advance moves simulated time forward by d, firing every expiry in order.
func (c *clock) advance(d time.Duration) {
	c.collect()
	end := c.now + d
	for {
		idx := -1
		for i, p := range c.pending {
			if p.at <= end && (idx < 0 || p.at < c.pending[idx].at) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}
		p := c.pending[idx]
		c.pending = append(c.pending[:idx], c.pending[idx+1:]...)
		c.now = p.at
		c.ctrl.Fire(p.s.Timer, p.s.Tag)
		c.collect()
	}
	c.now = end
}

func state(step int, playing bool, phase int) walkthrough.PlaybackState {
	return walkthrough.PlaybackState{ActiveStep: step, IsPlaying: playing, AttentionPhase: phase}
}

var _ = Describe("Controller", func() {
	var (
		ctrl *walkthrough.Controller
		clk  *clock
	)

	newController := func(opts ...walkthrough.Option) {
		var err error
		ctrl, err = walkthrough.NewController(walkthrough.DefaultCatalog(), opts...)
		Expect(err).NotTo(HaveOccurred())
		clk = newClock(ctrl)
	}

	BeforeEach(func() {
		newController()
	})

	It("starts at the first step, paused", func() {
		Expect(ctrl.State()).To(Equal(state(0, false, 0)))
		Expect(ctrl.Step().Name).To(Equal("Input Tokenization"))
	})

	It("rejects a catalog with the wrong number of steps", func() {
		_, err := walkthrough.NewController(walkthrough.DefaultCatalog()[:5])
		Expect(err).To(MatchError(walkthrough.ErrInvalidCatalog))
	})

	Describe("Play and Pause", func() {
		It("plays from a non-terminal step", func() {
			ctrl.Play()
			Expect(ctrl.State()).To(Equal(state(0, true, 0)))
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeTrue())
		})

		It("does not play at the terminal step", func() {
			ctrl.GoTo(7)
			ctrl.Play()
			Expect(ctrl.State().IsPlaying).To(BeFalse())
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeFalse())
		})

		It("pausing cancels both timers", func() {
			ctrl.GoTo(3)
			ctrl.Play()
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeTrue())
			Expect(ctrl.Armed(walkthrough.PhaseTimer)).To(BeTrue())

			ctrl.Pause()
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeFalse())
			Expect(ctrl.Armed(walkthrough.PhaseTimer)).To(BeFalse())

			clk.advance(10 * time.Second)
			Expect(ctrl.State()).To(Equal(state(3, false, 0)))
		})

		It("toggles between playing and paused", func() {
			ctrl.Toggle()
			Expect(ctrl.State().IsPlaying).To(BeTrue())
			ctrl.Toggle()
			Expect(ctrl.State().IsPlaying).To(BeFalse())
		})
	})

	Describe("Reset", func() {
		DescribeTable("always returns to the initial state",
			func(setup func()) {
				setup()
				ctrl.Reset()
				Expect(ctrl.State()).To(Equal(state(0, false, 0)))
			},
			Entry("from the start", func() {}),
			Entry("while playing", func() { ctrl.Play() }),
			Entry("mid attention", func() {
				ctrl.GoTo(3)
				ctrl.Play()
				clk.advance(1600 * time.Millisecond)
			}),
			Entry("from the terminal step", func() { ctrl.GoTo(7) }),
		)
	})

	Describe("GoTo", func() {
		DescribeTable("clamps out-of-range ids and pauses",
			func(id, want int) {
				ctrl.Play()
				ctrl.GoTo(id)
				Expect(ctrl.State().ActiveStep).To(Equal(want))
				Expect(ctrl.State().IsPlaying).To(BeFalse())
			},
			Entry("below range", -5, 0),
			Entry("just below", -1, 0),
			Entry("in range", 4, 4),
			Entry("just above", 8, 7),
			Entry("far above", 100, 7),
		)

		It("cancels in-flight autoplay", func() {
			ctrl.Play()
			clk.advance(3 * time.Second)
			ctrl.GoTo(2)
			clk.advance(10 * time.Second)
			Expect(ctrl.State()).To(Equal(state(2, false, 0)))
		})

		It("restarts the attention phase when re-entering step 3", func() {
			ctrl.GoTo(3)
			ctrl.Play()
			clk.advance(1600 * time.Millisecond)
			Expect(ctrl.State().AttentionPhase).To(Equal(2))

			ctrl.GoTo(3)
			Expect(ctrl.State()).To(Equal(state(3, false, 0)))
		})
	})

	Describe("Tick", func() {
		It("advances exactly one step per dwell while playing", func() {
			ctrl.Play()
			for want := 1; want <= 6; want++ {
				clk.advance(3999 * time.Millisecond)
				Expect(ctrl.State().ActiveStep).To(Equal(want - 1))
				clk.advance(time.Millisecond)
				Expect(ctrl.State().ActiveStep).To(Equal(want))
			}
		})

		It("stops at the terminal step", func() {
			ctrl.Play()
			clk.advance(7 * 4 * time.Second)
			Expect(ctrl.State()).To(Equal(state(7, false, 0)))
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeFalse())

			clk.advance(20 * time.Second)
			ctrl.Tick()
			Expect(ctrl.State()).To(Equal(state(7, false, 0)))
		})

		It("is a no-op while paused", func() {
			ctrl.GoTo(2)
			ctrl.Tick()
			Expect(ctrl.State()).To(Equal(state(2, false, 0)))
		})
	})

	Describe("AttentionTick", func() {
		It("only acts on the attention step while playing", func() {
			ctrl.AttentionTick()
			Expect(ctrl.State().AttentionPhase).To(Equal(0))

			ctrl.GoTo(3)
			ctrl.AttentionTick()
			Expect(ctrl.State().AttentionPhase).To(Equal(0))

			ctrl.GoTo(2)
			ctrl.Play()
			ctrl.AttentionTick()
			Expect(ctrl.State().AttentionPhase).To(Equal(0))
		})

		It("cycles 0 through 3 every phase interval", func() {
			ctrl.GoTo(3)
			ctrl.Play()
			var seen []int
			for i := 0; i < 5; i++ {
				clk.advance(750 * time.Millisecond)
				seen = append(seen, ctrl.State().AttentionPhase)
			}
			Expect(seen).To(Equal([]int{1, 2, 3, 0, 1}))
		})

		It("resets the phase when autoplay leaves step 3", func() {
			ctrl.GoTo(3)
			ctrl.Play()
			clk.advance(4 * time.Second)
			Expect(ctrl.State()).To(Equal(state(4, true, 0)))
			Expect(ctrl.Armed(walkthrough.PhaseTimer)).To(BeFalse())
		})

		It("keeps the phase across pause and resume", func() {
			ctrl.GoTo(3)
			ctrl.Play()
			clk.advance(1500 * time.Millisecond)
			ctrl.Pause()
			Expect(ctrl.State()).To(Equal(state(3, false, 2)))
			ctrl.Play()
			clk.advance(750 * time.Millisecond)
			Expect(ctrl.State()).To(Equal(state(3, true, 3)))
		})
	})

	Describe("timers", func() {
		It("ignores a stale expiry after cancellation", func() {
			ctrl.Play()
			var step walkthrough.Schedule
			for _, s := range ctrl.Pending() {
				if s.Timer == walkthrough.StepTimer {
					step = s
				}
			}
			Expect(step.Tag).NotTo(BeZero())
			ctrl.Pause()
			Expect(ctrl.Fire(walkthrough.StepTimer, step.Tag)).To(BeFalse())
			Expect(ctrl.State()).To(Equal(state(0, false, 0)))
		})

		It("ignores unknown timers", func() {
			Expect(ctrl.Fire(walkthrough.Timer(42), 1)).To(BeFalse())
		})
	})

	Describe("notifications", func() {
		It("reports every state change to subscribers", func() {
			var changes []walkthrough.PlaybackState
			unsubscribe := ctrl.Subscribe(func(_, next walkthrough.PlaybackState) {
				changes = append(changes, next)
			})
			ctrl.Play()
			ctrl.Play()
			ctrl.GoTo(5)
			unsubscribe()
			ctrl.Reset()
			Expect(changes).To(Equal([]walkthrough.PlaybackState{state(0, true, 0), state(5, false, 0)}))
		})

		It("lets a subscriber remove itself mid-notification", func() {
			var calls []string
			var unsubscribeA func()
			unsubscribeA = ctrl.Subscribe(func(_, _ walkthrough.PlaybackState) {
				calls = append(calls, "a")
				unsubscribeA()
			})
			ctrl.Subscribe(func(_, _ walkthrough.PlaybackState) { calls = append(calls, "b") })
			ctrl.Subscribe(func(_, _ walkthrough.PlaybackState) { calls = append(calls, "c") })

			ctrl.Play()
			Expect(calls).To(Equal([]string{"a", "b", "c"}))

			ctrl.Pause()
			Expect(calls).To(Equal([]string{"a", "b", "c", "b", "c"}))
		})

		It("lets a section listener remove itself mid-notification", func() {
			var calls []string
			var offA func()
			offA = ctrl.OnSection(func(walkthrough.Section) {
				calls = append(calls, "a")
				offA()
			})
			ctrl.OnSection(func(walkthrough.Section) { calls = append(calls, "b") })
			ctrl.OnSection(func(walkthrough.Section) { calls = append(calls, "c") })

			clk.advance(100 * time.Millisecond)
			Expect(calls).To(Equal([]string{"a", "b", "c"}))

			ctrl.GoTo(2)
			clk.advance(100 * time.Millisecond)
			Expect(calls).To(Equal([]string{"a", "b", "c", "b", "c"}))
		})

		It("debounces section notifications", func() {
			var sections []walkthrough.Section
			ctrl.OnSection(func(s walkthrough.Section) { sections = append(sections, s) })

			clk.advance(100 * time.Millisecond)
			Expect(sections).To(Equal([]walkthrough.Section{walkthrough.SectionInput}))

			ctrl.GoTo(1)
			clk.advance(50 * time.Millisecond)
			ctrl.GoTo(3)
			clk.advance(99 * time.Millisecond)
			Expect(sections).To(HaveLen(1))
			clk.advance(time.Millisecond)
			Expect(sections).To(Equal([]walkthrough.Section{walkthrough.SectionInput, walkthrough.SectionAttention}))
		})

		It("sends one notification per step change during autoplay", func() {
			var sections []walkthrough.Section
			ctrl.OnSection(func(s walkthrough.Section) { sections = append(sections, s) })
			ctrl.Play()
			clk.advance(30 * time.Second)
			Expect(sections).To(Equal([]walkthrough.Section{
				walkthrough.SectionInput,
				walkthrough.SectionEmbeddings,
				walkthrough.SectionPositional,
				walkthrough.SectionAttention,
				walkthrough.SectionAttention,
				walkthrough.SectionFeedForward,
				walkthrough.SectionFeedForward,
				walkthrough.SectionOutput,
			}))
		})
	})

	Describe("scenarios", func() {
		It("plays, jumps to attention and animates it", func() {
			Expect(ctrl.State()).To(Equal(state(0, false, 0)))
			ctrl.Play()
			Expect(ctrl.State()).To(Equal(state(0, true, 0)))
			clk.advance(4000 * time.Millisecond)
			Expect(ctrl.State()).To(Equal(state(1, true, 0)))
			ctrl.GoTo(3)
			Expect(ctrl.State()).To(Equal(state(3, false, 0)))
			ctrl.Play()
			clk.advance(750 * time.Millisecond)
			Expect(ctrl.State()).To(Equal(state(3, true, 1)))
		})

		It("forces playback off when restored at the terminal step", func() {
			newController(walkthrough.WithState(state(7, true, 2)))
			Expect(ctrl.State()).To(Equal(state(7, false, 0)))
			Expect(ctrl.Armed(walkthrough.StepTimer)).To(BeFalse())
		})

		It("resumes autoplay from a restored state", func() {
			newController(walkthrough.WithState(state(5, true, 0)))
			clk.advance(4 * time.Second)
			Expect(ctrl.State()).To(Equal(state(6, true, 0)))
		})

		It("honours custom timing", func() {
			newController(walkthrough.WithTiming(walkthrough.Timing{StepDwell: time.Second}))
			Expect(ctrl.Timing().PhaseInterval).To(Equal(walkthrough.DefaultPhaseInterval))
			ctrl.Play()
			clk.advance(2 * time.Second)
			Expect(ctrl.State().ActiveStep).To(Equal(2))
		})
	})

	Describe("Dispatch", func() {
		It("maps intents onto operations", func() {
			ctrl.Dispatch(walkthrough.Play())
			Expect(ctrl.State().IsPlaying).To(BeTrue())
			ctrl.Dispatch(walkthrough.GoTo(6))
			Expect(ctrl.State()).To(Equal(state(6, false, 0)))
			ctrl.Dispatch(walkthrough.Toggle())
			Expect(ctrl.State().IsPlaying).To(BeTrue())
			ctrl.Dispatch(walkthrough.Pause())
			Expect(ctrl.State().IsPlaying).To(BeFalse())
			ctrl.Dispatch(walkthrough.Reset())
			Expect(ctrl.State()).To(Equal(state(0, false, 0)))
		})
	})
})
