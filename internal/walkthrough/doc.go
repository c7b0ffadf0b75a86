// Package walkthrough provides the step and playback state machine behind the
// transformer walkthrough.
//
// The package defines the fixed stage catalog and the controller that moves
// through it:
//
//   - [Step]: one stage of the walkthrough (id, name, description)
//   - [Catalog]: the ordered, validated list of eight steps
//   - [Controller]: owns [PlaybackState] and the timers that drive autoplay
//   - [Runner]: headless driver that backs the controller with real timers
//
// # Timers
//
// The controller never sleeps. Arming a timer queues a [Schedule] carrying a
// generation tag; the driver turns it into a real timer and reports expiry
// through [Controller.Fire]. Cancelling a timer bumps its tag, so an expiry
// that was already in flight is recognised as stale and dropped.
//
//	ctrl, _ := walkthrough.NewController(walkthrough.DefaultCatalog())
//	ctrl.Play()
//	for _, s := range ctrl.Pending() {
//		// after s.After: ctrl.Fire(s.Timer, s.Tag)
//	}
//
// # Thread Safety
//
// Controller is NOT thread-safe. All calls must come from the goroutine that
// owns it (the Bubble Tea event loop, or [Runner.Run]).
package walkthrough
