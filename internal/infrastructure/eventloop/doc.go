/*
Package eventloop runs pipeline work on a single goroutine.

All admission, session and routing state is owned by one Loop. Other
goroutines (HTTP handlers, the WebSocket hub, reputation checks, restore
work) never touch that state directly; they Post a closure, or use Do when
they need the result.

	loop := eventloop.New(logger, eventloop.RealClock())
	defer loop.Close()

	loop.After(500*time.Millisecond, func() {
		// runs on the loop goroutine
	})

Timers go through a Clock. Tests use a ManualClock and step time with
Advance, then call Sync to let the loop catch up.
*/
package eventloop
