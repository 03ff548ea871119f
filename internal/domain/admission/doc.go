/*
Package admission serializes incoming requests into approval sessions.

The queue presents at most one session at a time. Requests that arrive
while a session is on screen wait in FIFO order; requests that arrive while
the app is in the background, or before the initial route is known, wait
until presentation is possible again. On a background to active transition
the restore work runs first and the waiting sessions are flushed after it.

Duplicate deliveries collapse on the request key. Push deliveries are held
back for a short delay so that a connection that is completing its own
handshake can surface the request itself; the push is dropped when that
happened.

All queue state is owned by the event loop. Exported methods are safe to
call from any goroutine.
*/
package admission
