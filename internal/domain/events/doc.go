// Package events provides typed publish/subscribe topics.
//
// Every subscription returns a handle; components that subscribe collect
// their handles in a Scope and release them all on shutdown.
package events
