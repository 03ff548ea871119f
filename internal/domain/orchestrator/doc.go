/*
Package orchestrator wires the ingestion channels to the admission pipeline
and runs the shell's startup and lifecycle reactions.

Push messages, attribution callbacks, system links and the cold-start
initial URL all enter here. Links go through the deeplink router; requests
that classify as raw deeplinks are forwarded to the RawHandler and
everything else is admitted to the queue.

At startup the orchestrator picks the initial route from the stored wallet
address, identifies the device for analytics and schedules the periodic
token list refresh. It reacts to app state changes, token list updates,
confirmed transactions and the wallet becoming ready. Every subscription it
takes is released by Close.
*/
package orchestrator
