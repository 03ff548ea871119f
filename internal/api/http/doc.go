/*
Package http exposes the admission pipeline over a gin HTTP API.

Event endpoints feed the ingestion channels (push, attribution, links, app
state, confirmed transactions). Session endpoints list held sessions and
apply user answers. The walletconnect endpoints maintain the outstanding
request registry the queue consults before presenting external connects.

Errors from the domain packages are mapped to status codes in one place
(respondError).
*/
package http
