/*
Package ws connects the approval pipeline to the shell UI over WebSocket.

The Hub is the pipeline's Navigator: presenting or dismissing a session
broadcasts an envelope to every connected client. Clients answer with user
actions (accept, reject, dismiss, select_network, risk_choice) which the
hub applies through its bound Actions.

Shell work that only the UI can perform (restoring WalletConnect state,
refreshing the token list, explorer reloads, backup checks) is issued as a
command envelope; Command blocks until a client acks it or the context
expires.

Envelopes are encoded with sonic. Broadcasts never block: a client whose
send buffer is full is disconnected.
*/
package ws
