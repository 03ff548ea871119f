// Package types provides shared data structures for the WalletShell backend.
//
// This package defines the types that flow through the session-request
// pipeline, from the channel adapters to the approval UI.
//
// Core Types:
//   - IncomingRequest: One physical delivery of a session request
//   - SessionStatus, ResolutionReason: Approval session lifecycle
//   - SessionView: Read-only projection presented to the UI
//   - NetworkDescriptor: Static chain metadata
//
// Lifecycle:
//   - AppState: Foreground/background state of the shell
//   - LifecycleSnapshot: Gates whether sessions may be presented
//
// Example Usage:
//
//	req := types.IncomingRequest{
//	    ID:      string(id.NewRequestID()),
//	    Kind:    types.KindConnect,
//	    Source:  types.SourcePush,
//	    Payload: types.Payload{Topic: "abc"},
//	}
//	if err := req.Validate(); err != nil {
//	    return err
//	}
package types
