package types

import "time"

// SessionStatus represents approval session lifecycle states
type SessionStatus string

const (
	StatusPending      SessionStatus = "pending"
	StatusRiskChecking SessionStatus = "risk_checking"
	StatusAwaitingUser SessionStatus = "awaiting_user"
	StatusAccepted     SessionStatus = "accepted"
	StatusRejected     SessionStatus = "rejected"
	StatusSuperseded   SessionStatus = "superseded"
)

// IsTerminal reports whether the status ends the session
func (s SessionStatus) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusSuperseded
}

// ResolutionReason records which path committed the terminal transition
type ResolutionReason string

const (
	ReasonUser       ResolutionReason = "user"
	ReasonForced     ResolutionReason = "forced"
	ReasonTeardown   ResolutionReason = "teardown"
	ReasonSuperseded ResolutionReason = "superseded"
)

// RiskState tracks the reputation check of a session
type RiskState string

const (
	RiskUnchecked RiskState = "unchecked"
	RiskChecking  RiskState = "checking"
	RiskClear     RiskState = "clear"
	RiskFlagged   RiskState = "flagged"
	RiskOverruled RiskState = "overruled" // flagged, user chose to proceed
)

// Resolution is the outcome of a finished session
type Resolution struct {
	SessionID  string            `json:"session_id"`
	RequestKey string            `json:"request_key"`
	Kind       RequestKind       `json:"kind"`
	Topic      string            `json:"topic,omitempty"`
	Status     SessionStatus     `json:"status"`
	Reason     ResolutionReason  `json:"reason"`
	Approved   bool              `json:"approved"`
	Network    NetworkDescriptor `json:"network"`
	ResolvedAt time.Time         `json:"resolved_at"`
}

// SessionView is the read-only projection of a session sent to the UI
type SessionView struct {
	ID            string              `json:"id"`
	RequestID     string              `json:"request_id"`
	Kind          RequestKind         `json:"kind"`
	Source        SourceChannel       `json:"source"`
	Status        SessionStatus       `json:"status"`
	DappName      string              `json:"dapp_name"`
	DappURL       string              `json:"dapp_url"`
	DappHost      string              `json:"dapp_host"`
	Authenticated bool                `json:"authenticated"`
	ImageURL      string              `json:"image_url,omitempty"`
	ChainID       int64               `json:"chain_id"`
	ChainName     string              `json:"chain_name,omitempty"`
	Network       NetworkDescriptor   `json:"network"`
	Networks      []NetworkDescriptor `json:"networks"`
	Risk          RiskState           `json:"risk"`
	CreatedAt     time.Time           `json:"created_at"`
}
