package ws

import (
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// Outbound envelope types
const (
	TypePresentApproval  = "present_approval"
	TypePresentRiskAlert = "present_risk_alert"
	TypeDismiss          = "dismiss"
	TypeSessionResolved  = "session_resolved"
	TypeCommand          = "command"
	TypeInitialRoute     = "initial_route"
	TypePong             = "pong"
	TypeResult           = "result"
	TypeError            = "error"
)

// Inbound message types
const (
	TypeAck           = "ack"
	TypePing          = "ping"
	TypeAccept        = "accept"
	TypeReject        = "reject"
	TypeDismissed     = "dismiss"
	TypeSelectNetwork = "select_network"
	TypeRiskChoice    = "risk_choice"
)

// Envelope is a message sent to clients
type Envelope struct {
	Type    string             `json:"type"`
	ID      string             `json:"id,omitempty"`
	Session *types.SessionView `json:"session,omitempty"`
	Payload any                `json:"payload,omitempty"`
}

// CommandPayload names a shell command and its arguments
type CommandPayload struct {
	Name string `json:"name"`
	Args any    `json:"args,omitempty"`
}

// ResultPayload answers an inbound action
type ResultPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Inbound is a message received from a client
type Inbound struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Value     string `json:"value,omitempty"`
	Choice    string `json:"choice,omitempty"`
	Error     string `json:"error,omitempty"`
}

func encode(env Envelope) ([]byte, error) {
	return sonic.Marshal(env)
}

func decode(data []byte) (Inbound, error) {
	var msg Inbound
	err := sonic.Unmarshal(data, &msg)
	return msg, err
}
