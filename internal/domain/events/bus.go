package events

import (
	"time"

	"github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"
)

// TokenListUpdate is published after the token list refreshed
type TokenListUpdate struct {
	UpdatedAt time.Time
}

// TransactionConfirmation is published when a pending transaction confirms
type TransactionConfirmation struct {
	Hash        string
	ConfirmedAt time.Time
}

// Bus groups the topics the core publishes on
type Bus struct {
	AppStateChanged      *Topic[types.AppState]
	TokenListUpdated     *Topic[TokenListUpdate]
	TransactionConfirmed *Topic[TransactionConfirmation]
	SessionResolved      *Topic[types.Resolution]
	WalletReady          *Topic[string]
}

// NewBus creates a bus with empty topics
func NewBus() *Bus {
	return &Bus{
		AppStateChanged:      NewTopic[types.AppState]("app_state_changed"),
		TokenListUpdated:     NewTopic[TokenListUpdate]("token_list_updated"),
		TransactionConfirmed: NewTopic[TransactionConfirmation]("transaction_confirmed"),
		SessionResolved:      NewTopic[types.Resolution]("session_resolved"),
		WalletReady:          NewTopic[string]("wallet_ready"),
	}
}
