package approval

import "github.com/GriffinCanCode/WalletShell/backend/internal/shared/types"

// Navigator drives the approval UI
type Navigator interface {
	PresentApproval(view types.SessionView)
	PresentRiskAlert(view types.SessionView)
	Dismiss(sessionID string)
}

// Tracker receives analytics events
type Tracker interface {
	Track(event string, properties map[string]any)
}

// Analytics event names
const (
	EventSessionShown = "Shown Walletconnect session request"
)

// NopNavigator ignores every call
type NopNavigator struct{}

func (NopNavigator) PresentApproval(types.SessionView)  {}
func (NopNavigator) PresentRiskAlert(types.SessionView) {}
func (NopNavigator) Dismiss(string)                     {}
