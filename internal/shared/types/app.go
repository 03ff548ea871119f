package types

// AppState represents the shell's foreground state
type AppState string

const (
	AppStateActive     AppState = "active"
	AppStateBackground AppState = "background"
	AppStateInactive   AppState = "inactive"
)

// Valid reports whether s is a known app state
func (s AppState) Valid() bool {
	switch s {
	case AppStateActive, AppStateBackground, AppStateInactive:
		return true
	}
	return false
}

// LifecycleSnapshot gates whether admitted requests may be presented
type LifecycleSnapshot struct {
	AppState             AppState `json:"app_state"`
	InitialRouteResolved bool     `json:"initial_route_resolved"`
}

// CanPresent reports whether a session may be shown right now
func (s LifecycleSnapshot) CanPresent() bool {
	return s.AppState == AppStateActive && s.InitialRouteResolved
}

// Initial routes picked once at startup
const (
	RouteSwipeLayout   = "swipe-layout"
	RouteWelcomeScreen = "welcome-screen"
)
