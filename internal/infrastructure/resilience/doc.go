/*
Package resilience provides a circuit breaker for upstream calls that may
degrade, such as the scam list fetch behind the reputation gate.

# States

	Closed --[N consecutive failures]-> Open --[cooldown]-> Half-Open
	                                      ^                    |
	                                      +----[probe fails]---+
	Half-Open --[probe succeeds]-> Closed

While half-open a single probe call is admitted; concurrent callers keep
getting ErrOpen until the probe settles.

# Usage

	breaker := resilience.New("scamlist", resilience.Settings{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	})

	hosts, err := resilience.Call(breaker, func() ([]string, error) {
		return fetch(ctx)
	})
*/
package resilience
