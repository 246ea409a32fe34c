/*
Package resilience provides circuit breakers for upstream library hosts.

A Breaker counts outcomes of calls to one upstream. After ReadyToTrip
reports true it opens and rejects calls with ErrCircuitOpen until Timeout
elapses, then admits MaxRequests trial calls while half-open.

A Set keeps one Breaker per host so a single unreachable CDN does not block
fetches from the others.

# Usage

	breakers := resilience.NewSet(resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	err := breakers.Get("unpkg.com").Do(func() error {
		return fetch(ctx)
	})

# States

	Closed --[trip]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                        |
	                                    [failure]
	                                        v
	                                       Open
*/
package resilience
