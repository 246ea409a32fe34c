package loader

import "context"

// State is the load state of one library identifier
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// MarshalText lets states render as strings in JSON payloads
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event describes one state transition
type Event struct {
	ID   string
	From State
	To   State
	Err  error
}

// pending is the shared handle for an in-flight install.
// err is written once before done is closed.
type pending struct {
	done chan struct{}
	err  error
}

func newPending() *pending {
	return &pending{done: make(chan struct{})}
}

func (p *pending) resolve(err error) {
	p.err = err
	close(p.done)
}

func (p *pending) wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type entry struct {
	state State
	op    *pending
}
