package loader

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/docext/internal/domain/registry"
)

// Describer resolves library identifiers to descriptors
type Describer interface {
	Describe(id string) (registry.Descriptor, bool)
}

// Installer fetches a library and makes it reachable in the shared
// namespace. It must enforce its own timeout.
type Installer interface {
	Install(ctx context.Context, desc registry.Descriptor) error
}

// Recorder receives load metrics
type Recorder interface {
	RecordEnsure(library, outcome string)
	RecordInstall(library string, err error, duration time.Duration)
	SetLibrariesLoaded(count int)
	SetInstallsInflight(count int)
}

// Ensure outcomes reported to the Recorder
const (
	OutcomeHit      = "hit"
	OutcomeJoined   = "joined"
	OutcomeStarted  = "started"
	OutcomeNotFound = "not_found"
)

// Coordinator deduplicates and memoizes library loads
type Coordinator struct {
	registry  Describer
	installer Installer
	logger    *zap.Logger
	metrics   Recorder

	mu       sync.Mutex
	states   map[string]*entry
	loaded   int
	inflight int

	listenersMu sync.RWMutex
	listeners   map[uint64]func(Event)
	nextID      uint64
}

// New creates a coordinator over the given registry and installer
func New(reg Describer, installer Installer) *Coordinator {
	return &Coordinator{
		registry:  reg,
		installer: installer,
		logger:    zap.NewNop(),
		metrics:   nopRecorder{},
		states:    make(map[string]*entry),
		listeners: make(map[uint64]func(Event)),
	}
}

// WithLogger sets the logger
func (c *Coordinator) WithLogger(logger *zap.Logger) *Coordinator {
	if logger != nil {
		c.logger = logger.Named("loader")
	}
	return c
}

// WithMetrics sets the metrics recorder
func (c *Coordinator) WithMetrics(metrics Recorder) *Coordinator {
	if metrics != nil {
		c.metrics = metrics
	}
	return c
}

// Subscribe registers fn for every state transition. fn runs on the
// goroutine that caused the transition and must not block. The event for a
// finished install is delivered before its waiters are released.
func (c *Coordinator) Subscribe(fn func(Event)) (cancel func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

// EnsureLoaded returns once the library and everything it requires are
// loaded, or once one of those loads failed. Dependencies are ensured in
// declaration order before the library's own install starts. Concurrent
// callers for the same identifier share one install.
func (c *Coordinator) EnsureLoaded(ctx context.Context, id string) error {
	return c.ensure(ctx, id, nil)
}

func (c *Coordinator) ensure(ctx context.Context, id string, chain []string) error {
	if state, op, ok := c.lookup(id); ok {
		return c.join(ctx, id, state, op)
	}

	desc, ok := c.registry.Describe(id)
	if !ok {
		c.metrics.RecordEnsure(id, OutcomeNotFound)
		c.logger.Debug("unknown library requested", zap.String("library", id))
		return notFound(id)
	}

	if len(desc.Requires) > 0 {
		if slices.Contains(chain, id) {
			return &InstallError{ID: id, Err: fmt.Errorf("%w: %s", registry.ErrCycle, strings.Join(append(chain, id), " -> "))}
		}
		chain = append(chain, id)
		for _, dep := range desc.Requires {
			if err := c.ensure(ctx, dep, chain); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
					return err
				}
				return &InstallError{ID: id, Err: fmt.Errorf("dependency %s: %w", dep, err)}
			}
		}
	}

	c.mu.Lock()
	// Another caller may have started or finished this load while the
	// dependencies were being ensured.
	if e, ok := c.states[id]; ok {
		state, op := e.state, e.op
		c.mu.Unlock()
		return c.join(ctx, id, state, op)
	}

	// Record Loading before the install starts so later callers join it.
	op := newPending()
	c.states[id] = &entry{state: StateLoading, op: op}
	c.inflight++
	inflight := c.inflight
	c.mu.Unlock()

	c.metrics.RecordEnsure(id, OutcomeStarted)
	c.metrics.SetInstallsInflight(inflight)
	c.emit(Event{ID: id, From: StateUnloaded, To: StateLoading})

	go c.install(context.WithoutCancel(ctx), desc, op)

	return op.wait(ctx)
}

// lookup returns the recorded state of id, if any
func (c *Coordinator) lookup(id string) (State, *pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.states[id]
	if !ok {
		return StateUnloaded, nil, false
	}
	return e.state, e.op, true
}

func (c *Coordinator) join(ctx context.Context, id string, state State, op *pending) error {
	if state == StateLoaded {
		c.metrics.RecordEnsure(id, OutcomeHit)
		return nil
	}
	c.metrics.RecordEnsure(id, OutcomeJoined)
	return op.wait(ctx)
}

// EnsureAll loads every identifier concurrently and returns the first error
func (c *Coordinator) EnsureAll(ctx context.Context, ids ...string) error {
	g, gctx := errgroup.WithContext(ctx)

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		id := id
		g.Go(func() error {
			return c.EnsureLoaded(gctx, id)
		})
	}

	return g.Wait()
}

// install runs the installer, publishes the outcome and then resolves op
// exactly once
func (c *Coordinator) install(ctx context.Context, desc registry.Descriptor, op *pending) {
	start := time.Now()
	c.logger.Info("installing library",
		zap.String("library", desc.ID),
		zap.String("version", desc.Version),
		zap.String("source", desc.Source),
	)

	err := c.safeInstall(ctx, desc)
	duration := time.Since(start)
	c.metrics.RecordInstall(desc.ID, err, duration)

	var result error
	event := Event{ID: desc.ID, From: StateLoading}

	c.mu.Lock()
	c.inflight--
	if err != nil {
		delete(c.states, desc.ID)
		result = &InstallError{ID: desc.ID, Err: err}
		event.To = StateUnloaded
		event.Err = result
	} else {
		c.states[desc.ID] = &entry{state: StateLoaded}
		c.loaded++
		event.To = StateLoaded
	}
	loaded, inflight := c.loaded, c.inflight
	c.mu.Unlock()

	c.metrics.SetLibrariesLoaded(loaded)
	c.metrics.SetInstallsInflight(inflight)

	if err != nil {
		c.logger.Warn("library install failed",
			zap.String("library", desc.ID),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	} else {
		c.logger.Info("library loaded",
			zap.String("library", desc.ID),
			zap.Duration("duration", duration),
		)
	}

	c.emit(event)
	op.resolve(result)
}

// safeInstall converts an installer panic into an install failure
func (c *Coordinator) safeInstall(ctx context.Context, desc registry.Descriptor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("installer panic: %v", r)
		}
	}()
	return c.installer.Install(ctx, desc)
}

func (c *Coordinator) emit(ev Event) {
	c.listenersMu.RLock()
	defer c.listenersMu.RUnlock()

	for _, fn := range c.listeners {
		fn(ev)
	}
}

// State returns the current state of an identifier
func (c *Coordinator) State(id string) State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.states[id]; ok {
		return e.state
	}
	return StateUnloaded
}

// Snapshot returns the state of every identifier with an entry
func (c *Coordinator) Snapshot() map[string]State {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]State, len(c.states))
	for id, e := range c.states {
		out[id] = e.state
	}
	return out
}

// Loaded returns the sorted identifiers in the Loaded state
func (c *Coordinator) Loaded() []string {
	c.mu.Lock()
	ids := make([]string, 0, c.loaded)
	for id, e := range c.states {
		if e.state == StateLoaded {
			ids = append(ids, id)
		}
	}
	c.mu.Unlock()

	sort.Strings(ids)
	return ids
}

type nopRecorder struct{}

func (nopRecorder) RecordEnsure(string, string)                {}
func (nopRecorder) RecordInstall(string, error, time.Duration) {}
func (nopRecorder) SetLibrariesLoaded(int)                     {}
func (nopRecorder) SetInstallsInflight(int)                    {}
