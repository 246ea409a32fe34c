package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// Namespace is a single goja runtime shared by every installed library
// and every snippet. Access to the VM is serialized.
type Namespace struct {
	config Config

	mu        sync.Mutex
	vm        *goja.Runtime
	installed map[string]time.Time

	consoleMu sync.Mutex
	console   []LogEntry
}

// New creates a namespace with hardened globals
func New(config Config) *Namespace {
	n := &Namespace{
		config:    config,
		installed: make(map[string]time.Time),
	}
	n.vm = n.newVM()
	return n
}

// newVM builds a runtime that UMD bundles treat as a browser window
func (n *Namespace) newVM() *goja.Runtime {
	vm := goja.New()
	if n.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(n.config.MaxCallStack)
	}

	global := vm.GlobalObject()
	_ = global.Set("window", global)
	_ = global.Set("self", global)

	// no CommonJS or AMD, so UMD wrappers fall through to the global branch
	for _, name := range []string{"require", "process", "module", "exports", "define"} {
		_ = global.Set(name, goja.Undefined())
	}

	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"setTimeout", "setInterval", "clearTimeout", "clearInterval"} {
		_ = global.Set(name, noop)
	}

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(level, n.makeConsoleFunc(level))
	}
	_ = global.Set("console", console)

	return vm
}

// Has reports whether global is defined in the namespace
func (n *Namespace) Has(global string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.vm == nil {
		return false
	}
	return defined(n.vm.GlobalObject().Get(global))
}

// Install evaluates a library bundle and checks that it defined global.
// ctx cancellation interrupts evaluation.
func (n *Namespace) Install(ctx context.Context, global, source string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.vm == nil {
		return ErrClosed
	}
	if defined(n.vm.GlobalObject().Get(global)) {
		return nil
	}

	prog, err := goja.Compile(global+".js", source, false)
	if err != nil {
		return fmt.Errorf("parse %s: %w", global, err)
	}

	before := n.globalNames()

	stop := n.guard(ctx, 0)
	_, err = n.vm.RunProgram(prog)
	stop()
	if err != nil {
		n.rollback(before, global)
		return fmt.Errorf("evaluate %s: %w", global, unwrapInterrupt(err))
	}

	if !defined(n.vm.GlobalObject().Get(global)) {
		n.rollback(before, global)
		return fmt.Errorf("%w: %s", ErrMissingGlobal, global)
	}

	n.installed[global] = time.Now()
	return nil
}

func (n *Namespace) globalNames() map[string]struct{} {
	names := n.vm.GlobalObject().GetOwnPropertyNames()
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// rollback removes globals a failed bundle defined so a retry starts from
// a clean namespace. Top-level var bindings cannot be deleted and are reset
// to undefined instead.
func (n *Namespace) rollback(before map[string]struct{}, global string) {
	obj := n.vm.GlobalObject()
	for _, name := range obj.GetOwnPropertyNames() {
		if _, ok := before[name]; ok && name != global {
			continue
		}
		if err := obj.Delete(name); err != nil {
			_ = obj.Set(name, goja.Undefined())
		}
	}
}

// Run executes a snippet against the installed libraries. The result is
// returned even on failure so captured console output is not lost.
func (n *Namespace) Run(ctx context.Context, script string) (*Result, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.vm == nil {
		return nil, ErrClosed
	}

	n.consoleMu.Lock()
	n.console = []LogEntry{}
	n.consoleMu.Unlock()

	start := time.Now()
	stop := n.guard(ctx, n.config.Timeout)
	val, err := n.vm.RunString(script)
	stop()

	result := &Result{Duration: time.Since(start)}

	n.consoleMu.Lock()
	result.Console = append([]LogEntry{}, n.console...)
	n.consoleMu.Unlock()

	if err != nil {
		return result, unwrapInterrupt(err)
	}

	result.Value = exportValue(val)
	return result, nil
}

// Installed returns the sorted globals installed through Install
func (n *Namespace) Installed() []string {
	n.mu.Lock()
	names := make([]string, 0, len(n.installed))
	for name := range n.installed {
		names = append(names, name)
	}
	n.mu.Unlock()

	sort.Strings(names)
	return names
}

// Close releases the runtime
func (n *Namespace) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.vm = nil
	n.installed = map[string]time.Time{}
	return nil
}

// guard interrupts the VM on ctx cancellation or after timeout (if > 0).
// The returned stop must be called once the VM call returns.
func (n *Namespace) guard(ctx context.Context, timeout time.Duration) (stop func()) {
	vm := n.vm
	done := make(chan struct{})
	exited := make(chan struct{})

	var expired <-chan time.Time
	var timer *time.Timer
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		expired = timer.C
	}

	go func() {
		defer close(exited)
		select {
		case <-expired:
			vm.Interrupt(ErrTimeout)
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	return func() {
		close(done)
		<-exited
		if timer != nil {
			timer.Stop()
		}
		vm.ClearInterrupt()
	}
}

// makeConsoleFunc creates a console function
func (n *Namespace) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if !n.config.EnableConsole {
			return goja.Undefined()
		}

		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		n.consoleMu.Lock()
		n.console = append(n.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		n.consoleMu.Unlock()

		return goja.Undefined()
	}
}

func defined(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// unwrapInterrupt surfaces the error passed to vm.Interrupt
func unwrapInterrupt(err error) error {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		if cause, ok := ie.Value().(error); ok {
			return cause
		}
	}
	return err
}

// exportValue converts a goja value into something JSON can encode
func exportValue(val goja.Value) interface{} {
	if !defined(val) {
		return nil
	}
	if _, ok := goja.AssertFunction(val); ok {
		return val.String()
	}
	if obj, ok := val.(*goja.Object); ok {
		raw, err := obj.MarshalJSON()
		if err != nil {
			return obj.String()
		}
		return json.RawMessage(raw)
	}
	return val.Export()
}
