package sandbox

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// umdBundle mimics the wrapper emitted by rollup/webpack for UMD builds
const umdBundle = `(function (global, factory) {
  typeof exports === 'object' && typeof module !== 'undefined' ? factory(exports) :
  typeof define === 'function' && define.amd ? define(['exports'], factory) :
  (global = typeof globalThis !== 'undefined' ? globalThis : global || self, factory(global.Greeter = {}));
})(this, (function (exports) {
  exports.version = '1.2.3';
  exports.greet = function (name) { return 'hello ' + name; };
}));`

func newTestNamespace(t *testing.T) *Namespace {
	t.Helper()
	ns := New(DefaultConfig())
	t.Cleanup(func() { _ = ns.Close() })
	return ns
}

func TestNamespaceRun(t *testing.T) {
	ns := newTestNamespace(t)

	tests := []struct {
		name   string
		script string
		want   interface{}
	}{
		{name: "number", script: "40 + 2", want: int64(42)},
		{name: "string", script: "'hello'.toUpperCase()", want: "HELLO"},
		{name: "boolean", script: "1 < 2", want: true},
		{name: "undefined", script: "undefined", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ns.Run(context.Background(), tt.script)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Value)
		})
	}
}

func TestNamespaceRunObjectExportsJSON(t *testing.T) {
	ns := newTestNamespace(t)

	result, err := ns.Run(context.Background(), "({a: 1, f: function () {}, b: [true]})")
	require.NoError(t, err)

	raw, ok := result.Value.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1,"b":[true]}`, string(raw))
}

func TestNamespaceConsoleCapture(t *testing.T) {
	ns := newTestNamespace(t)

	result, err := ns.Run(context.Background(), "console.log('a', 1); console.warn('b'); 'done'")
	require.NoError(t, err)

	require.Len(t, result.Console, 2)
	assert.Equal(t, "log", result.Console[0].Level)
	assert.Equal(t, "a 1", result.Console[0].Message)
	assert.Equal(t, "warn", result.Console[1].Level)

	// console is reset between runs
	result, err = ns.Run(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, result.Console)
}

func TestNamespaceConsoleDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableConsole = false
	ns := New(cfg)

	result, err := ns.Run(context.Background(), "console.log('x'); 1")
	require.NoError(t, err)
	assert.Empty(t, result.Console)
}

func TestNamespaceHardenedGlobals(t *testing.T) {
	ns := newTestNamespace(t)

	for _, script := range []string{"require('fs')", "process.exit(1)", "module.exports"} {
		_, err := ns.Run(context.Background(), script)
		assert.Error(t, err, script)
	}

	result, err := ns.Run(context.Background(), "window === globalThis && self === globalThis")
	require.NoError(t, err)
	assert.Equal(t, true, result.Value)
}

func TestNamespaceInstallUMD(t *testing.T) {
	ns := newTestNamespace(t)
	ctx := context.Background()

	assert.False(t, ns.Has("Greeter"))
	require.NoError(t, ns.Install(ctx, "Greeter", umdBundle))
	assert.True(t, ns.Has("Greeter"))
	assert.Equal(t, []string{"Greeter"}, ns.Installed())

	result, err := ns.Run(ctx, "Greeter.greet('docs') + ' ' + window.Greeter.version")
	require.NoError(t, err)
	assert.Equal(t, "hello docs 1.2.3", result.Value)
}

func TestNamespaceInstallSkipsExistingGlobal(t *testing.T) {
	ns := newTestNamespace(t)

	_, err := ns.Run(context.Background(), "var Existing = {}")
	require.NoError(t, err)

	// the source would throw if it were evaluated
	require.NoError(t, ns.Install(context.Background(), "Existing", "throw new Error('evaluated')"))
	assert.Empty(t, ns.Installed())
}

func TestNamespaceInstallFailures(t *testing.T) {
	tests := []struct {
		name   string
		source string
		target error
	}{
		{name: "syntax error", source: "function ("},
		{name: "throws", source: "throw new Error('broken bundle')"},
		{name: "missing global", source: "var other = 1;", target: ErrMissingGlobal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newTestNamespace(t)
			err := ns.Install(context.Background(), "Lib", tt.source)
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			assert.False(t, ns.Has("Lib"))
		})
	}
}

func TestNamespaceInstallRollsBackPartialBundle(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "var then throw", source: "var Widgets = {}; var helper = 1; throw new Error('init failed halfway');"},
		{name: "umd assignment then throw", source: "(function (root) { root.Widgets = {}; root.extra = {}; root.React.render(); })(this);"},
		{name: "function declaration then throw", source: "function Widgets() {} null.x;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns := newTestNamespace(t)
			_, err := ns.Run(context.Background(), "var existing = 'kept'")
			require.NoError(t, err)

			err = ns.Install(context.Background(), "Widgets", tt.source)
			require.Error(t, err)
			assert.False(t, ns.Has("Widgets"))
			assert.False(t, ns.Has("helper"))
			assert.False(t, ns.Has("extra"))
			assert.True(t, ns.Has("existing"))
			assert.Empty(t, ns.Installed())

			require.NoError(t, ns.Install(context.Background(), "Widgets", "var Widgets = { ok: true };"))
			result, err := ns.Run(context.Background(), "Widgets.ok")
			require.NoError(t, err)
			assert.Equal(t, true, result.Value)
		})
	}
}

func TestNamespaceInstallRollsBackInterruptedBundle(t *testing.T) {
	ns := newTestNamespace(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ns.Install(ctx, "Slow", "var Slow = {}; for (;;) {}")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ns.Has("Slow"))
}

func TestNamespaceInstallHonorsContext(t *testing.T) {
	ns := newTestNamespace(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := ns.Install(ctx, "Spin", "for (;;) {}")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the runtime is usable after an interrupt
	result, err := ns.Run(context.Background(), "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Value)
}

func TestNamespaceRunTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 20 * time.Millisecond
	ns := New(cfg)

	result, err := ns.Run(context.Background(), "console.log('start'); while (true) {}")
	assert.ErrorIs(t, err, ErrTimeout)
	require.NotNil(t, result)
	require.Len(t, result.Console, 1)
	assert.Equal(t, "start", result.Console[0].Message)
}

func TestNamespaceTimersAreNoops(t *testing.T) {
	ns := newTestNamespace(t)

	result, err := ns.Run(context.Background(), "var hit = false; setTimeout(function () { hit = true }, 0); hit")
	require.NoError(t, err)
	assert.Equal(t, false, result.Value)
}

func TestNamespaceClosed(t *testing.T) {
	ns := New(DefaultConfig())
	require.NoError(t, ns.Close())

	_, err := ns.Run(context.Background(), "1")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, ns.Install(context.Background(), "X", "var X = 1"), ErrClosed)
	assert.False(t, ns.Has("X"))
}

func TestNamespaceConcurrentAccess(t *testing.T) {
	ns := newTestNamespace(t)
	require.NoError(t, ns.Install(context.Background(), "Greeter", umdBundle))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := ns.Run(context.Background(), "Greeter.version")
			if assert.NoError(t, err) {
				assert.Equal(t, "1.2.3", result.Value)
			}
		}()
	}
	wg.Wait()
}
