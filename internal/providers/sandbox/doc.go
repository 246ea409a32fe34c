/*
Package sandbox provides the shared JavaScript namespace that libraries are
installed into and snippets run against.

A Namespace wraps one goja runtime. Library bundles are evaluated with
Install; UMD wrappers see no CommonJS or AMD loader and attach their export
to the global object, which is also reachable as window, self and globalThis.
Snippets run with Run and see every installed global.

# Security Model

Snippet code cannot reach require, process or module, and timers are no-ops.
Execution is bounded by Config.Timeout and by the caller's context; both
interrupt the VM.

# Usage Example

	ns := sandbox.New(sandbox.DefaultConfig())
	if err := ns.Install(ctx, "React", reactSource); err != nil {
		return err
	}

	result, err := ns.Run(ctx, `React.version`)
*/
package sandbox
