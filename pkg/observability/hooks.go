// Package observability provides hooks for instrumenting dependency checks.
//
// Consumers that embed deprule, or wrap it in CI tooling, can register hooks
// at startup to receive an event when the dependency graph has been collected
// and when a check has finished. No backend is imported here; the defaults
// do nothing.
//
// Register hooks before running any command:
//
//	func main() {
//	    observability.SetCheckHooks(&myMetrics{})
//	    // ... run application
//	}
//
// The command line calls hooks around each step:
//
//	observability.Check().OnCollectStart(ctx, manifest)
//	// ... run cargo metadata ...
//	observability.Check().OnCollectComplete(ctx, manifest, packages, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// CheckHooks receives events from a dependency rule check.
type CheckHooks interface {
	// Metadata collection events. packages is 0 when err is set.
	OnCollectStart(ctx context.Context, manifest string)
	OnCollectComplete(ctx context.Context, manifest string, packages int, duration time.Duration, err error)

	// Tree traversal events. violations counts forbidden edges rendered.
	OnCheckStart(ctx context.Context, roots int)
	OnCheckComplete(ctx context.Context, roots, violations int, duration time.Duration, err error)
}

// NoopCheckHooks is a no-op implementation of CheckHooks.
type NoopCheckHooks struct{}

func (NoopCheckHooks) OnCollectStart(context.Context, string)                               {}
func (NoopCheckHooks) OnCollectComplete(context.Context, string, int, time.Duration, error) {}
func (NoopCheckHooks) OnCheckStart(context.Context, int)                                    {}
func (NoopCheckHooks) OnCheckComplete(context.Context, int, int, time.Duration, error)      {}

var (
	checkHooks CheckHooks = NoopCheckHooks{}
	hooksMu    sync.RWMutex
)

// SetCheckHooks registers custom check hooks. A nil h is ignored.
// This should be called once at application startup.
func SetCheckHooks(h CheckHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		checkHooks = h
	}
}

// Check returns the registered check hooks.
func Check() CheckHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return checkHooks
}

// Reset restores the no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	checkHooks = NoopCheckHooks{}
}
