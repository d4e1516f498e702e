// Package observability provides hooks for progress reporting and metrics.
//
// Library packages emit events through the registered hooks without knowing
// who listens. The CLI registers implementations at startup; the live
// progress view of "ocrbench run --progress" is one of them.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hook arguments are plain strings and numbers, so this package imports
// nothing from the rest of the module and every package may emit events.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetBatchHooks(progress)
//	observability.SetRunnerHooks(progress)
//
// Libraries call hooks to emit events:
//
//	observability.Runner().OnLaunch(ctx, runID, executable)
//	// ... wait for the child ...
//	observability.Runner().OnExit(ctx, runID, status, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Runner Hooks
// =============================================================================

// RunnerHooks receives events from the bounded process runner.
type RunnerHooks interface {
	// OnLaunch records a child process that started successfully.
	OnLaunch(ctx context.Context, runID, executable string)

	// OnSignal records a signal the harness sent to a child's process group.
	OnSignal(ctx context.Context, runID, signal string)

	// OnExit records the classified end of a run.
	OnExit(ctx context.Context, runID, status string, elapsed time.Duration)
}

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from batch evaluation.
type BatchHooks interface {
	// OnBatchStart records the discovered instance count.
	OnBatchStart(ctx context.Context, batchID string, instances int)

	// OnInstanceStart records that an instance was handed to the runner.
	OnInstanceStart(ctx context.Context, instance string)

	// OnRow records a finished, scored row.
	OnRow(ctx context.Context, instance, status, verdict string, elapsed time.Duration)

	// OnBatchComplete records the end of a batch; err is nil on success.
	OnBatchComplete(ctx context.Context, batchID string, rows int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRunnerHooks is a no-op implementation of RunnerHooks.
type NoopRunnerHooks struct{}

func (NoopRunnerHooks) OnLaunch(context.Context, string, string)              {}
func (NoopRunnerHooks) OnSignal(context.Context, string, string)              {}
func (NoopRunnerHooks) OnExit(context.Context, string, string, time.Duration) {}

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string, int)                    {}
func (NoopBatchHooks) OnInstanceStart(context.Context, string)                      {}
func (NoopBatchHooks) OnRow(context.Context, string, string, string, time.Duration) {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	runnerHooks RunnerHooks = NoopRunnerHooks{}
	batchHooks  BatchHooks  = NoopBatchHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	hooksMu     sync.RWMutex
)

// SetRunnerHooks registers custom runner hooks.
// This should be called once at application startup before any run starts.
func SetRunnerHooks(h RunnerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runnerHooks = h
	}
}

// SetBatchHooks registers custom batch hooks.
// This should be called once at application startup before any batch starts.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Runner returns the registered runner hooks.
func Runner() RunnerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runnerHooks
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	runnerHooks = NoopRunnerHooks{}
	batchHooks = NoopBatchHooks{}
	cacheHooks = NoopCacheHooks{}
}
