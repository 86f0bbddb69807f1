// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers can
// register hooks at startup to receive events about cell renders and
// canvas service calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    observability.SetCanvasHooks(&myCanvasHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnCellStart(ctx, space, cellNo)
//	// ... render the cell ...
//	observability.Render().OnCellComplete(ctx, space, cellNo, sections, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the cell render pipeline.
type RenderHooks interface {
	// OnCellStart records the start of a cell render pass.
	OnCellStart(ctx context.Context, space string, cellNo int)

	// OnCellComplete records the end of a cell render pass with the
	// number of sections it registered.
	OnCellComplete(ctx context.Context, space string, cellNo, sections int, duration time.Duration, err error)

	// OnOutputSkipped records an output dropped by a per-output failure.
	OnOutputSkipped(ctx context.Context, space string, cellNo, outputIndex int, err error)
}

// =============================================================================
// Canvas Hooks
// =============================================================================

// CanvasHooks receives events from canvas service calls.
type CanvasHooks interface {
	// OnRequest records an outgoing canvas API request.
	OnRequest(ctx context.Context, method, endpoint string)

	// OnResponse records a canvas API response.
	OnResponse(ctx context.Context, method, endpoint string, statusCode int, duration time.Duration)

	// OnError records a canvas API failure (network failure, timeout).
	OnError(ctx context.Context, method, endpoint string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnCellStart(context.Context, string, int)                               {}
func (NoopRenderHooks) OnCellComplete(context.Context, string, int, int, time.Duration, error) {}
func (NoopRenderHooks) OnOutputSkipped(context.Context, string, int, int, error)               {}

// NoopCanvasHooks is a no-op implementation of CanvasHooks.
type NoopCanvasHooks struct{}

func (NoopCanvasHooks) OnRequest(context.Context, string, string)                      {}
func (NoopCanvasHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopCanvasHooks) OnError(context.Context, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	canvasHooks CanvasHooks = NoopCanvasHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any renders.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetCanvasHooks registers custom canvas hooks.
// This should be called once at application startup before any canvas calls.
func SetCanvasHooks(h CanvasHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		canvasHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Canvas returns the registered canvas hooks.
func Canvas() CanvasHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return canvasHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	canvasHooks = NoopCanvasHooks{}
}
