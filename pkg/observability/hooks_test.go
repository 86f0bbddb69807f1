package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopRenderHooks{}
	r.OnCellStart(ctx, "LocalNine", 1)
	r.OnCellComplete(ctx, "LocalNine", 1, 2, time.Second, nil)
	r.OnOutputSkipped(ctx, "LocalNine", 1, 0, nil)

	c := NoopCanvasHooks{}
	c.OnRequest(ctx, "POST", "/section")
	c.OnResponse(ctx, "POST", "/section", 200, time.Second)
	c.OnError(ctx, "POST", "/section", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Canvas().(NoopCanvasHooks); !ok {
		t.Error("Canvas() should return NoopCanvasHooks by default")
	}

	customRender := &testRenderHooks{}
	SetRenderHooks(customRender)
	if Render() != customRender {
		t.Error("SetRenderHooks should set custom hooks")
	}

	customCanvas := &testCanvasHooks{}
	SetCanvasHooks(customCanvas)
	if Canvas() != customCanvas {
		t.Error("SetCanvasHooks should set custom hooks")
	}

	Reset()
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Reset() should restore NoopRenderHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRenderHooks{}
	SetRenderHooks(custom)

	SetRenderHooks(nil)

	if Render() != custom {
		t.Error("SetRenderHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testRenderHooks struct{ NoopRenderHooks }
type testCanvasHooks struct{ NoopCanvasHooks }
