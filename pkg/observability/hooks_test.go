package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Load hooks
	l := NoopLoadHooks{}
	l.OnLoadStart(ctx, 5)
	l.OnLoadComplete(ctx, 5, 2, 1, time.Second, nil)
	l.OnFetch(ctx, "task#1", time.Millisecond, errors.New("boom"))

	// GC hooks
	g := NoopGCHooks{}
	g.OnOrphansDisposed([]string{"a", "b"}, time.Millisecond)
	g.OnTreeshake(3, 1, time.Millisecond)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "record")
	c.OnCacheMiss(ctx, "record")
	c.OnCacheSet(ctx, "dump", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/nodes")
	h.OnResponse(ctx, "GET", "/nodes", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Load() should return NoopLoadHooks by default")
	}
	if _, ok := GC().(NoopGCHooks); !ok {
		t.Error("GC() should return NoopGCHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customLoad := &testLoadHooks{}
	SetLoadHooks(customLoad)
	if Load() != customLoad {
		t.Error("SetLoadHooks should set custom hooks")
	}

	customGC := &testGCHooks{}
	SetGCHooks(customGC)
	if GC() != customGC {
		t.Error("SetGCHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Load().(NoopLoadHooks); !ok {
		t.Error("Reset() should restore NoopLoadHooks")
	}
	if _, ok := GC().(NoopGCHooks); !ok {
		t.Error("Reset() should restore NoopGCHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testGCHooks{}
	SetGCHooks(custom)

	// Setting nil should be ignored
	SetGCHooks(nil)

	if GC() != custom {
		t.Error("SetGCHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testLoadHooks struct{ NoopLoadHooks }
type testGCHooks struct{ NoopGCHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
