package registry

import (
	"context"
	"io"
	"log/slog"
	"plugin"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	woxplugin "github.com/Wox-launcher/wox-plugin-host/sdk/go/woxplugin"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePlugin struct{}

func (fakePlugin) Init(ctx context.Context, params woxplugin.InitParams) error { return nil }
func (fakePlugin) Query(ctx context.Context, query woxplugin.Query) []woxplugin.Result {
	return nil
}

func TestEntryToModuleName(t *testing.T) {
	tests := []struct {
		pluginDir string
		entry     string
		want      string
	}{
		{"/plugins/example", "main.so", "example.main"},
		{"/plugins/calculator", "pkg/handler.so", "calculator.pkg.handler"},
	}
	for _, tc := range tests {
		got := entryToModuleName(tc.pluginDir, tc.entry)
		if got != tc.want {
			t.Errorf("entryToModuleName(%q, %q) = %q, want %q", tc.pluginDir, tc.entry, got, tc.want)
		}
	}
}

func TestDerefPlugin_Value(t *testing.T) {
	var sym plugin.Symbol = fakePlugin{}
	p, ok := derefPlugin(sym)
	if !ok || p == nil {
		t.Fatal("derefPlugin should accept a value satisfying woxplugin.Plugin")
	}
}

func TestDerefPlugin_Pointer(t *testing.T) {
	var p woxplugin.Plugin = fakePlugin{}
	var sym plugin.Symbol = &p
	got, ok := derefPlugin(sym)
	if !ok || got == nil {
		t.Fatal("derefPlugin should accept a *woxplugin.Plugin")
	}
}

func TestDerefPlugin_Unrelated(t *testing.T) {
	var sym plugin.Symbol = 42
	_, ok := derefPlugin(sym)
	if ok {
		t.Error("derefPlugin should reject a symbol that doesn't satisfy woxplugin.Plugin")
	}
}

func TestRemoveAll(t *testing.T) {
	path := []string{"/a", "/b", "/c", "/a"}
	got := removeAll(path, "/a")
	want := []string{"/b", "/c"}
	if len(got) != len(want) {
		t.Fatalf("removeAll = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("removeAll[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInstance_ClearCallbacks(t *testing.T) {
	inst := &Instance{
		actions:     make(map[string]ActionFunc),
		refreshes:   make(map[string]RefreshFunc),
		formActions: make(map[string]ActionFunc),
	}
	inst.InternAction("a1", func(ctx context.Context, ac woxplugin.ActionContext) {})
	if _, ok := inst.Action("a1"); !ok {
		t.Fatal("expected a1 to be interned")
	}

	inst.ClearCallbacks()

	if _, ok := inst.Action("a1"); ok {
		t.Error("ClearCallbacks should wipe previously interned actions")
	}
}

func TestInstance_InternRefresh(t *testing.T) {
	inst := &Instance{
		actions:     make(map[string]ActionFunc),
		refreshes:   make(map[string]RefreshFunc),
		formActions: make(map[string]ActionFunc),
	}
	called := false
	inst.InternRefresh("r1", func(ctx context.Context, r woxplugin.RefreshableResult) woxplugin.RefreshableResult {
		called = true
		return r
	})
	fn, ok := inst.Refresh("r1")
	if !ok {
		t.Fatal("expected r1 to be registered")
	}
	fn(context.Background(), woxplugin.RefreshableResult{})
	if !called {
		t.Error("the interned refresh function was not the one returned")
	}
}

func TestInstance_RunAction_Unbounded(t *testing.T) {
	inst := &Instance{}
	var wg sync.WaitGroup
	wg.Add(1)
	var ran int32
	inst.RunAction(func() {
		atomic.AddInt32(&ran, 1)
		wg.Done()
	})
	wg.Wait()
	if atomic.LoadInt32(&ran) != 1 {
		t.Error("RunAction should invoke fn exactly once")
	}
}

func TestInstance_RunAction_ConcurrencyLimit(t *testing.T) {
	inst := &Instance{}
	inst.SetActionConcurrencyLimit(1)

	var active int32
	var maxActive int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		inst.RunAction(func() {
			defer wg.Done()
			n := atomic.AddInt32(&active, 1)
			mu.Lock()
			if n > maxActive {
				maxActive = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		})
	}
	wg.Wait()

	if maxActive > 1 {
		t.Errorf("max concurrent actions = %d, want <= 1 with a concurrency limit of 1", maxActive)
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := New(testLogger())
	if _, ok := r.Get("no-such-id"); ok {
		t.Error("Get should report false for an unloaded plugin id")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0 on an empty registry", r.Len())
	}
}

func TestRegistry_UnloadPlugin_NotLoaded(t *testing.T) {
	r := New(testLogger())
	if err := r.UnloadPlugin(context.Background(), "missing"); err == nil {
		t.Error("UnloadPlugin should fail for a plugin id that was never loaded")
	}
}

func TestRegistry_InitPlugin_NotLoaded(t *testing.T) {
	r := New(testLogger())
	if err := r.InitPlugin(context.Background(), "missing", nil, "/tmp"); err == nil {
		t.Error("InitPlugin should fail for a plugin id that was never loaded")
	}
}

func TestRegistry_Snapshot_Empty(t *testing.T) {
	r := New(testLogger())
	snap := r.Snapshot()
	if len(snap) != 0 {
		t.Errorf("Snapshot() = %v, want empty slice", snap)
	}
}
