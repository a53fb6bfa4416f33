package rpcmethods

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter() *Router {
	return New(registry.New(testLogger()), correlation.New(), testLogger(), Hardening{})
}

func TestHandle_UnknownMethod(t *testing.T) {
	r := newTestRouter()
	_, err := r.Handle(context.Background(), nil, "notAMethod", json.RawMessage(`{}`), "p1", "P One")
	if err == nil {
		t.Fatal("expected an error for an unrecognized method name")
	}
}

func TestHandle_LoadPlugin_BadPath(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{
		"PluginDirectory": "/no/such/directory",
		"Entry":           "main.so",
	})
	_, err := r.Handle(context.Background(), nil, "loadPlugin", params, "p1", "P One")
	if err == nil {
		t.Fatal("expected loadPlugin to fail opening a nonexistent .so")
	}
}

func TestHandle_LoadPlugin_MalformedParams(t *testing.T) {
	r := newTestRouter()
	_, err := r.Handle(context.Background(), nil, "loadPlugin", json.RawMessage(`not json`), "p1", "P One")
	if err == nil {
		t.Fatal("expected a decode error for malformed params")
	}
}

func TestHandle_Init_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{"PluginDirectory": "/tmp"})
	_, err := r.Handle(context.Background(), nil, "init", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected init to fail for a plugin id that was never loaded")
	}
}

func TestHandle_Query_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{"RawQuery": "foo"})
	_, err := r.Handle(context.Background(), nil, "query", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected query to fail for a plugin id that was never loaded")
	}
}

// The plugin lookup runs before the stringified Selection is decoded, so
// with no plugin loaded the request fails on the lookup even though its
// Selection is malformed.
func TestHandle_Query_LookupPrecedesSelectionDecode(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{
		"RawQuery":  "foo",
		"Selection": "not json",
	})
	_, err := r.Handle(context.Background(), nil, "query", params, "missing", "Missing")
	if err == nil || !strings.Contains(err.Error(), "not loaded") {
		t.Fatalf("expected query to fail on the plugin lookup before decoding Selection, got %v", err)
	}
}

func TestHandle_Action_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{"ActionId": "a1"})
	_, err := r.Handle(context.Background(), nil, "action", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected action to fail for a plugin id that was never loaded")
	}
}

func TestHandle_Refresh_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]interface{}{"ResultId": "r1"})
	_, err := r.Handle(context.Background(), nil, "refresh", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected refresh to fail for a plugin id that was never loaded")
	}
}

func TestHandle_UnloadPlugin_NotLoaded(t *testing.T) {
	r := newTestRouter()
	_, err := r.Handle(context.Background(), nil, "unloadPlugin", json.RawMessage(`{}`), "missing", "Missing")
	if err == nil {
		t.Fatal("expected unloadPlugin to fail for a plugin id that was never loaded")
	}
}

func TestHandle_OnMRURestore_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{"callbackId": "c1"})
	_, err := r.Handle(context.Background(), nil, "onMRURestore", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected onMRURestore to fail for a plugin id that was never loaded")
	}
}

func TestHandle_OnLLMStream_PluginNotLoaded(t *testing.T) {
	r := newTestRouter()
	params, _ := json.Marshal(map[string]string{"CallbackId": "c1"})
	_, err := r.Handle(context.Background(), nil, "onLLMStream", params, "missing", "Missing")
	if err == nil {
		t.Fatal("expected onLLMStream to fail for a plugin id that was never loaded")
	}
}

func TestHandle_OnMRURestore_MalformedParams(t *testing.T) {
	r := newTestRouter()
	_, err := r.Handle(context.Background(), nil, "onMRURestore", json.RawMessage(`not json`), "p1", "P One")
	if err == nil {
		t.Fatal("expected a decode error for malformed onMRURestore params")
	}
}
