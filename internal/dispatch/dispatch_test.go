package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/Wox-launcher/wox-plugin-host/internal/correlation"
	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
	"github.com/Wox-launcher/wox-plugin-host/internal/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRouter lets each test control the handler's outcome directly.
type fakeRouter struct {
	result interface{}
	err    error
	got    chan struct {
		method   string
		pluginId string
	}
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{got: make(chan struct {
		method   string
		pluginId string
	}, 4)}
}

func (f *fakeRouter) Handle(ctx context.Context, conn *wire.Conn, method string, params json.RawMessage, pluginId, pluginName string) (interface{}, error) {
	f.got <- struct {
		method   string
		pluginId string
	}{method, pluginId}
	return f.result, f.err
}

type noopConnRegistry struct{}

func (noopConnRegistry) RegisterConn(conn proto.FrameSink) {}

func startTestServer(t *testing.T, port int, router Router) (*correlation.Map, func()) {
	t.Helper()
	corr := correlation.New()
	engine := New(router, corr, testLogger())
	srv := wire.New(port, testLogger(), engine, noopConnRegistry{})

	ctx, cancel := context.WithCancel(context.Background())
	go srv.ListenAndServe(ctx)
	time.Sleep(50 * time.Millisecond) // let the listener bind

	return corr, cancel
}

func dialTestServer(t *testing.T, port int) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, fmt.Sprintf("ws://127.0.0.1:%d/", port), nil)
	if err != nil {
		t.Fatalf("dialing test server: %v", err)
	}
	return c
}

func TestEngine_Dispatch_RequestSuccess(t *testing.T) {
	const port = 18765
	router := newFakeRouter()
	router.result = map[string]string{"ok": "yes"}

	_, cancel := startTestServer(t, port, router)
	defer cancel()

	conn := dialTestServer(t, port)
	defer conn.Close(websocket.StatusNormalClosure, "")

	env, _ := proto.NewRequest("req-1", "query", "trace-1", "plugin-1", "Plugin One", map[string]string{})
	raw, _ := json.Marshal(env)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	if err := conn.Write(ctx, websocket.MessageText, raw); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	var resp proto.Envelope
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("unmarshaling response: %v", err)
	}
	if resp.Type != proto.TypeResponse {
		t.Errorf("Type = %q, want %q", resp.Type, proto.TypeResponse)
	}
	if resp.Id != "req-1" {
		t.Errorf("Id = %q, want %q", resp.Id, "req-1")
	}
	if resp.Error != "" {
		t.Errorf("Error = %q, want empty", resp.Error)
	}

	select {
	case got := <-router.got:
		if got.method != "query" || got.pluginId != "plugin-1" {
			t.Errorf("router saw method=%q pluginId=%q, want query/plugin-1", got.method, got.pluginId)
		}
	default:
		t.Error("router.Handle was never called")
	}
}

func TestEngine_Dispatch_RequestError(t *testing.T) {
	const port = 18766
	router := newFakeRouter()
	router.err = errors.New("handler exploded")

	_, cancel := startTestServer(t, port, router)
	defer cancel()

	conn := dialTestServer(t, port)
	defer conn.Close(websocket.StatusNormalClosure, "")

	env, _ := proto.NewRequest("req-2", "action", "trace-2", "plugin-1", "Plugin One", map[string]string{})
	raw, _ := json.Marshal(env)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	conn.Write(ctx, websocket.MessageText, raw)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	var resp proto.Envelope
	json.Unmarshal(data, &resp)
	if resp.Error != "handler exploded" {
		t.Errorf("Error = %q, want %q", resp.Error, "handler exploded")
	}
}

func TestEngine_Dispatch_TraceIdGeneratedWhenAbsent(t *testing.T) {
	const port = 18767
	router := newFakeRouter()

	_, cancel := startTestServer(t, port, router)
	defer cancel()

	conn := dialTestServer(t, port)
	defer conn.Close(websocket.StatusNormalClosure, "")

	env, _ := proto.NewRequest("req-3", "query", "", "plugin-1", "Plugin One", map[string]string{})
	raw, _ := json.Marshal(env)

	ctx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	conn.Write(ctx, websocket.MessageText, raw)

	_, data, _ := conn.Read(ctx)
	var resp proto.Envelope
	json.Unmarshal(data, &resp)
	if resp.TraceId == "" {
		t.Error("expected a generated TraceId when the request carried none")
	}
}

func TestEngine_DispatchResponse_CompletesWaiter(t *testing.T) {
	router := newFakeRouter()
	corr := correlation.New()
	engine := New(router, corr, testLogger())

	id := correlation.NewRequestId()
	ch := corr.Register(id)

	resp := proto.NewErrorResponse(id, "ChangeQuery", "trace-x", "")
	resp.Result = json.RawMessage(`{"ack":true}`)
	resp.Error = ""

	engine.Dispatch(context.Background(), nil, resp)

	select {
	case res := <-ch:
		if string(res.Value) != `{"ack":true}` {
			t.Errorf("completed value = %s, want %s", res.Value, `{"ack":true}`)
		}
	default:
		t.Fatal("dispatching a response frame should complete the matching waiter synchronously")
	}
}

func TestEngine_DispatchResponse_UnknownId(t *testing.T) {
	router := newFakeRouter()
	corr := correlation.New()
	engine := New(router, corr, testLogger())

	resp := proto.NewErrorResponse("no-such-id", "query", "trace-x", "")
	// Should not panic even though nothing is registered for this id.
	engine.Dispatch(context.Background(), nil, resp)
}
