package wire

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"

	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
)

// Conn wraps one accepted WebSocket connection. Writes are serialized
// through writeMu because WebSocket framing is not reentrant across
// concurrent writers (spec.md §5) — every outbound method call (C8),
// every response frame (C5), and every log frame (C1) funnels through
// Send.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

func newConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Send serializes env and writes it as a single text frame.
func (c *Conn) Send(ctx context.Context, env proto.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// SendSystemLog implements proto.FrameSink.
func (c *Conn) SendSystemLog(level, traceId, message string) error {
	env := proto.NewSystemLog(traceId, level, message)
	// Log frames must never block indefinitely on a slow/dead peer; they
	// are best-effort per spec.md §4.1.
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	return c.Send(ctx, env)
}

// Read blocks for the next text frame and unmarshals it into an Envelope.
func (c *Conn) Read(ctx context.Context) (proto.Envelope, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return proto.Envelope{}, err
	}
	var env proto.Envelope
	if jsonErr := json.Unmarshal(data, &env); jsonErr != nil {
		return proto.Envelope{}, &malformedFrameError{raw: data, cause: jsonErr}
	}
	return env, nil
}

// Close closes the underlying WebSocket.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "host shutting down")
}
