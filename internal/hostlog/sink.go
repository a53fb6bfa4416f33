// Package hostlog implements the plugin host's log sink (C1 in the design):
// a rotating file writer, addressed through the standard log/slog API, that
// additionally fans each record out as a WOX_JSONRPC_SYSTEM_LOG frame over
// the live WebSocket connection when one is registered.
package hostlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
)

const logFileName = "wox-plugin-host.log"

// connBox wraps a FrameSink so a nil connection can still be stored in an
// atomic.Value — atomic.Value.Store panics on a bare nil interface, and
// RegisterConn(nil) is the normal way a connection close clears this field.
type connBox struct {
	fs proto.FrameSink
}

// Sink is a slog.Handler that writes fixed-format lines to a rotating file
// and optionally mirrors them to a live connection.
type Sink struct {
	mu      sync.Mutex
	out     *lumberjack.Logger
	conn    atomic.Value // holds connBox
	minimum slog.Level
}

var _ slog.Handler = (*Sink)(nil)

// New creates a Sink rotating at 100MiB with 3-day retention under
// logDir/wox-plugin-host.log, per spec.md §4.1/§6.
func New(logDir string, minimum slog.Level) (*Sink, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("hostlog: creating log directory %q: %w", logDir, err)
	}
	s := &Sink{
		out: &lumberjack.Logger{
			Filename:  filepath.Join(logDir, logFileName),
			MaxSize:   100, // MiB
			MaxAge:    3,   // days
			Compress:  false,
			LocalTime: true,
		},
		minimum: minimum,
	}
	s.conn.Store(connBox{})
	return s, nil
}

// Logger returns a *slog.Logger backed by this sink.
func (s *Sink) Logger() *slog.Logger {
	return slog.New(s)
}

// RegisterConn installs the live connection that log lines are additionally
// mirrored to. Pass nil to clear it (spec.md §4.3: "on connection close,
// clear the registered WebSocket in C1").
func (s *Sink) RegisterConn(conn proto.FrameSink) {
	s.conn.Store(connBox{fs: conn})
}

// NewTraceId mints a time-sortable id for log lines emitted outside any
// RPC request (e.g. supervisor startup), so the rotated file still sorts
// naturally when tailed.
func NewTraceId() string {
	return ulid.Make().String()
}

func (s *Sink) Enabled(_ context.Context, level slog.Level) bool {
	return level >= s.minimum
}

func (s *Sink) Handle(ctx context.Context, r slog.Record) error {
	traceId := s.traceIdFromRecord(r, nil)
	if traceId == "" {
		traceId = NewTraceId()
	}

	line := formatLine(r.Time, r.Level, traceId, r.Message)

	s.mu.Lock()
	_, writeErr := s.out.Write([]byte(line + "\n"))
	s.mu.Unlock()

	s.emitFrame(traceId, r.Level, r.Message)

	return writeErr
}

func (s *Sink) traceIdFromRecord(r slog.Record, preset []slog.Attr) string {
	traceId := ""
	for _, a := range preset {
		if a.Key == "trace_id" {
			traceId = a.Value.String()
		}
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "trace_id" {
			traceId = a.Value.String()
			return false
		}
		return true
	})
	return traceId
}

// WithAttrs returns a handler that remembers attrs set via slog.With(...)
// so a trace_id attached that way still reaches the fixed line format.
func (s *Sink) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	return &boundHandler{sink: s, attrs: attrs}
}

func (s *Sink) WithGroup(name string) slog.Handler {
	return s
}

// boundHandler carries attrs accumulated via slog.With(...) so that a
// trace_id set that way is still picked up by the fixed line format.
type boundHandler struct {
	sink  *Sink
	attrs []slog.Attr
}

func (b *boundHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return b.sink.Enabled(ctx, level)
}

func (b *boundHandler) Handle(ctx context.Context, r slog.Record) error {
	traceId := b.sink.traceIdFromRecord(r, b.attrs)
	if traceId == "" {
		traceId = NewTraceId()
	}

	line := formatLine(r.Time, r.Level, traceId, r.Message)

	b.sink.mu.Lock()
	_, writeErr := b.sink.out.Write([]byte(line + "\n"))
	b.sink.mu.Unlock()

	b.sink.emitFrame(traceId, r.Level, r.Message)

	return writeErr
}

func (b *boundHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(b.attrs)+len(attrs))
	merged = append(merged, b.attrs...)
	merged = append(merged, attrs...)
	return &boundHandler{sink: b.sink, attrs: merged}
}

func (b *boundHandler) WithGroup(name string) slog.Handler {
	return b
}

// emitFrame mirrors the record to the live connection, if any. A failed
// send is logged to the file backend only and never propagated or
// retried, per spec.md §4.1.
func (s *Sink) emitFrame(traceId string, level slog.Level, message string) {
	box, _ := s.conn.Load().(connBox)
	if box.fs == nil {
		return
	}
	if err := box.fs.SendSystemLog(levelName(level), traceId, message); err != nil {
		line := formatLine(time.Now(), slog.LevelError, traceId,
			fmt.Sprintf("failed to emit log frame: %s", err))
		s.mu.Lock()
		s.out.Write([]byte(line + "\n"))
		s.mu.Unlock()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

func formatLine(t time.Time, level slog.Level, traceId, message string) string {
	return fmt.Sprintf("%s [%s] %s %s",
		t.Format("2006-01-02 15:04:05.000"),
		levelName(level),
		traceId,
		message,
	)
}

// Close flushes and closes the underlying rotating file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
