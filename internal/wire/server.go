// Package wire implements the plugin host's wire layer (C3): a WebSocket
// server accepting one connection at a time on 0.0.0.0:<port>, spawning an
// independent unit of work per inbound frame so the read loop never blocks
// on handler work (spec.md §4.3, §5).
package wire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"

	"github.com/Wox-launcher/wox-plugin-host/internal/proto"
)

const (
	// readLimit matches the teacher SDK's client-side SetReadLimit, large
	// enough for a query result batch with embedded previews.
	readLimit   = 1 << 20
	sendTimeout = 5 * time.Second
)

// malformedFrameError carries the raw bytes of a frame that failed to
// parse as JSON, for the transport-error log line spec.md §7 requires.
type malformedFrameError struct {
	raw   []byte
	cause error
}

func (e *malformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame: %v", e.cause)
}

func (e *malformedFrameError) Unwrap() error { return e.cause }

// Dispatcher handles one inbound frame. Implemented by internal/dispatch.
type Dispatcher interface {
	Dispatch(ctx context.Context, conn *Conn, env proto.Envelope)
}

// ConnRegistry is the subset of hostlog.Sink the wire layer needs —
// narrowed here to avoid wire depending on hostlog's concrete type.
type ConnRegistry interface {
	RegisterConn(conn proto.FrameSink)
}

// Server is the WebSocket server bound to 0.0.0.0:<port>.
type Server struct {
	addr       string
	logger     *slog.Logger
	dispatcher Dispatcher
	logSink    ConnRegistry
	active     atomic.Bool
}

// New builds a Server listening on 0.0.0.0:port.
func New(port int, logger *slog.Logger, dispatcher Dispatcher, logSink ConnRegistry) *Server {
	return &Server{
		addr:       fmt.Sprintf("0.0.0.0:%d", port),
		logger:     logger,
		dispatcher: dispatcher,
		logSink:    logSink,
	}
}

// ListenAndServe binds the listener (retrying with backoff in case the
// port is briefly unavailable, SPEC_FULL.md §11) and serves until ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var ln net.Listener
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		l, listenErr := net.Listen("tcp", s.addr)
		if listenErr != nil {
			return listenErr
		}
		ln = l
		return nil
	}, bo)
	if err != nil {
		return fmt.Errorf("wire: binding %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleAccept)
	httpServer := &http.Server{Handler: mux}

	s.logger.Info("wire server listening", slog.String("addr", s.addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleAccept upgrades one HTTP request to a WebSocket connection and
// serves it to completion. Per spec.md §4.3 the host accepts one
// connection at a time; a second concurrent connection attempt is
// accepted and immediately closed rather than rejected at the TCP layer,
// since nothing in the spec requires refusing it outright.
func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
	if err != nil {
		s.logger.Error("websocket accept failed", slog.String("error", err.Error()))
		return
	}
	if !s.active.CompareAndSwap(false, true) {
		s.logger.Warn("second connection refused while one is active")
		ws.Close(websocket.StatusPolicyViolation, "another connection is active")
		return
	}
	defer s.active.Store(false)
	ws.SetReadLimit(readLimit)

	conn := newConn(ws)
	s.logSink.RegisterConn(conn)
	defer s.logSink.RegisterConn(nil)

	ctx := r.Context()
	for {
		env, err := conn.Read(ctx)
		if err != nil {
			var closeErr websocket.CloseError
			if errors.As(err, &closeErr) || errors.Is(err, context.Canceled) {
				s.logger.Info("connection closed")
			} else {
				var malformed *malformedFrameError
				if errors.As(err, &malformed) {
					s.logger.Error("malformed frame received", slog.String("error", err.Error()))
					continue
				}
				s.logger.Error("connection error", slog.String("error", err.Error()))
			}
			return
		}
		go s.dispatcher.Dispatch(ctx, conn, env)
	}
}
