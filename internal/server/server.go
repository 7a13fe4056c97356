// Package server streams agent frames to websocket clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zeusync/tickai/internal/core/events/bus"
	"github.com/zeusync/tickai/internal/core/npc"
	"github.com/zeusync/tickai/internal/core/observability/log"
	"github.com/zeusync/tickai/internal/scheduler"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	Addr string
	// Buffer is the per-client queue length. Frames for a client with a full
	// queue are dropped.
	Buffer int
}

// FrameMessage is the JSON document sent to clients once per frame.
type FrameMessage struct {
	Frame  uint64         `json:"frame"`
	Delta  float64        `json:"delta"`
	Agents []npc.Snapshot `json:"agents"`
}

// Health is the /healthz response body.
type Health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Frame   uint64 `json:"frame"`
}

type Server struct {
	cfg    Config
	logger log.Log
	sub    bus.Subscription
	hub    *hub

	lastFrame atomic.Uint64
	closed    atomic.Bool
}

// New returns a server broadcasting every bus.TypeFrame event published on events.
func New(cfg Config, logger log.Log, events bus.EventBus) (*Server, error) {
	if cfg.Buffer <= 0 {
		return nil, fmt.Errorf("%w: buffer must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		logger: logger.With(log.String("component", "server")),
		hub:    newHub(),
	}
	if events != nil {
		sub, err := events.Subscribe(bus.TypeFrame, s.onFrame)
		if err != nil {
			return nil, fmt.Errorf("subscribe frames: %w", err)
		}
		s.sub = sub
	}
	return s, nil
}

func (s *Server) onFrame(e bus.Event) error {
	info, ok := e.Data().(scheduler.FrameInfo)
	if !ok {
		return fmt.Errorf("server: unexpected frame payload %T", e.Data())
	}
	return s.Broadcast(FrameMessage{
		Frame:  info.Number,
		Delta:  info.Delta.Seconds(),
		Agents: info.Agents,
	})
}

// Broadcast queues msg for every connected client.
func (s *Server) Broadcast(msg FrameMessage) error {
	if s.closed.Load() {
		return ErrClosed
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	s.lastFrame.Store(msg.Frame)
	s.hub.broadcast(b)
	return nil
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int { return s.hub.len() }

// Dropped returns how many frames were skipped for slow clients.
func (s *Server) Dropped() uint64 { return s.hub.dropped.Load() }

// Handler serves /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	w.Header().Set("Content-Type", "application/json")
	if s.closed.Load() {
		status = "closed"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(Health{Status: status, Clients: s.Clients(), Frame: s.lastFrame.Load()})
}

// ListenAndServe serves Handler on cfg.Addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves Handler on ln until ctx is done, then shuts down and closes
// all client connections.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.closed.Load() {
		_ = ln.Close()
		return ErrClosed
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("server listening", log.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		_ = s.Close()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Close stops broadcasting and disconnects every client. Safe to call twice.
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.sub != nil {
		_ = s.sub.Cancel()
	}
	s.hub.closeAll()
	return nil
}
