// Package server exposes the engine over HTTP and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/anubad-lang/anubad"
	"github.com/anubad-lang/anubad/internal/history"
)

// KindBadRequest is reported for requests that never reached the engine
const KindBadRequest = "bad_request"

// Options configures a Server
type Options struct {
	// AllowedOrigins lists the Origin values accepted on /ws. Empty allows
	// only same-host requests; "*" allows any origin.
	AllowedOrigins []string

	// MaxMessageSize bounds one request body or WebSocket message
	MaxMessageSize int64

	// History, when set, records every run
	History *history.Store
}

// RunRequest is one run request from a client
type RunRequest struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// RunResponse answers a RunRequest
type RunResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Display   string `json:"display"`
	Line      int    `json:"line,omitempty"`
	HistoryID string `json:"history_id,omitempty"`
}

// Server serves /healthz, POST /run and /ws
type Server struct {
	engine   *anubad.Engine
	logger   *anubad.Logger
	opts     Options
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// New creates a server for engine
func New(engine *anubad.Engine, opts Options) *Server {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 1 << 20
	}
	s := &Server{
		engine: engine,
		logger: engine.Logger(),
		opts:   opts,
		mux:    http.NewServeMux(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/run", s.handleRun)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	s.logger.Notice(anubad.CatServer, "Listening on %s", addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(s.opts.AllowedOrigins) == 0 {
		host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
		return strings.EqualFold(host, r.Host)
	}
	for _, allowed := range s.opts.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	s.logger.Warn(anubad.CatServer, "Rejected WebSocket origin %s", origin)
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxMessageSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, badRequest(req.ID, err))
		return
	}
	writeJSON(w, http.StatusOK, s.run(r.Context(), req))
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(anubad.CatServer, "WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.opts.MaxMessageSize)
	s.logger.Debug(anubad.CatServer, "WebSocket client connected from %s", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		var req RunRequest
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn(anubad.CatServer, "WebSocket closed unexpectedly: %v", err)
			}
			return
		}

		resp := RunResponse{}
		if err := json.Unmarshal(data, &req); err != nil {
			resp = badRequest("", err)
		} else {
			resp = s.run(ctx, req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn(anubad.CatServer, "WebSocket write failed: %v", err)
			return
		}
	}
}

// run executes one request and records it when history is enabled
func (s *Server) run(ctx context.Context, req RunRequest) RunResponse {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	start := time.Now()
	var result anubad.Result
	select {
	case result = <-s.engine.Start(ctx, req.Source):
	case <-ctx.Done():
		result = &anubad.TimeoutError{Elapsed: time.Since(start), Cause: ctx.Err()}
	}
	elapsed := time.Since(start)

	resp := RunResponse{
		ID:      req.ID,
		Kind:    anubad.ResultKind(result),
		Display: anubad.Format(result),
		Line:    anubad.ResultLine(result),
	}
	s.logger.Debug(anubad.CatServer, "Request %s finished as %s in %s", req.ID, resp.Kind, elapsed)

	if s.opts.History != nil {
		rec, err := s.opts.History.Record(context.WithoutCancel(ctx), req.Source, result, elapsed)
		if err != nil {
			s.logger.Error(anubad.CatHistory, "%v", err)
		} else {
			resp.HistoryID = rec.ID
		}
	}
	return resp
}

func badRequest(id string, err error) RunResponse {
	return RunResponse{ID: id, Kind: KindBadRequest, Display: "invalid request: " + err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
