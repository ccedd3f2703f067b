// Package server exposes the HTTP surface: the chat endpoints, health and
// listing routes, and the live websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/drawspace-ai/canvasd/internal/agent"
	"github.com/drawspace-ai/canvasd/internal/config"
	"github.com/drawspace-ai/canvasd/internal/live"
	"github.com/drawspace-ai/canvasd/internal/llm"
	"github.com/drawspace-ai/canvasd/internal/store"
)

// Server binds the agent service, the object store, and the live hub to
// HTTP routes.
type Server struct {
	cfg     config.ServerConfig
	svc     *agent.Service
	store   store.Store
	hub     *live.Hub
	httpSrv *http.Server
	started time.Time
}

func New(cfg config.ServerConfig, svc *agent.Service, st store.Store, hub *live.Hub) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		store:   st,
		hub:     hub,
		started: time.Now(),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat-stream", s.handleChatStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /canvas/{canvasID}/objects", s.handleListObjects)
	mux.HandleFunc("GET /live", s.hub.HandleWS)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: s.withCORS(withTiming(mux)),
	}
	return s
}

// withTiming logs every request with its duration.
func withTiming(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[server] %s %s %s", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on %s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.AllowedOrigins))
	for _, o := range s.cfg.AllowedOrigins {
		allowed[o] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorEnvelope is the JSON body of every non-2xx response.
type errorEnvelope struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: msg, Detail: detail})
}

// statusFor maps taxonomy errors onto HTTP statuses: client mistakes are
// 400, everything upstream or internal is 500.
func statusFor(err error) int {
	if errors.Is(err, llm.ErrUnknownModel) || errors.Is(err, llm.ErrBadRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeChatRequest(r *http.Request) (agent.ChatRequest, error) {
	var req agent.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	if req.Message == "" {
		return req, fmt.Errorf("message is required")
	}
	if req.CanvasID == "" {
		req.CanvasID = agent.DefaultCanvasID
	}
	return req, nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	result, err := s.svc.ProcessMessage(r.Context(), req)
	if err != nil {
		log.Printf("[server] chat failed: %v", err)
		writeError(w, statusFor(err), "chat failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sendEvent := func(ev agent.Event) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := s.svc.StreamMessage(r.Context(), req, sendEvent); err != nil {
		log.Printf("[server] chat-stream failed: %v", err)
		// The stream is already open; deliver the failure in-band.
		_ = sendEvent(agent.Event{Type: agent.EventError, Error: err.Error()})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeStatus := "ok"
	if _, err := s.store.Count(r.Context(), "health-probe"); err != nil {
		storeStatus = "error"
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"models":    llm.SupportedModels(),
		"providers": s.svc.Providers(),
		"store":     storeStatus,
		"version":   Version,
	})
}

func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	canvasID := r.PathValue("canvasID")

	objs, err := s.store.List(r.Context(), canvasID)
	if err != nil {
		log.Printf("[server] list canvas %s failed: %v", canvasID, err)
		writeError(w, http.StatusInternalServerError, "list failed", err.Error())
		return
	}

	type objectDoc struct {
		ID     string         `json:"id"`
		Fields map[string]any `json:"fields"`
	}
	out := make([]objectDoc, 0, len(objs))
	for _, o := range objs {
		out = append(out, objectDoc{ID: o.ID, Fields: o.Fields})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"canvasId": canvasID,
		"count":    len(out),
		"objects":  out,
	})
}

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"
