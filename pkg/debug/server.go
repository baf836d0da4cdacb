package debug

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/go-drift/viewkit/pkg/core"
	"github.com/go-drift/viewkit/pkg/renderer"
)

// maxTreeDepth limits recursion depth to prevent stack overflow from malformed trees.
const maxTreeDepth = 500

// ViewTreeNode is a node in the serialized view tree.
type ViewTreeNode struct {
	ID         string         `json:"id"`
	Tag        string         `json:"tag"`
	State      string         `json:"state"`
	Owner      string         `json:"owner,omitempty"`
	HasElement bool           `json:"hasElement"`
	Terminal   bool           `json:"terminal,omitempty"`
	Depth      int            `json:"depth"`
	Children   []ViewTreeNode `json:"children,omitempty"`
}

// Server exposes a registry and its lifecycle trace over HTTP.
type Server struct {
	registry *core.Registry
	trace    *Trace
	hub      *Hub
	lock     sync.Locker
	logger   *slog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithLock sets the lock held while views are read. Use the same lock around
// renderer calls made from other goroutines.
func WithLock(l sync.Locker) Option {
	return func(s *Server) { s.lock = l }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTrace sets the lifecycle trace buffer.
func WithTrace(t *Trace) Option {
	return func(s *Server) {
		if t != nil {
			s.trace = t
		}
	}
}

// NewServer creates a server for reg. It does not listen until Start.
func NewServer(reg *core.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		lock:     &sync.Mutex{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.trace == nil {
		s.trace = NewTrace(0)
	}
	s.logger = s.logger.With(slog.String("component", "debug"))
	s.hub = NewHub(s.logger)
	return s
}

// Trace returns the lifecycle trace.
func (s *Server) Trace() *Trace { return s.trace }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Observe records n and streams it to websocket clients. Pass it to
// renderer.WithObserver.
func (s *Server) Observe(n renderer.Notification) {
	ev := s.trace.Record(n)
	s.hub.Broadcast(ev)
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/view-tree", s.handleViewTree)
	mux.HandleFunc("/lifecycle", s.handleLifecycle)
	mux.HandleFunc("/events", s.hub.HandleWebSocket)
	return mux
}

// Start listens on port and serves in the background. It returns the bound
// port, which differs from port when port is 0.
func (s *Server) Start(port int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return s.listener.Addr().(*net.TCPAddr).Port, nil
	}

	// Bind first to fail fast on port conflicts.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("debug server listen: %w", err)
	}
	server := &http.Server{Handler: s.Handler()}
	s.server = server
	s.listener = listener

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.mu.Lock()
			s.server = nil
			s.listener = nil
			s.mu.Unlock()
			s.logger.Error("debug server stopped", slog.Any("error", err))
		}
	}()

	actual := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info("debug server listening", slog.Int("port", actual))
	return actual, nil
}

// Stop disconnects websocket clients and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	s.hub.Shutdown()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleViewTree(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Recover from panics during serialization
	defer func() {
		if rec := recover(); rec != nil {
			http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
		}
	}()

	s.lock.Lock()
	tree := s.serializeTree()
	s.lock.Unlock()

	writeJSON(w, struct {
		Views []ViewTreeNode `json:"views"`
	}{Views: tree})
}

func (s *Server) handleLifecycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := s.trace.Snapshot()
	if view := r.URL.Query().Get("view"); view != "" {
		resp.Events = slices.DeleteFunc(resp.Events, func(ev LifecycleEvent) bool {
			return ev.View != view
		})
	}
	if value := r.URL.Query().Get("limit"); value != "" {
		if limit, err := strconv.Atoi(value); err == nil && limit > 0 && len(resp.Events) > limit {
			resp.Events = resp.Events[len(resp.Events)-limit:]
		}
	}
	writeJSON(w, resp)
}

// serializeTree returns the registered views that are nobody's child, each
// with its subtree.
func (s *Server) serializeTree() []ViewTreeNode {
	ids := s.registry.IDs()
	children := make(map[core.ID]bool)
	for _, id := range ids {
		if v := s.registry.Lookup(id); v != nil {
			for _, c := range v.Children() {
				children[c.ID()] = true
			}
		}
	}
	roots := []ViewTreeNode{}
	for _, id := range ids {
		if children[id] {
			continue
		}
		if v := s.registry.Lookup(id); v != nil {
			roots = append(roots, serializeView(v, 0))
		}
	}
	return roots
}

func serializeView(v *core.View, depth int) ViewTreeNode {
	node := ViewTreeNode{
		ID:         string(v.ID()),
		Tag:        v.Behavior().TagName(),
		State:      v.State().String(),
		Owner:      string(v.OwnerID()),
		HasElement: v.Element() != nil,
		Terminal:   v.IsTerminal(),
		Depth:      depth,
	}
	if depth >= maxTreeDepth {
		return node
	}
	for _, c := range v.Children() {
		node.Children = append(node.Children, serializeView(c, depth+1))
	}
	return node
}

func writeJSON(w http.ResponseWriter, v any) {
	// Encode to buffer first so we can catch errors
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, fmt.Sprintf("json encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}
