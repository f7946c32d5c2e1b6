// Package server exposes mining sessions over WebSocket. Each connection is
// one session: the client lists tables, mines a table into a dendrogram,
// saves it under a name and loads saved dendrograms back.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TrevorS/hclust"
	"github.com/TrevorS/hclust/errors"
	"github.com/TrevorS/hclust/internal/config"
	"github.com/TrevorS/hclust/internal/store"
	"github.com/TrevorS/hclust/logger"
)

// WebSocket timeouts, see https://github.com/gorilla/websocket/blob/master/examples/chat/client.go
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024

	shutdownTimeout = 5 * time.Second
)

// Tables is the source of mineable data.
type Tables interface {
	Tables(ctx context.Context) ([]string, error)
	Load(ctx context.Context, table string, metric hclust.DistanceMetric) (*hclust.Dataset, error)
}

// Server accepts session connections.
type Server struct {
	cfg      *config.Config
	tables   Tables
	store    store.Store
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
	sessions atomic.Int64

	// readWait bounds the silence between pongs or requests.
	readWait time.Duration
}

// New returns a server reading from tables and saving to st. A nil logger
// uses the global logger.
func New(cfg *config.Config, tables Tables, st store.Store, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = logger.Logger
	}
	s := &Server{
		cfg:      cfg,
		tables:   tables,
		store:    st,
		logger:   log.Named("server"),
		readWait: pongWait,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin accepts requests without an Origin header and origins that
// start with one of server.allowed_origins, so any port matches.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.Server.AllowedOrigins {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Sessions returns the number of open sessions.
func (s *Server) Sessions() int { return int(s.sessions.Load()) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.Sessions(),
	})
}

// HandleWebSocket upgrades the request and serves one session until the
// client closes it.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnw("WebSocket upgrade failed",
			logger.FieldRemote, r.RemoteAddr,
			logger.FieldError, err,
		)
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Add(-1)

	newSession(s, conn, r.RemoteAddr).run(r.Context())
}

// Run serves on server.address until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Sessions end when ctx is canceled.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Listening", logger.FieldAddress, srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "listen on %s", srv.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Infow("Shutting down", "sessions", s.Sessions())
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data) // Error ignored: headers already sent
}
