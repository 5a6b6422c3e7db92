package server

import (
	"net/http"
	"net/http/httputil"
	"strings"
	"sync"

	"gihan9a/draftsync/internal/config"
	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/endpoint"
	"gihan9a/draftsync/internal/logger"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const logModule = "Server"

// DraftSyncServer serves the sync endpoint over WebSocket plus a few HTTP helpers
type DraftSyncServer struct {
	config       *config.Config
	endpoint     *endpoint.Endpoint
	store        draft.Store
	log          logger.Logger
	upgrader     websocket.Upgrader
	reverseProxy *httputil.ReverseProxy
	watcher      *draft.Watcher

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewDraftSyncServer creates a new DraftSyncServer
func NewDraftSyncServer(cfg *config.Config, store draft.Store, ep *endpoint.Endpoint, log logger.Logger) *DraftSyncServer {
	server := &DraftSyncServer{
		config:   cfg,
		endpoint: ep,
		store:    store,
		log:      log,
		conns:    make(map[*websocket.Conn]struct{}),
	}
	server.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     server.checkOrigin,
	}

	// Configure reverse proxy if URL is provided
	if cfg.ProxyURL != nil {
		server.setupProxy()
	}

	return server
}

// SetupWatcher starts watching the draft directory when the store is file backed
func (s *DraftSyncServer) SetupWatcher() error {
	fileStore, ok := s.store.(*draft.FileStore)
	if !ok || !s.config.Store.Watch {
		return nil
	}

	watcher, err := draft.NewWatcher(fileStore, s.log, s.endpoint.NoteDraftChange)
	if err != nil {
		return err
	}
	s.watcher = watcher
	s.log.Info(logModule, "Watching draft directory", map[string]interface{}{"dir": fileStore.Dir()})
	return nil
}

// Close stops the watcher and closes every open sync connection
func (s *DraftSyncServer) Close() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.log.Warn(logModule, "Error closing watcher", map[string]interface{}{"error": err.Error()})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
	}
}

// SetupRoutes configures the HTTP routes for the server
func (s *DraftSyncServer) SetupRoutes() http.Handler {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.Methods(http.MethodGet).Path(s.config.Sync.Path).HandlerFunc(s.handleSync)
	router.Methods(http.MethodGet, http.MethodOptions).Path("/drafts/{id}").HandlerFunc(s.handleDraft)
	router.Methods(http.MethodGet, http.MethodOptions).Path("/stats").HandlerFunc(s.handleStats)
	router.PathPrefix("/").HandlerFunc(s.handleFallback)

	return router
}

// logRequests logs every request once it has been handled
func (s *DraftSyncServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.Debug(logModule, "Handled request", map[string]interface{}{
			"method":   r.Method,
			"url":      r.URL.String(),
			"status":   m.Code,
			"duration": m.Duration.String(),
		})
	})
}

// checkOrigin accepts any origin unless CORS is enabled with an explicit origin list
func (s *DraftSyncServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || !s.config.CORS.Enabled || s.config.CORS.AllowOrigins == "*" {
		return true
	}
	for _, allowed := range strings.Split(s.config.CORS.AllowOrigins, ",") {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}
	return false
}
