package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// handleSync upgrades the request and serves one sync connection until it closes
func (s *DraftSyncServer) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		s.log.Warn(logModule, "Failed to upgrade sync connection", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	s.addConnection(conn)
	defer s.removeConnection(conn)

	prepareConn(conn, s.config.Sync.MaxMessageSize)
	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	err = s.endpoint.Serve(r.Context(), wsConn{conn})

	var closeErr *websocket.CloseError
	switch {
	case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		s.log.Warn(logModule, "Sync connection ended unexpectedly", map[string]interface{}{
			"remote": r.RemoteAddr,
			"error":  err.Error(),
		})
	case err != nil && !errors.As(err, &closeErr):
		s.log.Debug(logModule, "Sync connection dropped", map[string]interface{}{
			"remote": r.RemoteAddr,
			"error":  err.Error(),
		})
	}
}

// handleDraft returns the persisted text of a draft with its version
func (s *DraftSyncServer) handleDraft(w http.ResponseWriter, r *http.Request) {
	if s.handleCORS(w, r) {
		return
	}

	id := mux.Vars(r)["id"]
	text, err := s.store.Read(r.Context(), id)
	if errors.Is(err, draft.ErrInvalidID) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error(logModule, "Failed to read draft", map[string]interface{}{"id": id, "error": err})
		http.Error(w, fmt.Sprintf("Error reading draft: %v", err), http.StatusInternalServerError)
		return
	}

	data := []byte(text)
	w.Header().Set("Version", utils.CalculateHash(data))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// handleStats reports the endpoint counters as JSON
func (s *DraftSyncServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.handleCORS(w, r) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.endpoint.Stats().Snapshot()); err != nil {
		s.log.Warn(logModule, "Failed to write stats", map[string]interface{}{"error": err.Error()})
	}
}

// handleFallback forwards everything else to the upstream web application, if any
func (s *DraftSyncServer) handleFallback(w http.ResponseWriter, r *http.Request) {
	if s.reverseProxy != nil {
		s.proxyRequest(w, r)
		return
	}
	http.Error(w, "Resource not found", http.StatusNotFound)
}

// handleCORS adds CORS headers when enabled and answers preflight requests.
// It reports whether the request has been fully handled.
func (s *DraftSyncServer) handleCORS(w http.ResponseWriter, r *http.Request) bool {
	if !s.config.CORS.Enabled {
		return false
	}
	s.addCORSHeaders(w, r)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// addCORSHeaders adds CORS headers to the response
func (s *DraftSyncServer) addCORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.config.CORS.AllowOrigins)
	w.Header().Set("Access-Control-Allow-Methods", s.config.CORS.AllowMethods)
	w.Header().Set("Access-Control-Allow-Headers", s.config.CORS.AllowHeaders)
	w.Header().Set("Access-Control-Expose-Headers", "Version")

	if s.config.CORS.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}

	w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", s.config.CORS.MaxAge))
}
