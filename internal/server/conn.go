package server

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// wsConn applies write deadlines to a websocket connection. Writes only
// happen on the goroutine serving the connection; pings go through
// WriteControl, which gorilla/websocket allows concurrently.
type wsConn struct {
	*websocket.Conn
}

func (c wsConn) WriteJSON(v interface{}) error {
	c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

// prepareConn sets the read limit and the pong-driven read deadline.
// It must run before the read loop starts.
func prepareConn(conn *websocket.Conn, maxMessageSize int64) {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// keepAlive pings the peer until done is closed. A missing pong lets the
// read deadline expire, which ends the read loop.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// addConnection registers an open connection so Close can shut it down
func (s *DraftSyncServer) addConnection(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

// removeConnection forgets a connection once its handler returns
func (s *DraftSyncServer) removeConnection(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = conn.Close()
}
