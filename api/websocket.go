package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rv32sim/rv32sim/trace"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and streams newline-
// delimited JSON trace.Event records to the client as they occur
// (spec.md §4.8 "/ws streams newline-delimited JSON trace records").
// Grounded on the teacher's api/websocket.go read/write pump pair,
// trimmed of the subscription-filtering protocol since this server has
// only one event stream to offer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade failed: %v", err)
		return
	}

	ch := s.broadcaster.Subscribe()
	go s.writePump(conn, ch)
	go s.readPump(conn, ch)
}

// readPump only exists to detect client disconnects and keep the
// connection's pong deadline alive; this server never accepts
// messages from the client.
func (s *Server) readPump(conn *websocket.Conn, ch chan trace.Event) {
	defer func() {
		s.broadcaster.Unsubscribe(ch)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, ch chan trace.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case event, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			payload = append(payload, '\n')
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
