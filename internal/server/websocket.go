package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/algorisys-oss/python-opencv-katas/internal/executor"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // same-host learning tool, no cross-origin auth
	},
}

// handleDesktopWS streams desktop session lifecycle events to the client so
// the frontend can flip its "running on your desktop" banner without polling.
func (s *Server) handleDesktopWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	events, cancel := s.desktop.Registry().Subscribe()
	defer cancel()

	// Tell a late subscriber about the session that is already running.
	if id, ok := s.desktop.Registry().ActiveID(); ok {
		wsWriteJSON(conn, executor.Event{Type: executor.EventStarted, SessionID: id})
	}

	// Detect client disconnect; we never expect inbound payloads.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			wsWriteJSON(conn, ev)
		case <-closed:
			return
		}
	}
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
