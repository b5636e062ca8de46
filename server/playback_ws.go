package server

import (
	"net/http"
	"time"

	"mashrabu/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// SessionStreamHandler upgrades to a WebSocket and pushes playback state
// snapshots to the client as the session changes. The first message is the
// current state so the client can render without waiting for a transition.
func (h *APIHandler) SessionStreamHandler(w http.ResponseWriter, r *http.Request) {
	v, ok := h.view(mux.Vars(r)["id"])
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	session := v.session
	updates := session.Subscribe()
	defer session.Unsubscribe(updates)

	// Drain the client side so close frames and pings are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(session.Snapshot()); err != nil {
		return
	}

	for state := range updates {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(state); err != nil {
			logger.Debug("WebSocket write failed", logger.ErrorField(err))
			return
		}
	}
}
