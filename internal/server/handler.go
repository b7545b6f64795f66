package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soar/padmapper/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local use only
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := hub.NewClient(s.hub, conn)
	s.hub.Register(client)
	s.broadcaster.SendInitialState(client)

	go client.WritePump()
	go client.ReadPumpWithHandler(s.selector, s.broadcaster)
}
