package server

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway serves its own front end; same-origin checks add
	// nothing for a local prototype.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is one inbound chat frame.
type wsMessage struct {
	Text string `json:"text"`
}

// wsHandler runs a text-only chat conversation over a websocket. Each
// inbound frame behaves like a POST /chat with only a text field; the
// reply and updated history are written back as one JSON frame.
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("session")
	if key == "" {
		key = newSessionKey()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	s.logger.Info("websocket chat opened", "session", key)

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "session", key, "error", err)
			}
			return
		}
		if msg.Text == "" {
			if err := conn.WriteJSON(ErrorResponse{Error: "no text provided"}); err != nil {
				return
			}
			continue
		}

		reply := s.converse(r.Context(), key, msg.Text)
		resp := ChatResponse{
			Session: key,
			Reply:   reply,
			History: s.store.History(key),
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("websocket write failed", "session", key, "error", err)
			return
		}
	}
}
