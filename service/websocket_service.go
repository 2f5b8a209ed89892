package service

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/careline/chatbot-be/types"
	"github.com/gorilla/websocket"
)

// WebSocketService serves live chat over a websocket. Each chat message
// runs a full router turn; the reply goes back on the same connection.
type WebSocketService struct {
	router   *RouterService
	upgrader websocket.Upgrader
}

func NewWebSocketService(router *RouterService) *WebSocketService {
	return &WebSocketService{
		router: router,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx := r.Context()
	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			log.Println("Unmarshal error:", err)
			s.writeError(conn, "invalid message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketChat:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				s.writeError(conn, "invalid payload")
				continue
			}
			var payload types.WebSocketChatPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				log.Println("Unmarshal error:", err)
				s.writeError(conn, "invalid payload")
				continue
			}

			turn, err := s.router.Respond(ctx, payload.UserID, payload.Message, payload.RequestID)
			if err != nil {
				log.Println("Chat turn error:", err)
				s.writeError(conn, "failed to process message")
				continue
			}
			resp := types.WebSocketResponse{
				Type:    types.TypeWebsocketChat,
				Payload: turn,
			}
			if err := conn.WriteJSON(resp); err != nil {
				log.Println("Write error:", err)
			}
		case types.TypeWebsocketPing:
			pong := types.WebSocketResponse{Type: types.TypeWebsocketPong}
			if err := conn.WriteJSON(pong); err != nil {
				log.Println("Write error:", err)
			}
		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, msg string) {
	resp := types.WebSocketResponse{
		Type:    "error",
		Payload: map[string]string{"error": msg},
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Println("Write error:", err)
	}
}
