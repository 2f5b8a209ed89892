package types

const (
	TypeWebsocketChat = "chat"
	TypeWebsocketPing = "ping"
	TypeWebsocketPong = "pong"
)

type WebsocketRequest struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type WebSocketResponse struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type WebSocketChatPayload struct {
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}
