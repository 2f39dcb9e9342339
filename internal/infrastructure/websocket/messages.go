package websocket

const (
	MessageTypePing = "ping"
	MessageTypePong = "pong"

	// EventOrderStatus carries the full order after any status change.
	EventOrderStatus = "order_status"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"order,omitempty"`
	Timestamp string      `json:"timestamp"`
}
