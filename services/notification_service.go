package services

import (
	"encoding/json"
	"log"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/segmentio/kafka-go"
)

// NotificationService is the fire-and-forget notification dispatcher: every
// event is broadcast to the recipient's socket room and published to the
// notifications topic. Delivery failures are logged and never retried; this
// core treats notifications as best-effort.
type NotificationService struct {
	Kafka  *kafka.Conn      // nil disables publishing
	Socket *socketio.Server // nil disables realtime broadcast
}

type notificationEnvelope struct {
	UserID  string      `json:"userId"`
	Kind    string      `json:"kind"`
	Payload interface{} `json:"payload"`
	SentAt  string      `json:"sentAt"`
}

// Send dispatches one notification to a user.
func (ns *NotificationService) Send(userID, kind string, payload interface{}) {
	envelope := notificationEnvelope{
		UserID:  userID,
		Kind:    kind,
		Payload: payload,
		SentAt:  time.Now().UTC().Format(time.RFC3339),
	}

	if ns.Socket != nil {
		ns.Socket.BroadcastToRoom("/", UserRoom(userID), kind, envelope)
	}

	if ns.Kafka != nil {
		raw, err := json.Marshal(envelope)
		if err != nil {
			log.Printf("❌ Failed to encode notification for %s: %v", userID, err)
			return
		}
		ns.Kafka.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if _, err := ns.Kafka.WriteMessages(kafka.Message{
			Key:   []byte(kind),
			Value: raw,
		}); err != nil {
			log.Printf("❌ Failed to publish %s notification for %s: %v", kind, userID, err)
		}
	}
}

// UserRoom names the socket room carrying a user's match request events.
func UserRoom(userID string) string {
	return "user:" + userID
}
