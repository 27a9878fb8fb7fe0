package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server used for match request
// subscriptions. Clients join their own room and receive every lifecycle
// event for requests addressed to them.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(c socketio.Conn) error {
		log.Println("✅ Socket connected:", c.ID())
		return nil
	})

	// subscribeToMatchRequests: join the per-user room
	server.OnEvent("/", "subscribeMatchRequests", func(c socketio.Conn, userID string) {
		if userID == "" {
			log.Println("❌ Invalid userId in subscribe request")
			return
		}
		log.Printf("👥 Socket %s subscribed to match requests for %s\n", c.ID(), userID)
		c.Join("user:" + userID)
	})

	// unsubscribe: leave the per-user room
	server.OnEvent("/", "unsubscribeMatchRequests", func(c socketio.Conn, userID string) {
		if userID == "" {
			return
		}
		c.Leave("user:" + userID)
	})

	server.OnError("/", func(c socketio.Conn, err error) {
		log.Println("❌ Socket error:", err)
	})

	server.OnDisconnect("/", func(c socketio.Conn, reason string) {
		log.Println("❌ Socket disconnected:", reason)
	})

	return server
}
