package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	// LocalSubjectID carries the authorized subject from the HTTP route into the socket
	LocalSubjectID = "ws_subject_id"
	// LocalUserID carries the viewer's user id
	LocalUserID = "ws_user_id"
)

// Handler upgrades the request and streams the subject's events. The route
// must authorize the viewer and set LocalSubjectID before this runs.
func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		subjectID, ok := c.Locals(LocalSubjectID).(string)
		if !ok || subjectID == "" {
			_ = c.Close()
			return
		}
		userID, _ := c.Locals(LocalUserID).(string)

		client := &Client{
			hub:       hub,
			conn:      c,
			subjectID: subjectID,
			userID:    userID,
			send:      make(chan []byte, 256),
		}

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
