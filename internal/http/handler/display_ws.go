package handler

import (
	"backend-checkin/internal/realtime"

	"github.com/gofiber/websocket/v2"
)

// DisplayWS - Papan display antrian; tiap admin advance, cursor terbaru
// di-broadcast ke semua koneksi di sini
func DisplayWS(hub *realtime.DisplayHub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.Register <- c
		defer func() {
			hub.Unregister <- c
		}()

		// listen client
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}
}
