package dashboard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/zulandar/planboard/internal/hub"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The API is read-only and usually fronted by a dev server on another port.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket pushes hub messages as JSON text frames. Incoming frames
// are read only to notice the peer going away.
func handleWebSocket(h *hub.Hub, heartbeatEvery time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		obs := h.Subscribe("ws " + c.ClientIP())
		defer h.Unsubscribe(obs)
		log.Debug("ws observer connected", "observer", obs.ID)

		gone := make(chan struct{})
		go func() {
			defer close(gone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(heartbeatEvery)
		defer ping.Stop()

		for {
			select {
			case <-gone:
				return
			case <-c.Request.Context().Done():
				return
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case msg, ok := <-obs.C():
				if !ok {
					conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "observer dropped"),
						time.Now().Add(writeWait))
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					log.Debug("ws write failed", "observer", obs.ID, "error", err)
					return
				}
			}
		}
	}
}
