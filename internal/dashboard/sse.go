package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulandar/planboard/internal/hub"
)

// handleSSE streams hub messages as Server-Sent Events. The first event is
// always the current state.
func handleSSE(h *hub.Hub, heartbeatEvery time.Duration, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		obs := h.Subscribe("sse " + c.ClientIP())
		defer h.Unsubscribe(obs)
		log.Debug("sse observer connected", "observer", obs.ID)

		ctx := c.Request.Context()
		heartbeat := time.NewTicker(heartbeatEvery)
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case msg, ok := <-obs.C():
				if !ok {
					// Dropped by the hub as a slow observer.
					log.Debug("sse observer dropped", "observer", obs.ID)
					return
				}
				writeSSE(c.Writer, msg.Type, msg)
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
