package handler

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/use-agent/scrapeconsole/logstream"
	"github.com/use-agent/scrapeconsole/metrics"
)

// KeepAliveInterval is how often an idle log stream sends a comment line.
var KeepAliveInterval = 15 * time.Second

// LogStream returns a handler for GET /log-stream.
//
// Each published line is sent as an SSE "message" event. The stream ends
// when the client disconnects or the hub shuts down.
func LogStream(hub *logstream.Hub, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		lines, cancel := hub.Subscribe()
		defer cancel()
		m.SubscriberDelta(1)
		defer m.SubscriberDelta(-1)

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		c.Writer.WriteHeaderNow()
		c.Writer.Flush()

		ticker := time.NewTicker(KeepAliveInterval)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case line, ok := <-lines:
				if !ok {
					return false
				}
				c.Render(-1, sse.Event{Event: "message", Data: line})
				return true
			case <-ticker.C:
				_, err := io.WriteString(w, ": keep-alive\n\n")
				return err == nil
			}
		})
	}
}
