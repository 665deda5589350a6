package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

type EventsHandler struct {
	feed      ChangeFeed
	heartbeat time.Duration
}

func NewEventsHandler(feed ChangeFeed, heartbeat time.Duration) *EventsHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &EventsHandler{
		feed:      feed,
		heartbeat: heartbeat,
	}
}

// Stream godoc
// @Summary     Change feed
// @Description Server-Sent Events stream of gallery, order and push token changes.
// @Description Each "change" event carries {table, type, id}; clients re-fetch on any event.
// @Description EventSource clients pass the session token as access_token.
// @Tags        events
// @Produce     text/event-stream
// @Security    Bearer
// @Param       access_token query string false "Session token for EventSource clients"
// @Success     200 {object} supabase.ChangeEvent
// @Failure     401 {object} models.ErrorResponse
// @Router      /api/v1/admin/events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	events, cancel := h.feed.Subscribe()
	defer cancel()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"status": "subscribed"})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
