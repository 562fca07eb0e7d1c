package handler

import (
	"fmt"
	"time"

	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/middleware"
	"github.com/dilanlakmal/YQMS-V0.1-sub013/internal/qc/sse"
	"github.com/gin-gonic/gin"
)

const sseHeartbeat = 30 * time.Second

// SSEHandler 报告更新推送
type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// Stream GET /sse/events?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		Error(c, 50300, "事件推送未启用")
		return
	}

	userID := GetUserID(c)
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())
	client := &sse.Client{
		ID:      clientID,
		UserID:  userID,
		Factory: c.GetString(middleware.CtxFactory),
		Events:  make(chan sse.Event, 64),
	}
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
