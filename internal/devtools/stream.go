package devtools

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/streamio/streamio/internal/events"
	"github.com/streamio/streamio/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The inspector is a local debug surface; the frontend connects from
	// its own origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamEvents upgrades the connection and forwards bus events until the
// client disconnects.
func (i *Inspector) streamEvents(c *gin.Context) {
	if i.eventBus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event bus unavailable"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Devtools stream upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	buffer := i.cfg.EventBuffer
	if buffer <= 0 {
		buffer = 100
	}
	eventCh := make(chan events.Event, buffer)

	subscription, err := i.eventBus.Subscribe(events.EventFilter{}, func(event events.Event) error {
		select {
		case eventCh <- event:
		default:
			// Slow inspector clients lose events rather than stalling the bus.
		}
		return nil
	})
	if err != nil {
		logger.Warn("Devtools stream subscription failed: %v", err)
		return
	}
	defer i.eventBus.Unsubscribe(subscription.ID)

	// Reader goroutine detects client disconnect.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		case event := <-eventCh:
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}
