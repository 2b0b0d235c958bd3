package httpserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tinytelemetry/concentration/internal/model"
)

const streamWriteTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleStream upgrades to a websocket and pushes an Update whenever the game
// logs new events. The first message is the current snapshot with every
// retained event. The stream ends when the game ends, the client closes, or
// the server stops.
func (s *Server) handleStream(c *gin.Context) {
	id := c.Param("id")
	after, err := parseAfter(c.Query("after"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
		return
	}

	// Reject unknown games before upgrading so the client gets a status code.
	first, err := s.games.Poll(id, after)
	if err != nil {
		abortWithError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("httpserver: websocket upgrade for %s: %v", id, err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(upd model.Update) error {
		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		return conn.WriteJSON(upd)
	}

	if err := send(first); err != nil {
		return
	}
	after = first.Snapshot.Seq

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-s.ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case <-ticker.C:
			upd, err := s.games.Poll(id, after)
			if errors.Is(err, model.ErrGameNotFound) {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game ended"),
					time.Now().Add(time.Second))
				return
			}
			if err != nil {
				log.Printf("httpserver: stream poll %s: %v", id, err)
				return
			}
			if upd.Snapshot.Seq == after {
				continue
			}
			if err := send(upd); err != nil {
				return
			}
			after = upd.Snapshot.Seq
		}
	}
}
