package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// stream pushes a dashboard summary on connect and after every published
// or reconciled snapshot until the client disconnects.
func (s *Server) stream(c *gin.Context) {
	d, snap, ok := s.dashboardFor(c)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "scope", d.Scope().String(), "error", err)
		return
	}
	defer conn.Close()

	updates, cancel := d.Subscribe()
	defer cancel()

	// Reads only surface the close frame; clients send nothing else.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(v)
	}
	if err := send(summarize(snap, d.Pending())); err != nil {
		return
	}

	s.logger.Debug("stream opened", "scope", d.Scope().String())
	for {
		select {
		case <-closed:
			s.logger.Debug("stream closed", "scope", d.Scope().String())
			return
		case <-c.Request.Context().Done():
			return
		case next := <-updates:
			if err := send(summarize(next, d.Pending())); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn("stream write failed", "scope", d.Scope().String(), "error", err)
				}
				return
			}
		}
	}
}
