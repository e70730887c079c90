package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/aaquinonez01/whatsapp-service/internal/state"
)

const streamWriteTimeout = 5 * time.Second

// handleStatusStream upgrades to a WebSocket and pushes the current status,
// then one frame per change until either side goes away.
func (s *Server) handleStatusStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.log.Warnf("WebSocket accept failed: %v", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "closing") }()

	s.metrics.incStreamClients()
	defer s.metrics.decStreamClients()

	// Clients never send anything; CloseRead handles their close frame.
	ctx := conn.CloseRead(r.Context())

	updates, cancel := s.tracker.Subscribe()
	defer cancel()

	if err := s.writeFrame(ctx, conn, s.tracker.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := s.writeFrame(ctx, conn, snap); err != nil {
				if !errors.Is(err, context.Canceled) {
					s.log.Debugf("Status stream write failed: %v", err)
				}
				return
			}
		}
	}
}

func (s *Server) writeFrame(ctx context.Context, conn *websocket.Conn, snap state.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, statusFrame{
		statusResponse: newStatusResponse(snap),
		UpdatedAt:      snap.UpdatedAt,
	})
}
