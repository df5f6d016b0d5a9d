package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/PabloGalante/staffdesk/internal/observability"
)

const streamWriteTimeout = 10 * time.Second

// handleStream upgrades to a websocket and forwards the round events of one
// brainstorm session until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	log := observability.LoggerFromContext(r.Context()).With("session_id", id)

	if _, err := s.deps.Brainstorms.GetSession(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	// Subscribe before the upgrade so nothing published after the handshake is missed.
	events, unsubscribe := s.deps.Hub.Subscribe(id)
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			log.Debug("failed to close websocket", "error", closeErr)
		}
	}()

	// The stream is one-way; CloseRead handles control frames and cancels ctx on disconnect.
	ctx := conn.CloseRead(r.Context())
	log.Info("brainstorm stream opened")

	for {
		select {
		case <-ctx.Done():
			log.Info("brainstorm stream closed")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}
