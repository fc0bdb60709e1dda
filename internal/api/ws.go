package api

import (
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// handleStream upgrades to a websocket. The first frame sent is the current
// snapshot; after that every {choice} frame is answered with the same
// envelope the POST route returns.
func (s *server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warn("websocket accept failed", zap.String("session", id), zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	rec, err := s.sessions.Get(ctx, id)
	if err != nil {
		_, env := s.storeErrorEnvelope(err)
		_ = wsjson.Write(ctx, conn, env)
		conn.Close(websocket.StatusPolicyViolation, env.Error)
		return
	}
	if err := wsjson.Write(ctx, conn, envelope{Success: true, Data: buildSnapshot(s.sessions.Engine(), rec)}); err != nil {
		return
	}

	for {
		var req choiceRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, ctx.Err()) {
				return
			}
			s.log.Debug("websocket read ended", zap.String("session", id), zap.Error(err))
			return
		}
		_, env := s.applyChoice(r, id, choiceText(req.Choice))
		if err := wsjson.Write(ctx, conn, env); err != nil {
			return
		}
		if snap, ok := env.Data.(Snapshot); ok && snap.GameOver {
			conn.Close(websocket.StatusNormalClosure, "game over")
			return
		}
	}
}
