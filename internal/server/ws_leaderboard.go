package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/huntworks/qrhunt/internal/hunt"
)

// handleWSLeaderboard streams leaderboard snapshots over a websocket. The
// current snapshot is sent on connect, then every update pushed by the
// broker. Scoreboard displays that cannot use SSE use this.
func handleWSLeaderboard(logger *slog.Logger, store *SQLiteStore, svc *hunt.Service, broker *hunt.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		if _, err := store.GameByID(r.Context(), gameID); err != nil {
			if errors.Is(err, hunt.ErrNotFound) {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()

		snapshot, err := svc.Leaderboard(ctx, gameID)
		if err == nil {
			if data, err := json.Marshal(snapshot); err == nil {
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					return
				}
			}
		}

		ch := broker.Subscribe(gameID)
		defer broker.Unsubscribe(gameID, ch)

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				if ev.Kind != hunt.EventLeaderboard {
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, ev.Data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					return
				}
			}
		}
	}
}
