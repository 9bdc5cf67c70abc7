package server

import (
	"net/http"
	"strings"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type ChatRequest struct {
	Message string `json:"message"`
}

const maxChatMessageLen = 500

func handleChat(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ChatRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Message = strings.TrimSpace(req.Message)
		if req.Message == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}
		if len(req.Message) > maxChatMessageLen {
			writeError(w, http.StatusBadRequest, "message too long")
			return
		}

		team, err := store.TeamByID(r.Context(), sess.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		svc.PublishChat(sess.GameID, hunt.ChatEvent{
			TeamName:   team.Name,
			PlayerName: sess.PlayerName,
			Message:    req.Message,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	}
}
