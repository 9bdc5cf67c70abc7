package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type JoinRequest struct {
	JoinCode   string `json:"joinCode"`
	PlayerName string `json:"playerName"`
}

type JoinResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

func handleJoin(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerName = strings.TrimSpace(req.PlayerName)
		if req.PlayerName == "" || req.JoinCode == "" {
			writeError(w, http.StatusBadRequest, "joinCode and playerName are required")
			return
		}

		team, err := store.TeamLookup(r.Context(), req.JoinCode)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found or hunt already over")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		playerID, sessionID, err := store.JoinTeam(r.Context(), team.ID, req.PlayerName)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		svc.PublishChat(team.GameID, hunt.ChatEvent{
			TeamName:   team.Name,
			PlayerName: req.PlayerName,
			Message:    "joined the hunt",
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			Token:    sessionID,
			PlayerID: playerID,
			TeamID:   team.ID,
			TeamName: team.Name,
		})
	}
}
