package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type TeamLookupResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	GameName   string `json:"gameName"`
	GameStatus string `json:"gameStatus"`
	GameID     string `json:"-"`
}

func handleTeamLookup(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "joinCode")

		resp, err := store.TeamLookup(r.Context(), code)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found or hunt already over")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
