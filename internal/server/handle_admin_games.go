package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type AdminGameSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	RankingMode string `json:"rankingMode"`
	TeamCount   int    `json:"teamCount"`
	NodeCount   int    `json:"nodeCount"`
	CreatedAt   string `json:"createdAt"`
}

type AdminGameDetail struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Status              string          `json:"status"`
	RankingMode         string          `json:"rankingMode"`
	TimeBonusEnabled    bool            `json:"timeBonusEnabled"`
	TimeBonusMultiplier float64         `json:"timeBonusMultiplier"`
	RandomMode          bool            `json:"randomMode"`
	Teams               []AdminTeamItem `json:"teams"`
	Nodes               []AdminNodeItem `json:"nodes"`
}

type AdminGameRequest struct {
	Name                string  `json:"name"`
	RankingMode         string  `json:"rankingMode"`
	TimeBonusEnabled    bool    `json:"timeBonusEnabled"`
	TimeBonusMultiplier float64 `json:"timeBonusMultiplier"`
	RandomMode          bool    `json:"randomMode"`
}

type AdminGameStatusRequest struct {
	Status string `json:"status"`
}

func validGameRequest(req *AdminGameRequest) string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if req.RankingMode == "" {
		req.RankingMode = string(hunt.RankByPoints)
	}
	switch hunt.RankingMode(req.RankingMode) {
	case hunt.RankByPoints, hunt.RankByNodes, hunt.RankByTime:
	default:
		return "rankingMode must be points, nodes, or time"
	}
	if req.TimeBonusEnabled && req.TimeBonusMultiplier <= 1 {
		return "timeBonusMultiplier must be greater than 1"
	}
	return ""
}

func handleAdminListGames(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := store.ListGames(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

func handleAdminCreateGame(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validGameRequest(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		id, err := store.CreateGame(r.Context(), req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		detail, err := gameDetail(r, store, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, detail)
	}
}

func gameDetail(r *http.Request, store *SQLiteStore, gameID string) (AdminGameDetail, error) {
	game, err := store.GameByID(r.Context(), gameID)
	if err != nil {
		return AdminGameDetail{}, err
	}
	teams, err := store.ListTeams(r.Context(), gameID)
	if err != nil {
		return AdminGameDetail{}, err
	}
	nodes, err := store.ListNodes(r.Context(), gameID)
	if err != nil {
		return AdminGameDetail{}, err
	}
	return AdminGameDetail{
		ID:                  game.ID,
		Name:                game.Name,
		Status:              game.Status,
		RankingMode:         string(game.RankingMode),
		TimeBonusEnabled:    game.TimeBonusEnabled,
		TimeBonusMultiplier: game.TimeBonusMultiplier,
		RandomMode:          game.RandomMode,
		Teams:               teams,
		Nodes:               nodes,
	}, nil
}

func handleAdminGetGame(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := gameDetail(r, store, chi.URLParam(r, "gameID"))
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleAdminUpdateGame(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req AdminGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validGameRequest(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		err := store.UpdateGame(r.Context(), gameID, req)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Ranking mode and bonus settings change how entries sort.
		svc.InvalidateLeaderboard(gameID)

		detail, err := gameDetail(r, store, gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func handleAdminGameStatus(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req AdminGameStatusRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		switch req.Status {
		case hunt.StatusSetup, hunt.StatusActive, hunt.StatusEnded:
		default:
			writeError(w, http.StatusBadRequest, "status must be setup, active, or ended")
			return
		}

		err := store.UpdateGameStatus(r.Context(), gameID, req.Status)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		svc.PublishGameStatus(r.Context(), gameID, req.Status)

		writeJSON(w, http.StatusOK, map[string]string{"id": gameID, "status": req.Status})
	}
}

func handleAdminDeleteGame(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		teams, err := store.ListTeams(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, t := range teams {
			if t.PlayerCount > 0 || t.ScanCount > 0 {
				writeError(w, http.StatusConflict, "game has teams with players or scans")
				return
			}
		}

		err = store.DeleteGame(r.Context(), gameID)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
