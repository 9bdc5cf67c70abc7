package server

import (
	"crypto/rand"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type AdminTeamItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	JoinCode    string `json:"joinCode"`
	StartNodeID string `json:"startNodeId"`
	PlayerCount int    `json:"playerCount"`
	ScanCount   int    `json:"scanCount"`
	CreatedAt   string `json:"createdAt"`
}

type AdminTeamRequest struct {
	Name        string `json:"name"`
	JoinCode    string `json:"joinCode"`
	StartNodeID string `json:"startNodeId"`
}

// joinCodeAlphabet omits lookalike characters so codes survive being read
// aloud or typed from a printout.
const joinCodeAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"

func newJoinCode() string {
	buf := make([]byte, 6)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf)
}

func validTeamRequest(r *http.Request, store *SQLiteStore, gameID string, req *AdminTeamRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required", nil
	}
	if req.JoinCode == "" {
		req.JoinCode = newJoinCode()
	}
	if req.StartNodeID != "" {
		node, err := store.NodeByID(r.Context(), req.StartNodeID)
		if errors.Is(err, hunt.ErrNotFound) || (err == nil && node.GameID != gameID) {
			return "startNodeId does not name a node in this game", nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", nil
}

func handleAdminListTeams(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := store.ListTeams(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, teams)
	}
}

func handleAdminCreateTeam(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if _, err := store.GameByID(r.Context(), gameID); err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		var req AdminTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		msg, err := validTeamRequest(r, store, gameID, &req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		team, err := store.CreateTeam(r.Context(), gameID, req)
		if err != nil {
			writeError(w, http.StatusConflict, "join code already in use")
			return
		}
		writeJSON(w, http.StatusCreated, team)
	}
}

func handleAdminUpdateTeam(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		teamID := chi.URLParam(r, "teamID")

		team, err := store.TeamByID(r.Context(), teamID)
		if errors.Is(err, hunt.ErrNotFound) || (err == nil && team.GameID != gameID) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var req AdminTeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.JoinCode == "" {
			req.JoinCode = team.JoinCode
		}
		msg, err := validTeamRequest(r, store, gameID, &req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		if err := store.UpdateTeam(r.Context(), teamID, req); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func handleAdminDeleteTeam(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")

		scans, err := store.ScansByTeam(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if len(scans) > 0 {
			writeError(w, http.StatusConflict, "team has scans and cannot be deleted")
			return
		}
		players, err := store.TeamPlayerCount(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if players > 0 {
			writeError(w, http.StatusConflict, "team has players and cannot be deleted")
			return
		}

		err = store.DeleteTeam(r.Context(), teamID)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
