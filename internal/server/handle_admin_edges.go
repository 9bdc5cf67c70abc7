package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type AdminEdgeItem struct {
	ID         string `json:"id"`
	FromNodeID string `json:"fromNodeId"`
	ToNodeID   string `json:"toNodeId"`
}

type AdminEdgeRequest struct {
	FromNodeID string `json:"fromNodeId"`
	ToNodeID   string `json:"toNodeId"`
}

func handleAdminListEdges(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		edges, err := store.EdgesByGame(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := []AdminEdgeItem{}
		for _, e := range edges {
			items = append(items, AdminEdgeItem{ID: e.ID, FromNodeID: e.FromNodeID, ToNodeID: e.ToNodeID})
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateEdge(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req AdminEdgeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.FromNodeID == "" || req.ToNodeID == "" {
			writeError(w, http.StatusBadRequest, "fromNodeId and toNodeId are required")
			return
		}
		if req.FromNodeID == req.ToNodeID {
			writeError(w, http.StatusBadRequest, "an edge cannot point at its own node")
			return
		}

		for _, id := range []string{req.FromNodeID, req.ToNodeID} {
			node, err := store.NodeByID(r.Context(), id)
			if errors.Is(err, hunt.ErrNotFound) || (err == nil && node.GameID != gameID) {
				writeError(w, http.StatusNotFound, "node not found in this game")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}

		edge, err := store.CreateEdge(r.Context(), gameID, req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, edge)
	}
}

func handleAdminDeleteEdge(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteEdge(r.Context(), chi.URLParam(r, "edgeID"))
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "edge not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
