package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type AdminNodeItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ScanKey     string `json:"scanKey"`
	Points      int    `json:"points"`
	IsStart     bool   `json:"isStart"`
	IsEnd       bool   `json:"isEnd"`
	Activated   bool   `json:"activated"`
	HasPassword bool   `json:"hasPassword"`
	Hint        string `json:"hint"`
	ScanCount   int    `json:"scanCount"`
	CreatedAt   string `json:"createdAt"`
}

type AdminNodeRequest struct {
	Title     string `json:"title"`
	Points    int    `json:"points"`
	IsStart   bool   `json:"isStart"`
	IsEnd     bool   `json:"isEnd"`
	Activated bool   `json:"activated"`
	// Password empty on update keeps the current one; "-" clears it.
	Password string `json:"password"`
	Hint     string `json:"hint"`
}

type AdminActivateRequest struct {
	Activated bool `json:"activated"`
}

func validNodeRequest(req *AdminNodeRequest) string {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return "title is required"
	}
	if req.Points < 0 {
		return "points must not be negative"
	}
	return ""
}

func hashNodePassword(password string) (string, error) {
	if password == "" || password == "-" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func handleAdminListNodes(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodes, err := store.ListNodes(r.Context(), chi.URLParam(r, "gameID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, nodes)
	}
}

func handleAdminCreateNode(store *SQLiteStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if _, err := store.GameByID(r.Context(), gameID); err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		var req AdminNodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validNodeRequest(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		hash, err := hashNodePassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		node, err := store.CreateNode(r.Context(), gameID, req, hash)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, node)
	}
}

func handleAdminUpdateNode(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		nodeID := chi.URLParam(r, "nodeID")

		var req AdminNodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := validNodeRequest(&req); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		// Point values are frozen once a team has scanned the node: the
		// ledger stores points as of scan time and the two must agree.
		scanned, err := store.NodeHasScans(r.Context(), nodeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if scanned {
			node, err := store.NodeByID(r.Context(), nodeID)
			if err == nil && node.Points != req.Points {
				writeError(w, http.StatusConflict, "points cannot change after the node has been scanned")
				return
			}
		}

		hash, err := hashNodePassword(req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		keepPassword := req.Password == ""

		err = store.UpdateNode(r.Context(), nodeID, req, hash, keepPassword)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "node not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		svc.InvalidateLeaderboard(gameID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

func handleAdminActivateNode(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		nodeID := chi.URLParam(r, "nodeID")

		var req AdminActivateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err := store.SetNodeActivated(r.Context(), nodeID, req.Activated)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "node not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Activation changes the completion set, so ranks must recompute.
		svc.InvalidateLeaderboard(gameID)
		svc.PublishLeaderboard(r.Context(), gameID)

		writeJSON(w, http.StatusOK, map[string]any{"id": nodeID, "activated": req.Activated})
	}
}

func handleAdminDeleteNode(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		nodeID := chi.URLParam(r, "nodeID")

		scanned, err := store.NodeHasScans(r.Context(), nodeID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if scanned {
			writeError(w, http.StatusConflict, "node has scans, deactivate it instead")
			return
		}

		err = store.DeleteNode(r.Context(), nodeID)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "node not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		svc.InvalidateLeaderboard(gameID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
