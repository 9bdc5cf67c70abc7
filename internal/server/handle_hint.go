package server

import (
	"errors"
	"net/http"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type HintRequest struct {
	NodeID string `json:"nodeId"`
}

func handleHint(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req HintRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.NodeID == "" {
			writeError(w, http.StatusBadRequest, "nodeId is required")
			return
		}

		result, err := svc.RequestHint(r.Context(), sess.TeamID, req.NodeID)
		if errors.Is(err, hunt.ErrNotFound) {
			writeError(w, http.StatusNotFound, "checkpoint not found")
			return
		}
		if errors.Is(err, hunt.ErrNoHint) {
			writeError(w, http.StatusConflict, "this checkpoint has no hint")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
