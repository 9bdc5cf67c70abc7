package server

import (
	"net/http"
	"strings"

	"github.com/huntworks/qrhunt/internal/hunt"
)

type ScanRequest struct {
	Code     string `json:"code"`
	Password string `json:"password,omitempty"`
}

// NodeView is the player-safe projection of a checkpoint. Password hashes,
// scan keys, and unrevealed hints never leave the server.
type NodeView struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Points           int    `json:"points"`
	IsStart          bool   `json:"isStart"`
	IsEnd            bool   `json:"isEnd"`
	RequiresPassword bool   `json:"requiresPassword"`
	HasHint          bool   `json:"hasHint"`
}

func nodeView(n hunt.Node) *NodeView {
	return &NodeView{
		ID:               n.ID,
		Title:            n.Title,
		Points:           n.Points,
		IsStart:          n.IsStart,
		IsEnd:            n.IsEnd,
		RequiresPassword: n.PasswordHash != "",
		HasHint:          n.Hint != "",
	}
}

type ScanResponse struct {
	Status         hunt.ScanStatus `json:"status"`
	Message        string          `json:"message"`
	Node           *NodeView       `json:"node,omitempty"`
	Points         int             `json:"points,omitempty"`
	RemainingCount int             `json:"remainingCount"`
	GameComplete   bool            `json:"gameComplete"`
}

// scanStatusCode maps rejection statuses to HTTP codes. The body always
// carries the machine-readable status, so clients branch on that, not the
// code.
func scanStatusCode(status hunt.ScanStatus) int {
	switch status {
	case hunt.ScanOK:
		return http.StatusOK
	case hunt.ScanInvalidCode:
		return http.StatusNotFound
	case hunt.ScanPasswordRequired, hunt.ScanIncorrectPassword:
		return http.StatusForbidden
	default:
		return http.StatusConflict
	}
}

func handleScan(store *SQLiteStore, svc *hunt.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req ScanRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Code = strings.TrimSpace(req.Code)
		if req.Code == "" {
			writeError(w, http.StatusBadRequest, "code is required")
			return
		}

		result, err := svc.RecordScan(r.Context(), sess.TeamID, req.Code, req.Password, hunt.ClientMeta{
			IP:        r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := ScanResponse{
			Status:         result.Status,
			Message:        result.Message,
			Points:         result.Points,
			RemainingCount: len(result.Remaining),
			GameComplete:   result.GameComplete,
		}
		if result.Node != nil {
			resp.Node = nodeView(*result.Node)
		}

		writeJSON(w, scanStatusCode(result.Status), resp)
	}
}
