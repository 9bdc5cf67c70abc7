package hunt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ScanStatus classifies the outcome of a scan attempt. Everything except
// ScanOK is an expected, player-recoverable state, not an error.
type ScanStatus string

const (
	ScanOK                ScanStatus = "ok"
	ScanGameNotActive     ScanStatus = "gameNotActive"
	ScanInvalidCode       ScanStatus = "invalidCode"
	ScanNotAStartingPoint ScanStatus = "notAStartingPoint"
	ScanAllFound          ScanStatus = "allFound"
	ScanAlreadyScanned    ScanStatus = "alreadyScanned"
	ScanPasswordRequired  ScanStatus = "passwordRequired"
	ScanIncorrectPassword ScanStatus = "incorrectPassword"
)

type ScanResult struct {
	Status       ScanStatus
	Message      string
	Node         *Node
	Points       int
	Remaining    []Node // unscanned activated nodes after this scan
	GameComplete bool
}

func (r ScanResult) OK() bool { return r.Status == ScanOK }

// RecordScan validates a scan request against the team's ledger history and
// the game graph, and appends it on success. Legality, in order: the game
// must be active, the key must resolve to a node, a team's first scan must
// hit its start node, a team that has found every activated node may only
// scan an end node, the node's password must match, and the node must not
// have been scanned before. Collect-all semantics: any other node is legal
// in any order; edges never gate.
//
// A successful scan invalidates the leaderboard cache and publishes scan and
// leaderboard events before returning.
func (s *Service) RecordScan(ctx context.Context, teamID, scanKey, password string, meta ClientMeta) (ScanResult, error) {
	team, err := s.store.TeamByID(ctx, teamID)
	if err != nil {
		return ScanResult{}, err
	}
	game, err := s.store.GameByID(ctx, team.GameID)
	if err != nil {
		return ScanResult{}, err
	}
	if game.Status != StatusActive {
		return ScanResult{
			Status:  ScanGameNotActive,
			Message: "the hunt is not running right now, wait for the starting signal",
		}, nil
	}

	node, err := s.store.NodeByScanKey(ctx, game.ID, scanKey)
	if errors.Is(err, ErrNotFound) {
		return ScanResult{
			Status:  ScanInvalidCode,
			Message: "this code does not belong to the hunt",
		}, nil
	}
	if err != nil {
		return ScanResult{}, err
	}

	scans, err := s.store.ScansByTeam(ctx, teamID)
	if err != nil {
		return ScanResult{}, err
	}
	activated, err := s.store.ActivatedNodes(ctx, game.ID)
	if err != nil {
		return ScanResult{}, err
	}

	scanned := make(map[string]bool, len(scans))
	for _, sc := range scans {
		scanned[sc.NodeID] = true
	}
	foundAll := len(activated) > 0
	for _, n := range activated {
		if !scanned[n.ID] {
			foundAll = false
			break
		}
	}

	if len(scans) == 0 {
		legalStart := node.IsStart
		if team.StartNodeID != "" {
			legalStart = node.ID == team.StartNodeID
		}
		if !legalStart {
			return ScanResult{
				Status:  ScanNotAStartingPoint,
				Message: "this is not your starting point, find your first checkpoint to begin",
			}, nil
		}
	}

	if foundAll && !node.IsEnd {
		return ScanResult{
			Status:  ScanAllFound,
			Message: "you have found every checkpoint, head to an end point to finish",
		}, nil
	}

	if node.PasswordHash != "" {
		if password == "" {
			return ScanResult{
				Status:  ScanPasswordRequired,
				Message: "this checkpoint requires a password",
				Node:    &node,
			}, nil
		}
		if bcrypt.CompareHashAndPassword([]byte(node.PasswordHash), []byte(password)) != nil {
			return ScanResult{
				Status:  ScanIncorrectPassword,
				Message: "incorrect password, try again",
				Node:    &node,
			}, nil
		}
	}

	if scanned[node.ID] {
		return ScanResult{
			Status:  ScanAlreadyScanned,
			Message: "you already found this checkpoint",
		}, nil
	}

	var lastScanAt time.Time
	if len(scans) > 0 {
		lastScanAt = scans[len(scans)-1].CreatedAt
	}
	points := scanPoints(node, game, lastScanAt, s.now())

	scan, err := s.store.AppendScan(ctx, Scan{
		TeamID:    teamID,
		NodeID:    node.ID,
		Points:    points,
		ClientIP:  meta.IP,
		UserAgent: meta.UserAgent,
	})
	if errors.Is(err, ErrDuplicateScan) {
		// Lost the race against a concurrent scan of the same node.
		return ScanResult{
			Status:  ScanAlreadyScanned,
			Message: "you already found this checkpoint",
		}, nil
	}
	if err != nil {
		return ScanResult{}, err
	}

	var remaining []Node
	for _, n := range activated {
		if !scanned[n.ID] && n.ID != node.ID {
			remaining = append(remaining, n)
		}
	}
	// Completion needs an end node among the finds. With nothing left to
	// scan, every activated end node has necessarily been found; node.IsEnd
	// covers an end point that was deactivated mid-game.
	hasEnd := node.IsEnd
	for _, n := range activated {
		if n.IsEnd {
			hasEnd = true
			break
		}
	}
	complete := len(remaining) == 0 && hasEnd

	if game.RandomMode && len(remaining) > 0 {
		next := remaining[s.randInt(len(remaining))]
		if err := s.store.SetCurrentClue(ctx, teamID, next.ID); err != nil {
			s.logger.Error("setting next clue", "team", teamID, "error", err)
		}
	}

	s.afterScan(ctx, game.ID, team, node, scan, complete)

	return ScanResult{
		Status:       ScanOK,
		Message:      fmt.Sprintf("you found %s", node.Title),
		Node:         &node,
		Points:       points,
		Remaining:    remaining,
		GameComplete: complete,
	}, nil
}
