package hunt

import (
	"context"
	"time"
)

type ScanRecord struct {
	NodeID    string    `json:"nodeId"`
	NodeTitle string    `json:"nodeTitle"`
	Points    int       `json:"points"`
	ScannedAt time.Time `json:"scannedAt"`
}

// ClueInfo describes the next checkpoint plus hint availability, so the
// client can offer the hint button with its price up front.
type ClueInfo struct {
	NodeID   string `json:"nodeId"`
	Title    string `json:"title"`
	HasHint  bool   `json:"hasHint"`
	HintUsed bool   `json:"hintUsed"`
	HintCost int    `json:"hintCost"`
}

type TeamProgress struct {
	TeamID         string       `json:"teamId"`
	TeamName       string       `json:"teamName"`
	GameID         string       `json:"gameId"`
	GameStatus     string       `json:"gameStatus"`
	CurrentNode    *ScanRecord  `json:"currentNode"`
	NextClue       *ClueInfo    `json:"nextClue"`
	History        []ScanRecord `json:"history"`
	NodesFound     int          `json:"nodesFound"`
	TotalNodes     int          `json:"totalNodes"`
	TotalPoints    int          `json:"totalPoints"`
	HintDeductions int          `json:"hintDeductions"`
	IsFinished     bool         `json:"isFinished"`
}

// Progress assembles the team's view of the hunt: where it is, where to go
// next, everything it has found, and its adjusted totals.
func (s *Service) Progress(ctx context.Context, teamID string) (TeamProgress, error) {
	team, err := s.store.TeamByID(ctx, teamID)
	if err != nil {
		return TeamProgress{}, err
	}
	game, err := s.store.GameByID(ctx, team.GameID)
	if err != nil {
		return TeamProgress{}, err
	}
	nodes, err := s.store.NodesByGame(ctx, game.ID)
	if err != nil {
		return TeamProgress{}, err
	}
	edges, err := s.store.EdgesByGame(ctx, game.ID)
	if err != nil {
		return TeamProgress{}, err
	}
	scans, err := s.store.ScansByTeam(ctx, teamID)
	if err != nil {
		return TeamProgress{}, err
	}
	hints, err := s.store.HintUsages(ctx, teamID)
	if err != nil {
		return TeamProgress{}, err
	}

	nodeByID := make(map[string]Node, len(nodes))
	var activated []Node
	for _, n := range nodes {
		nodeByID[n.ID] = n
		if n.Activated {
			activated = append(activated, n)
		}
	}

	scanned := make(map[string]bool, len(scans))
	history := make([]ScanRecord, 0, len(scans))
	rawPoints, nodesFound := 0, 0
	for _, sc := range scans {
		scanned[sc.NodeID] = true
		rawPoints += sc.Points
		n := nodeByID[sc.NodeID]
		if n.Activated {
			nodesFound++
		}
		history = append(history, ScanRecord{
			NodeID:    sc.NodeID,
			NodeTitle: n.Title,
			Points:    sc.Points,
			ScannedAt: sc.CreatedAt,
		})
	}

	deductions := 0
	hintUsed := make(map[string]bool, len(hints))
	for _, h := range hints {
		deductions += h.PointsDeducted
		hintUsed[h.NodeID] = true
	}

	agg := TeamAggregate{
		TeamID:        team.ID,
		TeamName:      team.Name,
		StartNodeID:   team.StartNodeID,
		CurrentClueID: team.CurrentClueID,
		NodesFound:    nodesFound,
	}
	if len(scans) > 0 {
		last := scans[len(scans)-1]
		agg.LastScanAt = last.CreatedAt
		agg.LastNodeID = last.NodeID
	}

	finished := len(activated) > 0 && nodesFound == len(activated)
	if finished {
		finished = false
		for _, n := range nodes {
			if n.IsEnd && scanned[n.ID] {
				finished = true
				break
			}
		}
	}

	progress := TeamProgress{
		TeamID:         team.ID,
		TeamName:       team.Name,
		GameID:         game.ID,
		GameStatus:     game.Status,
		History:        history,
		NodesFound:     nodesFound,
		TotalNodes:     len(activated),
		TotalPoints:    rawPoints - deductions,
		HintDeductions: deductions,
		IsFinished:     finished,
	}
	if len(history) > 0 {
		progress.CurrentNode = &history[len(history)-1]
	}
	if !finished {
		if next, ok := currentClueNode(game, agg, activated, edges, scanned, nodeByID); ok {
			progress.NextClue = &ClueInfo{
				NodeID:   next.ID,
				Title:    next.Title,
				HasHint:  next.Hint != "",
				HintUsed: hintUsed[next.ID],
				HintCost: hintDeduction(next),
			}
		}
	}
	return progress, nil
}
