package hunt

import (
	"sort"
	"time"
)

// LeaderboardEntry is a derived row; it is never persisted, only cached
// transiently in the snapshot cache.
type LeaderboardEntry struct {
	Rank             int        `json:"rank"`
	TeamID           string     `json:"teamId"`
	TeamName         string     `json:"teamName"`
	NodesFound       int        `json:"nodesFound"`
	TotalPoints      int        `json:"totalPoints"`
	IsFinished       bool       `json:"isFinished"`
	CurrentClueTitle string     `json:"currentClueTitle,omitempty"`
	LastScanAt       *time.Time `json:"lastScanAt,omitempty"`
}

// Snapshot is a computed leaderboard plus the time it was computed.
type Snapshot struct {
	GameID    string             `json:"gameId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// buildLeaderboard derives the ordered leaderboard from per-team aggregates.
// Finished teams always precede unfinished teams; within each partition the
// ranking mode decides order, with ties broken by earlier last scan. Ranks
// are dense and fully determined by the tie-break.
func buildLeaderboard(game Game, aggs []TeamAggregate, nodes []Node, edges []Edge, scanned map[string]map[string]bool) []LeaderboardEntry {
	nodeByID := make(map[string]Node, len(nodes))
	var activated []Node
	for _, n := range nodes {
		nodeByID[n.ID] = n
		if n.Activated {
			activated = append(activated, n)
		}
	}

	entries := make([]LeaderboardEntry, 0, len(aggs))
	for _, a := range aggs {
		teamScanned := scanned[a.TeamID]

		// Finished means every activated node found, end point included.
		// Order does not matter: scanning the end mid-hunt still counts.
		finished := len(activated) > 0 && a.NodesFound == len(activated)
		if finished {
			finished = false
			for _, n := range nodes {
				if n.IsEnd && teamScanned[n.ID] {
					finished = true
					break
				}
			}
		}

		e := LeaderboardEntry{
			TeamID:      a.TeamID,
			TeamName:    a.TeamName,
			NodesFound:  a.NodesFound,
			TotalPoints: a.AdjustedPoints(),
			IsFinished:  finished,
		}
		if !a.LastScanAt.IsZero() {
			t := a.LastScanAt
			e.LastScanAt = &t
		}
		if !finished {
			if clue, ok := currentClueNode(game, a, activated, edges, teamScanned, nodeByID); ok {
				e.CurrentClueTitle = clue.Title
			}
		}
		entries = append(entries, e)
	}

	less := entryLess(game.RankingMode)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.IsFinished != b.IsFinished {
			return a.IsFinished
		}
		return less(a, b)
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func entryLess(mode RankingMode) func(a, b LeaderboardEntry) bool {
	byTime := func(a, b LeaderboardEntry) bool {
		// Earlier last scan ranks higher; teams without scans sort last.
		switch {
		case a.LastScanAt == nil:
			return false
		case b.LastScanAt == nil:
			return true
		default:
			return a.LastScanAt.Before(*b.LastScanAt)
		}
	}

	switch mode {
	case RankByNodes:
		return func(a, b LeaderboardEntry) bool {
			if a.NodesFound != b.NodesFound {
				return a.NodesFound > b.NodesFound
			}
			return byTime(a, b)
		}
	case RankByTime:
		return byTime
	default: // RankByPoints
		return func(a, b LeaderboardEntry) bool {
			if a.TotalPoints != b.TotalPoints {
				return a.TotalPoints > b.TotalPoints
			}
			return byTime(a, b)
		}
	}
}

// currentClueNode picks the node an unfinished team should head to next.
// Edges are advisory: the first outgoing edge from the last scanned node to
// an unscanned activated node wins, then the first remaining activated
// node. A team with no scans is pointed at its assigned or implicit start.
func currentClueNode(game Game, a TeamAggregate, activated []Node, edges []Edge, teamScanned map[string]bool, nodeByID map[string]Node) (Node, bool) {
	unscanned := func(id string) bool { return !teamScanned[id] }

	if game.RandomMode && a.CurrentClueID != "" {
		if n, ok := nodeByID[a.CurrentClueID]; ok && n.Activated && unscanned(n.ID) {
			return n, true
		}
	}

	if a.LastScanAt.IsZero() {
		if a.StartNodeID != "" {
			if n, ok := nodeByID[a.StartNodeID]; ok {
				return n, true
			}
		}
		for _, n := range activated {
			if n.IsStart {
				return n, true
			}
		}
		return Node{}, false
	}

	for _, e := range edges {
		if e.FromNodeID != a.LastNodeID {
			continue
		}
		if n, ok := nodeByID[e.ToNodeID]; ok && n.Activated && unscanned(n.ID) {
			return n, true
		}
	}
	for _, n := range activated {
		if unscanned(n.ID) {
			return n, true
		}
	}
	return Node{}, false
}
