package hunt

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicateScan is returned by AppendScan when the (team, node) pair
	// already exists in the ledger. The check runs inside the append
	// transaction so two concurrent scans cannot both record the same node.
	ErrDuplicateScan = errors.New("node already scanned by team")
)

// TeamAggregate is one row of the bulk leaderboard query: per-team totals
// derived from the scan ledger and hint usages in a single pass.
type TeamAggregate struct {
	TeamID         string
	TeamName       string
	StartNodeID    string
	CurrentClueID  string
	NodesFound     int // scans on currently activated nodes
	RawPoints      int
	HintDeductions int
	LastScanAt     time.Time // zero if the team has not scanned
	LastNodeID     string    // node of the chronologically last scan
}

// AdjustedPoints is the raw ledger sum minus hint deductions. This, not the
// raw sum, is what ranking and progress views display.
func (a TeamAggregate) AdjustedPoints() int {
	return a.RawPoints - a.HintDeductions
}

// Store is the persistence contract the core depends on. The graph side
// (games, nodes, edges, teams) is read-only here; the scan ledger and hint
// usages are append-only.
type Store interface {
	GameByID(ctx context.Context, id string) (Game, error)
	TeamByID(ctx context.Context, id string) (Team, error)
	NodeByID(ctx context.Context, id string) (Node, error)
	NodeByScanKey(ctx context.Context, gameID, scanKey string) (Node, error)

	NodesByGame(ctx context.Context, gameID string) ([]Node, error)
	ActivatedNodes(ctx context.Context, gameID string) ([]Node, error)
	StartNodes(ctx context.Context, gameID string) ([]Node, error)
	EdgesByGame(ctx context.Context, gameID string) ([]Edge, error)

	ScansByTeam(ctx context.Context, teamID string) ([]Scan, error)
	ScansByGame(ctx context.Context, gameID string) ([]Scan, error)
	AppendScan(ctx context.Context, scan Scan) (Scan, error)
	SetCurrentClue(ctx context.Context, teamID, nodeID string) error

	HintUsages(ctx context.Context, teamID string) ([]HintUsage, error)
	// RecordHintUsage creates the usage on first request and returns the
	// existing row with alreadyUsed=true thereafter.
	RecordHintUsage(ctx context.Context, usage HintUsage) (HintUsage, bool, error)

	TeamAggregates(ctx context.Context, gameID string) ([]TeamAggregate, error)
}
