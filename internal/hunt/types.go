package hunt

import "time"

// Game statuses.
const (
	StatusSetup  = "setup"
	StatusActive = "active"
	StatusEnded  = "ended"
)

// RankingMode decides how teams are ordered within the finished and
// unfinished partitions of the leaderboard.
type RankingMode string

const (
	RankByPoints RankingMode = "points"
	RankByNodes  RankingMode = "nodes"
	RankByTime   RankingMode = "time"
)

type Game struct {
	ID                  string
	Name                string
	Status              string
	RankingMode         RankingMode
	TimeBonusEnabled    bool
	TimeBonusMultiplier float64
	RandomMode          bool
}

// Node is a scannable checkpoint. Only activated nodes count toward
// completion and the leaderboard.
type Node struct {
	ID           string
	GameID       string
	Title        string
	ScanKey      string
	Points       int
	IsStart      bool
	IsEnd        bool
	Activated    bool
	PasswordHash string // empty means no password required
	Hint         string
}

// Edge is an advisory directed link between two nodes of a game. It is used
// only to pick the next displayed clue, never to gate scan legality.
type Edge struct {
	ID         string
	GameID     string
	FromNodeID string
	ToNodeID   string
}

type Team struct {
	ID            string
	GameID        string
	Name          string
	JoinCode      string
	StartNodeID   string // empty means any start node is legal
	CurrentClueID string // random mode only
}

// Scan is an immutable fact: a team successfully read a node.
type Scan struct {
	ID        string
	TeamID    string
	NodeID    string
	Points    int
	ClientIP  string
	UserAgent string
	CreatedAt time.Time
}

// HintUsage records the one-time deduction for revealing a node's hint.
type HintUsage struct {
	TeamID         string
	NodeID         string
	PointsDeducted int
	CreatedAt      time.Time
}

// ClientMeta is optional request metadata recorded alongside a scan.
type ClientMeta struct {
	IP        string
	UserAgent string
}
