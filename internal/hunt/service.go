package hunt

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

const cacheTTL = 5 * time.Second

// ErrNoHint is returned when a hint is requested for a node without one.
var ErrNoHint = errors.New("node has no hint")

// Service is the game core: scan state machine, points calculator, ranking
// engine with its cache, and event publication. Handlers own the transport;
// everything here is transport-agnostic.
type Service struct {
	store  Store
	broker *Broker
	cache  *Cache
	logger *slog.Logger

	now     func() time.Time
	randInt func(n int) int
}

func NewService(store Store, broker *Broker, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		broker:  broker,
		cache:   NewCache(cacheTTL),
		logger:  logger,
		now:     time.Now,
		randInt: rand.IntN,
	}
}

// ScanEvent is the toast-style notice published on every accepted scan.
type ScanEvent struct {
	TeamID       string    `json:"teamId"`
	TeamName     string    `json:"teamName"`
	NodeTitle    string    `json:"nodeTitle"`
	Points       int       `json:"points"`
	ScannedAt    time.Time `json:"scannedAt"`
	GameComplete bool      `json:"gameComplete,omitempty"`
}

type ChatEvent struct {
	TeamName   string    `json:"teamName"`
	PlayerName string    `json:"playerName"`
	Message    string    `json:"message"`
	SentAt     time.Time `json:"sentAt"`
}

type GameStatusEvent struct {
	GameID string `json:"gameId"`
	Status string `json:"status"`
}

// afterScan runs the mandatory postconditions of an accepted scan: cache
// invalidation, the scan notice, and a fresh leaderboard push.
func (s *Service) afterScan(ctx context.Context, gameID string, team Team, node Node, scan Scan, complete bool) {
	s.cache.Invalidate(gameID)

	s.broker.Publish(gameID, EventScan, ScanEvent{
		TeamID:       team.ID,
		TeamName:     team.Name,
		NodeTitle:    node.Title,
		Points:       scan.Points,
		ScannedAt:    scan.CreatedAt,
		GameComplete: complete,
	})

	s.PublishLeaderboard(ctx, gameID)
}

// PublishLeaderboard recomputes the leaderboard and pushes it to all
// subscribers of the game. Failures are logged, not propagated: a missed
// push only delays viewers until the next event.
func (s *Service) PublishLeaderboard(ctx context.Context, gameID string) {
	snapshot, err := s.Leaderboard(ctx, gameID)
	if err != nil {
		s.logger.Error("leaderboard push failed", "game", gameID, "error", err)
		return
	}
	s.broker.Publish(gameID, EventLeaderboard, snapshot)
}

// PublishChat fans a chat message out to the game's subscribers.
func (s *Service) PublishChat(gameID string, event ChatEvent) {
	if event.SentAt.IsZero() {
		event.SentAt = s.now()
	}
	s.broker.Publish(gameID, EventChat, event)
}

// PublishGameStatus announces a game status change (and drops the cached
// leaderboard, since activation and finish states depend on it).
func (s *Service) PublishGameStatus(ctx context.Context, gameID, status string) {
	s.cache.Invalidate(gameID)
	s.broker.Publish(gameID, EventGameStatus, GameStatusEvent{GameID: gameID, Status: status})
}

// Leaderboard returns the ranked snapshot for a game, served from the cache
// within its TTL. When recomputation fails, the last cached snapshot is
// served instead: staleness beats an outage.
func (s *Service) Leaderboard(ctx context.Context, gameID string) (Snapshot, error) {
	now := s.now()
	if snapshot, ok := s.cache.Get(gameID, now); ok {
		return snapshot, nil
	}

	snapshot, err := s.computeLeaderboard(ctx, gameID)
	if err != nil {
		if stale, ok := s.cache.Stale(gameID); ok {
			s.logger.Warn("serving stale leaderboard", "game", gameID, "error", err)
			return stale, nil
		}
		return Snapshot{}, err
	}

	s.cache.Put(gameID, snapshot, now)
	return snapshot, nil
}

// InvalidateLeaderboard forces the next read to recompute.
func (s *Service) InvalidateLeaderboard(gameID string) {
	s.cache.Invalidate(gameID)
}

func (s *Service) computeLeaderboard(ctx context.Context, gameID string) (Snapshot, error) {
	game, err := s.store.GameByID(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	aggs, err := s.store.TeamAggregates(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	nodes, err := s.store.NodesByGame(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	edges, err := s.store.EdgesByGame(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}
	scans, err := s.store.ScansByGame(ctx, gameID)
	if err != nil {
		return Snapshot{}, err
	}

	scanned := make(map[string]map[string]bool)
	for _, sc := range scans {
		if scanned[sc.TeamID] == nil {
			scanned[sc.TeamID] = make(map[string]bool)
		}
		scanned[sc.TeamID][sc.NodeID] = true
	}

	return Snapshot{
		GameID:    gameID,
		Entries:   buildLeaderboard(game, aggs, nodes, edges, scanned),
		UpdatedAt: s.now(),
	}, nil
}

// HintResult carries the hint text and its fixed cost. AlreadyUsed means the
// team had revealed it before; nothing extra is deducted then.
type HintResult struct {
	NodeID         string `json:"nodeId"`
	NodeTitle      string `json:"nodeTitle"`
	Hint           string `json:"hint"`
	PointsDeducted int    `json:"pointsDeducted"`
	AlreadyUsed    bool   `json:"alreadyUsed"`
}

// RequestHint reveals a node's hint for floor(points/2). Idempotent: a
// repeat request returns the original deduction without charging again.
func (s *Service) RequestHint(ctx context.Context, teamID, nodeID string) (HintResult, error) {
	team, err := s.store.TeamByID(ctx, teamID)
	if err != nil {
		return HintResult{}, err
	}
	node, err := s.store.NodeByID(ctx, nodeID)
	if err != nil {
		return HintResult{}, err
	}
	if node.GameID != team.GameID {
		return HintResult{}, ErrNotFound
	}
	if node.Hint == "" {
		return HintResult{}, ErrNoHint
	}

	usage, alreadyUsed, err := s.store.RecordHintUsage(ctx, HintUsage{
		TeamID:         teamID,
		NodeID:         nodeID,
		PointsDeducted: hintDeduction(node),
	})
	if err != nil {
		return HintResult{}, err
	}

	if !alreadyUsed {
		// The deduction changes adjusted points, so the next leaderboard
		// read must recompute.
		s.cache.Invalidate(team.GameID)
		s.PublishLeaderboard(ctx, team.GameID)
	}

	return HintResult{
		NodeID:         node.ID,
		NodeTitle:      node.Title,
		Hint:           node.Hint,
		PointsDeducted: usage.PointsDeducted,
		AlreadyUsed:    alreadyUsed,
	}, nil
}
