package server

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/huntworks/qrhunt/internal/hunt"
)

// EnsureAdmin creates the configured admin account if it does not exist.
func EnsureAdmin(ctx context.Context, store *SQLiteStore, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return store.CreateAdmin(ctx, email, string(hash))
}

// SeedDemo creates a ready-to-play demo hunt. Idempotent: does nothing if
// any game already exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store *SQLiteStore) error {
	existing, err := store.ListGames(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	gameID, err := store.CreateGame(ctx, AdminGameRequest{
		Name:                "Demo Hunt",
		RankingMode:         string(hunt.RankByPoints),
		TimeBonusEnabled:    true,
		TimeBonusMultiplier: 1.5,
	})
	if err != nil {
		return err
	}

	nodes := []AdminNodeRequest{
		{Title: "Old Town Gate", Points: 100, IsStart: true, Activated: true},
		{Title: "Clock Tower", Points: 150, Activated: true, Hint: "Look up when the bells ring."},
		{Title: "Harbor Steps", Points: 200, IsEnd: true, Activated: true},
	}
	ids := make([]string, 0, len(nodes))
	for _, req := range nodes {
		node, err := store.CreateNode(ctx, gameID, req, "")
		if err != nil {
			return err
		}
		ids = append(ids, node.ID)
	}
	for i := 0; i+1 < len(ids); i++ {
		if _, err := store.CreateEdge(ctx, gameID, AdminEdgeRequest{
			FromNodeID: ids[i],
			ToNodeID:   ids[i+1],
		}); err != nil {
			return err
		}
	}

	if _, err := store.CreateTeam(ctx, gameID, AdminTeamRequest{
		Name:     "Foxes",
		JoinCode: "demo",
	}); err != nil {
		return err
	}

	if err := store.UpdateGameStatus(ctx, gameID, hunt.StatusActive); err != nil {
		return err
	}

	logger.Info("demo hunt seeded", "game", gameID)
	return nil
}
