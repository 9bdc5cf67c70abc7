package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"

	"github.com/huntworks/qrhunt/internal/hunt"
)

func addRoutes(r chi.Router, logger *slog.Logger, store *SQLiteStore, svc *hunt.Service, broker *hunt.Broker, db *sql.DB, rdb *redis.Client, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("QRHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	// Player routes — Bearer session token from /api/join.
	r.Get("/api/teams/{joinCode}", handleTeamLookup(store))
	r.Post("/api/join", handleJoin(store, svc))
	r.Post("/api/game/scan", handleScan(store, svc))
	r.Get("/api/game/progress", handleProgress(store, svc))
	r.Post("/api/game/hint", handleHint(store, svc))
	r.Post("/api/game/chat", handleChat(store, svc))

	// Public spectator routes — no auth, read-only.
	r.Get("/api/games/{gameID}/leaderboard", handleLeaderboard(store, svc))
	r.Get("/api/games/{gameID}/events", handleEvents(store, broker))
	r.Get("/ws/games/{gameID}/leaderboard", handleWSLeaderboard(logger, store, svc, broker))

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(store))
	r.Post("/api/admin/logout", handleAdminLogout(store))
	r.Get("/api/admin/me", handleAdminMe(store))

	// Admin CRUD — cookie session required.
	r.Route("/api/admin/games", func(r chi.Router) {
		r.Use(adminAuthMiddleware(store))

		r.Get("/", handleAdminListGames(store))
		r.Post("/", handleAdminCreateGame(store))
		r.Get("/{gameID}", handleAdminGetGame(store))
		r.Put("/{gameID}", handleAdminUpdateGame(store, svc))
		r.Delete("/{gameID}", handleAdminDeleteGame(store))
		r.Put("/{gameID}/status", handleAdminGameStatus(store, svc))

		r.Get("/{gameID}/nodes", handleAdminListNodes(store))
		r.Post("/{gameID}/nodes", handleAdminCreateNode(store))
		r.Put("/{gameID}/nodes/{nodeID}", handleAdminUpdateNode(store, svc))
		r.Put("/{gameID}/nodes/{nodeID}/activate", handleAdminActivateNode(store, svc))
		r.Delete("/{gameID}/nodes/{nodeID}", handleAdminDeleteNode(store, svc))

		r.Get("/{gameID}/edges", handleAdminListEdges(store))
		r.Post("/{gameID}/edges", handleAdminCreateEdge(store))
		r.Delete("/{gameID}/edges/{edgeID}", handleAdminDeleteEdge(store))

		r.Get("/{gameID}/teams", handleAdminListTeams(store))
		r.Post("/{gameID}/teams", handleAdminCreateTeam(store))
		r.Put("/{gameID}/teams/{teamID}", handleAdminUpdateTeam(store))
		r.Delete("/{gameID}/teams/{teamID}", handleAdminDeleteTeam(store))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
