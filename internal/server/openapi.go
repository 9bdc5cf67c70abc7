package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/huntworks/qrhunt/internal/hunt"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "QRHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the QRHunt scavenger hunt.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/teams/{joinCode}
	getTeam, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{joinCode}")
	getTeam.SetSummary("Look up team")
	getTeam.SetDescription("Look up a team by its join code before joining.")
	getTeam.AddRespStructure(TeamLookupResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTeam)

	// POST /api/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/join")
	postJoin.SetSummary("Join a team")
	postJoin.SetDescription("Player joins a team using the join code. Returns a session token.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postJoin)

	// POST /api/game/scan
	postScan, _ := r.NewOperationContext(http.MethodPost, "/api/game/scan")
	postScan.SetSummary("Record a scan")
	postScan.SetDescription("Submit a scanned checkpoint code. Requires Bearer token. Rejections carry a machine-readable status.")
	postScan.AddReqStructure(ScanRequest{})
	postScan.AddRespStructure(ScanResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postScan.AddRespStructure(ScanResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postScan.AddRespStructure(ScanResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postScan.AddRespStructure(ScanResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postScan.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postScan)

	// GET /api/game/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/game/progress")
	getProgress.SetSummary("Team progress")
	getProgress.SetDescription("Returns the team's scan history, totals, and next clue. Requires Bearer token.")
	getProgress.AddRespStructure(hunt.TeamProgress{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProgress)

	// POST /api/game/hint
	postHint, _ := r.NewOperationContext(http.MethodPost, "/api/game/hint")
	postHint.SetSummary("Reveal a hint")
	postHint.SetDescription("Reveals a checkpoint's hint for half its points. Idempotent per team and checkpoint. Requires Bearer token.")
	postHint.AddReqStructure(HintRequest{})
	postHint.AddRespStructure(hunt.HintResult{}, openapi.WithHTTPStatus(http.StatusOK))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postHint)

	// POST /api/game/chat
	postChat, _ := r.NewOperationContext(http.MethodPost, "/api/game/chat")
	postChat.SetSummary("Send a chat message")
	postChat.SetDescription("Broadcasts a message to the game's event stream. Requires Bearer token.")
	postChat.AddReqStructure(ChatRequest{})
	postChat.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postChat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postChat.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postChat)

	// GET /api/games/{gameID}/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/leaderboard")
	getLeaderboard.SetSummary("Leaderboard")
	getLeaderboard.SetDescription("Returns the ranked leaderboard snapshot. Public; served from a short-lived cache.")
	getLeaderboard.AddRespStructure(hunt.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of leaderboard, scan, chat, and status events for a game. Public.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// GET /ws/games/{gameID}/leaderboard
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws/games/{gameID}/leaderboard")
	getWS.SetSummary("WebSocket leaderboard feed")
	getWS.SetDescription("Upgrades to a WebSocket that pushes leaderboard snapshots, starting with the current one.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.SetDescription("Clears admin session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current admin")
	getMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// GET /api/admin/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Returns all games with team and node counts. Requires admin_session cookie.")
	listGames.AddRespStructure([]AdminGameSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	listGames.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(listGames)

	// POST /api/admin/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games")
	createGame.SetSummary("Create game")
	createGame.SetDescription("Creates a new game in setup status. Requires admin_session cookie.")
	createGame.AddReqStructure(AdminGameRequest{})
	createGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(createGame)

	// GET /api/admin/games/{gameID}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games/{gameID}")
	getGame.SetSummary("Get game")
	getGame.SetDescription("Returns a game with its teams and nodes. Requires admin_session cookie.")
	getGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getGame)

	// PUT /api/admin/games/{gameID}
	updateGame, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}")
	updateGame.SetSummary("Update game")
	updateGame.SetDescription("Updates a game's name, ranking mode, and bonus settings. Requires admin_session cookie.")
	updateGame.AddReqStructure(AdminGameRequest{})
	updateGame.AddRespStructure(AdminGameDetail{}, openapi.WithHTTPStatus(http.StatusOK))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateGame)

	// PUT /api/admin/games/{gameID}/status
	updateStatus, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}/status")
	updateStatus.SetSummary("Change game status")
	updateStatus.SetDescription("Moves a game between setup, active, and ended, broadcasting the change. Requires admin_session cookie.")
	updateStatus.AddReqStructure(AdminGameStatusRequest{})
	updateStatus.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateStatus)

	// DELETE /api/admin/games/{gameID}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/games/{gameID}")
	deleteGame.SetSummary("Delete game")
	deleteGame.SetDescription("Deletes a game. Blocked once teams have players or scans. Requires admin_session cookie.")
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// GET /api/admin/games/{gameID}/nodes
	listNodes, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games/{gameID}/nodes")
	listNodes.SetSummary("List nodes")
	listNodes.SetDescription("Returns a game's checkpoints with scan counts. Requires admin_session cookie.")
	listNodes.AddRespStructure([]AdminNodeItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listNodes)

	// POST /api/admin/games/{gameID}/nodes
	createNode, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games/{gameID}/nodes")
	createNode.SetSummary("Create node")
	createNode.SetDescription("Creates a checkpoint. The scan key is generated server-side. Requires admin_session cookie.")
	createNode.AddReqStructure(AdminNodeRequest{})
	createNode.AddRespStructure(AdminNodeItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createNode)

	// PUT /api/admin/games/{gameID}/nodes/{nodeID}
	updateNode, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}/nodes/{nodeID}")
	updateNode.SetSummary("Update node")
	updateNode.SetDescription("Updates a checkpoint. Point changes are blocked once the node has scans. Requires admin_session cookie.")
	updateNode.AddReqStructure(AdminNodeRequest{})
	updateNode.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	updateNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateNode)

	// PUT /api/admin/games/{gameID}/nodes/{nodeID}/activate
	activateNode, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}/nodes/{nodeID}/activate")
	activateNode.SetSummary("Toggle node activation")
	activateNode.SetDescription("Activates or deactivates a checkpoint mid-game, recomputing the leaderboard. Requires admin_session cookie.")
	activateNode.AddReqStructure(AdminActivateRequest{})
	activateNode.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	activateNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(activateNode)

	// DELETE /api/admin/games/{gameID}/nodes/{nodeID}
	deleteNode, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/games/{gameID}/nodes/{nodeID}")
	deleteNode.SetSummary("Delete node")
	deleteNode.SetDescription("Deletes a checkpoint. Blocked once it has scans. Requires admin_session cookie.")
	deleteNode.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteNode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteNode)

	// GET /api/admin/games/{gameID}/edges
	listEdges, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games/{gameID}/edges")
	listEdges.SetSummary("List edges")
	listEdges.SetDescription("Returns the advisory clue edges of a game. Requires admin_session cookie.")
	listEdges.AddRespStructure([]AdminEdgeItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listEdges)

	// POST /api/admin/games/{gameID}/edges
	createEdge, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games/{gameID}/edges")
	createEdge.SetSummary("Create edge")
	createEdge.SetDescription("Links two checkpoints for clue ordering. Edges never gate scans. Requires admin_session cookie.")
	createEdge.AddReqStructure(AdminEdgeRequest{})
	createEdge.AddRespStructure(AdminEdgeItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createEdge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createEdge)

	// DELETE /api/admin/games/{gameID}/edges/{edgeID}
	deleteEdge, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/games/{gameID}/edges/{edgeID}")
	deleteEdge.SetSummary("Delete edge")
	deleteEdge.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteEdge.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteEdge)

	// GET /api/admin/games/{gameID}/teams
	listTeams, _ := r.NewOperationContext(http.MethodGet, "/api/admin/games/{gameID}/teams")
	listTeams.SetSummary("List teams")
	listTeams.SetDescription("Returns teams for a game with player and scan counts. Requires admin_session cookie.")
	listTeams.AddRespStructure([]AdminTeamItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listTeams)

	// POST /api/admin/games/{gameID}/teams
	createTeam, _ := r.NewOperationContext(http.MethodPost, "/api/admin/games/{gameID}/teams")
	createTeam.SetSummary("Create team")
	createTeam.SetDescription("Creates a team. Auto-generates a join code if blank. Requires admin_session cookie.")
	createTeam.AddReqStructure(AdminTeamRequest{})
	createTeam.AddRespStructure(AdminTeamItem{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createTeam)

	// PUT /api/admin/games/{gameID}/teams/{teamID}
	updateTeam, _ := r.NewOperationContext(http.MethodPut, "/api/admin/games/{gameID}/teams/{teamID}")
	updateTeam.SetSummary("Update team")
	updateTeam.AddReqStructure(AdminTeamRequest{})
	updateTeam.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	updateTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateTeam)

	// DELETE /api/admin/games/{gameID}/teams/{teamID}
	deleteTeamOp, _ := r.NewOperationContext(http.MethodDelete, "/api/admin/games/{gameID}/teams/{teamID}")
	deleteTeamOp.SetSummary("Delete team")
	deleteTeamOp.SetDescription("Deletes a team. Blocked once it has scans. Requires admin_session cookie.")
	deleteTeamOp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	deleteTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTeamOp)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
