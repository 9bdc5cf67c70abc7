package server

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/huntworks/qrhunt/internal/hunt"
)

// SQLiteStore implements hunt.Store plus the session, admin, and CRUD
// queries the handlers need.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// parseTime decodes the strftime('%Y-%m-%dT%H:%M:%fZ') strings the schema
// stores. Malformed values decode to the zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- hunt.Store ---

func (s *SQLiteStore) GameByID(ctx context.Context, id string) (hunt.Game, error) {
	var g hunt.Game
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, status, ranking_mode, time_bonus_enabled, time_bonus_multiplier, random_mode
		FROM games WHERE id = ?
	`, id).Scan(&g.ID, &g.Name, &g.Status, &g.RankingMode, &g.TimeBonusEnabled, &g.TimeBonusMultiplier, &g.RandomMode)
	if errors.Is(err, sql.ErrNoRows) {
		return g, hunt.ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) TeamByID(ctx context.Context, id string) (hunt.Team, error) {
	var t hunt.Team
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, name, join_code, COALESCE(start_node_id, ''), COALESCE(current_clue_id, '')
		FROM teams WHERE id = ?
	`, id).Scan(&t.ID, &t.GameID, &t.Name, &t.JoinCode, &t.StartNodeID, &t.CurrentClueID)
	if errors.Is(err, sql.ErrNoRows) {
		return t, hunt.ErrNotFound
	}
	return t, err
}

const nodeColumns = `id, game_id, title, scan_key, points, is_start, is_end, activated,
	COALESCE(password_hash, ''), COALESCE(hint, '')`

func scanNode(row interface{ Scan(...any) error }) (hunt.Node, error) {
	var n hunt.Node
	err := row.Scan(&n.ID, &n.GameID, &n.Title, &n.ScanKey, &n.Points,
		&n.IsStart, &n.IsEnd, &n.Activated, &n.PasswordHash, &n.Hint)
	return n, err
}

func (s *SQLiteStore) NodeByID(ctx context.Context, id string) (hunt.Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return n, hunt.ErrNotFound
	}
	return n, err
}

func (s *SQLiteStore) NodeByScanKey(ctx context.Context, gameID, scanKey string) (hunt.Node, error) {
	n, err := scanNode(s.db.QueryRowContext(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE game_id = ? AND scan_key = ?`, gameID, scanKey))
	if errors.Is(err, sql.ErrNoRows) {
		return n, hunt.ErrNotFound
	}
	return n, err
}

func (s *SQLiteStore) queryNodes(ctx context.Context, query string, args ...any) ([]hunt.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []hunt.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *SQLiteStore) NodesByGame(ctx context.Context, gameID string) ([]hunt.Node, error) {
	return s.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE game_id = ? ORDER BY created_at`, gameID)
}

func (s *SQLiteStore) ActivatedNodes(ctx context.Context, gameID string) ([]hunt.Node, error) {
	return s.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE game_id = ? AND activated = 1 ORDER BY created_at`, gameID)
}

func (s *SQLiteStore) StartNodes(ctx context.Context, gameID string) ([]hunt.Node, error) {
	return s.queryNodes(ctx,
		`SELECT `+nodeColumns+` FROM nodes WHERE game_id = ? AND is_start = 1 ORDER BY created_at`, gameID)
}

func (s *SQLiteStore) EdgesByGame(ctx context.Context, gameID string) ([]hunt.Edge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, game_id, from_node_id, to_node_id FROM edges WHERE game_id = ?
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var edges []hunt.Edge
	for rows.Next() {
		var e hunt.Edge
		if err := rows.Scan(&e.ID, &e.GameID, &e.FromNodeID, &e.ToNodeID); err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (s *SQLiteStore) queryScans(ctx context.Context, query string, args ...any) ([]hunt.Scan, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []hunt.Scan
	for rows.Next() {
		var sc hunt.Scan
		var createdAt string
		if err := rows.Scan(&sc.ID, &sc.TeamID, &sc.NodeID, &sc.Points, &sc.ClientIP, &sc.UserAgent, &createdAt); err != nil {
			return nil, err
		}
		sc.CreatedAt = parseTime(createdAt)
		scans = append(scans, sc)
	}
	return scans, rows.Err()
}

func (s *SQLiteStore) ScansByTeam(ctx context.Context, teamID string) ([]hunt.Scan, error) {
	return s.queryScans(ctx, `
		SELECT id, team_id, node_id, points, COALESCE(client_ip, ''), COALESCE(user_agent, ''), created_at
		FROM scans WHERE team_id = ? ORDER BY created_at, rowid
	`, teamID)
}

func (s *SQLiteStore) ScansByGame(ctx context.Context, gameID string) ([]hunt.Scan, error) {
	return s.queryScans(ctx, `
		SELECT s.id, s.team_id, s.node_id, s.points, COALESCE(s.client_ip, ''), COALESCE(s.user_agent, ''), s.created_at
		FROM scans s
		JOIN teams t ON t.id = s.team_id
		WHERE t.game_id = ? ORDER BY s.created_at, s.rowid
	`, gameID)
}

// AppendScan records a scan. The duplicate check and the insert run in one
// transaction so concurrent requests for the same (team, node) cannot both
// commit.
func (s *SQLiteStore) AppendScan(ctx context.Context, scan hunt.Scan) (hunt.Scan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hunt.Scan{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM scans WHERE team_id = ? AND node_id = ?
	`, scan.TeamID, scan.NodeID).Scan(&exists)
	if err == nil {
		return hunt.Scan{}, hunt.ErrDuplicateScan
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return hunt.Scan{}, err
	}

	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO scans (team_id, node_id, points, client_ip, user_agent)
		VALUES (?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		RETURNING id, created_at
	`, scan.TeamID, scan.NodeID, scan.Points, scan.ClientIP, scan.UserAgent).Scan(&scan.ID, &createdAt)
	if err != nil {
		return hunt.Scan{}, err
	}
	scan.CreatedAt = parseTime(createdAt)

	if err := tx.Commit(); err != nil {
		return hunt.Scan{}, err
	}
	return scan, nil
}

func (s *SQLiteStore) SetCurrentClue(ctx context.Context, teamID, nodeID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE teams SET current_clue_id = NULLIF(?, '') WHERE id = ?
	`, nodeID, teamID)
	return err
}

func (s *SQLiteStore) HintUsages(ctx context.Context, teamID string) ([]hunt.HintUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, node_id, points_deducted, created_at
		FROM hint_usages WHERE team_id = ? ORDER BY created_at
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []hunt.HintUsage
	for rows.Next() {
		var h hunt.HintUsage
		var createdAt string
		if err := rows.Scan(&h.TeamID, &h.NodeID, &h.PointsDeducted, &createdAt); err != nil {
			return nil, err
		}
		h.CreatedAt = parseTime(createdAt)
		usages = append(usages, h)
	}
	return usages, rows.Err()
}

func (s *SQLiteStore) RecordHintUsage(ctx context.Context, usage hunt.HintUsage) (hunt.HintUsage, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hunt.HintUsage{}, false, err
	}
	defer tx.Rollback()

	var existing hunt.HintUsage
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		SELECT team_id, node_id, points_deducted, created_at
		FROM hint_usages WHERE team_id = ? AND node_id = ?
	`, usage.TeamID, usage.NodeID).Scan(&existing.TeamID, &existing.NodeID, &existing.PointsDeducted, &createdAt)
	if err == nil {
		existing.CreatedAt = parseTime(createdAt)
		return existing, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return hunt.HintUsage{}, false, err
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO hint_usages (team_id, node_id, points_deducted)
		VALUES (?, ?, ?)
		RETURNING created_at
	`, usage.TeamID, usage.NodeID, usage.PointsDeducted).Scan(&createdAt)
	if err != nil {
		return hunt.HintUsage{}, false, err
	}
	usage.CreatedAt = parseTime(createdAt)

	if err := tx.Commit(); err != nil {
		return hunt.HintUsage{}, false, err
	}
	return usage, false, nil
}

// TeamAggregates is the bulk leaderboard query: one row per team, including
// teams with zero scans. nodesFound counts scans on currently activated
// nodes so mid-game activation changes are reflected immediately.
func (s *SQLiteStore) TeamAggregates(ctx context.Context, gameID string) ([]hunt.TeamAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, COALESCE(t.start_node_id, ''), COALESCE(t.current_clue_id, ''),
			(SELECT COUNT(*) FROM scans s JOIN nodes n ON n.id = s.node_id AND n.activated = 1
				WHERE s.team_id = t.id),
			COALESCE((SELECT SUM(s.points) FROM scans s WHERE s.team_id = t.id), 0),
			COALESCE((SELECT SUM(h.points_deducted) FROM hint_usages h WHERE h.team_id = t.id), 0),
			COALESCE((SELECT s.created_at FROM scans s WHERE s.team_id = t.id
				ORDER BY s.created_at DESC, s.rowid DESC LIMIT 1), ''),
			COALESCE((SELECT s.node_id FROM scans s WHERE s.team_id = t.id
				ORDER BY s.created_at DESC, s.rowid DESC LIMIT 1), '')
		FROM teams t
		WHERE t.game_id = ?
		ORDER BY t.created_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aggs []hunt.TeamAggregate
	for rows.Next() {
		var a hunt.TeamAggregate
		var lastScanAt string
		if err := rows.Scan(&a.TeamID, &a.TeamName, &a.StartNodeID, &a.CurrentClueID,
			&a.NodesFound, &a.RawPoints, &a.HintDeductions, &lastScanAt, &a.LastNodeID); err != nil {
			return nil, err
		}
		a.LastScanAt = parseTime(lastScanAt)
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}

// --- player sessions ---

func (s *SQLiteStore) PlayerFromToken(ctx context.Context, token string) (playerSession, error) {
	var sess playerSession
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.team_id, t.game_id
		FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE p.session_id = ?
	`, token).Scan(&sess.PlayerID, &sess.PlayerName, &sess.TeamID, &sess.GameID)
	if errors.Is(err, sql.ErrNoRows) {
		return sess, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) TeamLookup(ctx context.Context, joinCode string) (TeamLookupResponse, error) {
	var resp TeamLookupResponse
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.game_id, g.name, g.status
		FROM teams t
		JOIN games g ON g.id = t.game_id
		WHERE t.join_code = ? AND g.status != 'ended'
	`, joinCode).Scan(&resp.ID, &resp.Name, &resp.GameID, &resp.GameName, &resp.GameStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return resp, hunt.ErrNotFound
	}
	return resp, err
}

func (s *SQLiteStore) JoinTeam(ctx context.Context, teamID, playerName string) (playerID, sessionID string, err error) {
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO players (team_id, name)
		VALUES (?, ?)
		RETURNING id, session_id
	`, teamID, playerName).Scan(&playerID, &sessionID)
	return playerID, sessionID, err
}

// --- admin accounts ---

func (s *SQLiteStore) AdminByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT id, password_hash FROM admins WHERE email = ?
	`, email).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", hunt.ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (email, password_hash) VALUES (?, ?)
		ON CONFLICT (email) DO NOTHING
	`, email, passwordHash)
	return err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&sessionID)
	return sessionID, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}
