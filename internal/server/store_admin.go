package server

import (
	"context"
	"database/sql"
	"errors"

	"github.com/huntworks/qrhunt/internal/hunt"
)

// Admin CRUD queries. Player-facing reads live in store_sqlite.go.

func (s *SQLiteStore) ListGames(ctx context.Context) ([]AdminGameSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.status, g.ranking_mode,
			(SELECT COUNT(*) FROM teams t WHERE t.game_id = g.id),
			(SELECT COUNT(*) FROM nodes n WHERE n.game_id = g.id),
			g.created_at
		FROM games g
		ORDER BY g.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	games := []AdminGameSummary{}
	for rows.Next() {
		var g AdminGameSummary
		if err := rows.Scan(&g.ID, &g.Name, &g.Status, &g.RankingMode,
			&g.TeamCount, &g.NodeCount, &g.CreatedAt); err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func (s *SQLiteStore) CreateGame(ctx context.Context, req AdminGameRequest) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO games (name, ranking_mode, time_bonus_enabled, time_bonus_multiplier, random_mode)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, req.Name, req.RankingMode, b2i(req.TimeBonusEnabled), req.TimeBonusMultiplier, b2i(req.RandomMode)).Scan(&id)
	return id, err
}

func (s *SQLiteStore) UpdateGame(ctx context.Context, id string, req AdminGameRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE games
		SET name = ?, ranking_mode = ?, time_bonus_enabled = ?, time_bonus_multiplier = ?, random_mode = ?
		WHERE id = ?
	`, req.Name, req.RankingMode, b2i(req.TimeBonusEnabled), req.TimeBonusMultiplier, b2i(req.RandomMode), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) UpdateGameStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE games SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) DeleteGame(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListNodes(ctx context.Context, gameID string) ([]AdminNodeItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.title, n.scan_key, n.points, n.is_start, n.is_end, n.activated,
			n.password_hash IS NOT NULL, COALESCE(n.hint, ''),
			(SELECT COUNT(*) FROM scans s WHERE s.node_id = n.id),
			n.created_at
		FROM nodes n
		WHERE n.game_id = ?
		ORDER BY n.created_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := []AdminNodeItem{}
	for rows.Next() {
		var n AdminNodeItem
		if err := rows.Scan(&n.ID, &n.Title, &n.ScanKey, &n.Points, &n.IsStart, &n.IsEnd,
			&n.Activated, &n.HasPassword, &n.Hint, &n.ScanCount, &n.CreatedAt); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (s *SQLiteStore) CreateNode(ctx context.Context, gameID string, req AdminNodeRequest, passwordHash string) (AdminNodeItem, error) {
	var n AdminNodeItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO nodes (game_id, title, points, is_start, is_end, activated, password_hash, hint)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
		RETURNING id, title, scan_key, points, is_start, is_end, activated,
			password_hash IS NOT NULL, COALESCE(hint, ''), created_at
	`, gameID, req.Title, req.Points, b2i(req.IsStart), b2i(req.IsEnd), b2i(req.Activated),
		passwordHash, req.Hint).Scan(&n.ID, &n.Title, &n.ScanKey, &n.Points, &n.IsStart,
		&n.IsEnd, &n.Activated, &n.HasPassword, &n.Hint, &n.CreatedAt)
	return n, err
}

func (s *SQLiteStore) UpdateNode(ctx context.Context, id string, req AdminNodeRequest, passwordHash string, keepPassword bool) error {
	var res sql.Result
	var err error
	if keepPassword {
		res, err = s.db.ExecContext(ctx, `
			UPDATE nodes
			SET title = ?, points = ?, is_start = ?, is_end = ?, activated = ?, hint = NULLIF(?, '')
			WHERE id = ?
		`, req.Title, req.Points, b2i(req.IsStart), b2i(req.IsEnd), b2i(req.Activated), req.Hint, id)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE nodes
			SET title = ?, points = ?, is_start = ?, is_end = ?, activated = ?,
				password_hash = NULLIF(?, ''), hint = NULLIF(?, '')
			WHERE id = ?
		`, req.Title, req.Points, b2i(req.IsStart), b2i(req.IsEnd), b2i(req.Activated),
			passwordHash, req.Hint, id)
	}
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) SetNodeActivated(ctx context.Context, id string, activated bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE nodes SET activated = ? WHERE id = ?`, b2i(activated), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) NodeHasScans(ctx context.Context, id string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scans WHERE node_id = ? LIMIT 1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) DeleteNode(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nodes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) CreateEdge(ctx context.Context, gameID string, req AdminEdgeRequest) (AdminEdgeItem, error) {
	var e AdminEdgeItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO edges (game_id, from_node_id, to_node_id)
		VALUES (?, ?, ?)
		RETURNING id, from_node_id, to_node_id
	`, gameID, req.FromNodeID, req.ToNodeID).Scan(&e.ID, &e.FromNodeID, &e.ToNodeID)
	return e, err
}

func (s *SQLiteStore) DeleteEdge(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) ListTeams(ctx context.Context, gameID string) ([]AdminTeamItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.join_code, COALESCE(t.start_node_id, ''),
			(SELECT COUNT(*) FROM players p WHERE p.team_id = t.id),
			(SELECT COUNT(*) FROM scans s WHERE s.team_id = t.id),
			t.created_at
		FROM teams t
		WHERE t.game_id = ?
		ORDER BY t.created_at
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []AdminTeamItem{}
	for rows.Next() {
		var t AdminTeamItem
		if err := rows.Scan(&t.ID, &t.Name, &t.JoinCode, &t.StartNodeID,
			&t.PlayerCount, &t.ScanCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, gameID string, req AdminTeamRequest) (AdminTeamItem, error) {
	var t AdminTeamItem
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (game_id, name, join_code, start_node_id)
		VALUES (?, ?, ?, NULLIF(?, ''))
		RETURNING id, name, join_code, COALESCE(start_node_id, ''), created_at
	`, gameID, req.Name, req.JoinCode, req.StartNodeID).Scan(&t.ID, &t.Name, &t.JoinCode, &t.StartNodeID, &t.CreatedAt)
	return t, err
}

func (s *SQLiteStore) UpdateTeam(ctx context.Context, id string, req AdminTeamRequest) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE teams SET name = ?, join_code = ?, start_node_id = NULLIF(?, '') WHERE id = ?
	`, req.Name, req.JoinCode, req.StartNodeID, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLiteStore) TeamPlayerCount(ctx context.Context, id string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE team_id = ?`, id).Scan(&n)
	return n, err
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return hunt.ErrNotFound
	}
	return nil
}
