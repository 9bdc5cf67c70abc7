package hunt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store for exercising the core without SQLite.
// It mirrors the aggregate semantics of the SQL store: nodesFound counts
// scans on currently activated nodes.
type memStore struct {
	mu    sync.Mutex
	games map[string]Game
	teams map[string]Team
	nodes []Node
	edges []Edge
	scans []Scan
	hints []HintUsage

	clock time.Time
	seq   int

	failAggregates bool
}

func newMemStore() *memStore {
	return &memStore{
		games: make(map[string]Game),
		teams: make(map[string]Team),
		clock: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addGame(g Game) Game {
	if g.ID == "" {
		g.ID = m.nextID("game")
	}
	m.games[g.ID] = g
	return g
}

func (m *memStore) addTeam(t Team) Team {
	if t.ID == "" {
		t.ID = m.nextID("team")
	}
	m.teams[t.ID] = t
	return t
}

func (m *memStore) addNode(n Node) Node {
	if n.ID == "" {
		n.ID = m.nextID("node")
	}
	m.nodes = append(m.nodes, n)
	return n
}

func (m *memStore) addEdge(from, to Node) {
	m.edges = append(m.edges, Edge{
		ID:         m.nextID("edge"),
		GameID:     from.GameID,
		FromNodeID: from.ID,
		ToNodeID:   to.ID,
	})
}

func (m *memStore) setActivated(nodeID string, activated bool) {
	for i := range m.nodes {
		if m.nodes[i].ID == nodeID {
			m.nodes[i].Activated = activated
		}
	}
}

func (m *memStore) GameByID(_ context.Context, id string) (Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return Game{}, ErrNotFound
	}
	return g, nil
}

func (m *memStore) TeamByID(_ context.Context, id string) (Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return Team{}, ErrNotFound
	}
	return t, nil
}

func (m *memStore) NodeByID(_ context.Context, id string) (Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id {
			return n, nil
		}
	}
	return Node{}, ErrNotFound
}

func (m *memStore) NodeByScanKey(_ context.Context, gameID, scanKey string) (Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.GameID == gameID && n.ScanKey == scanKey {
			return n, nil
		}
	}
	return Node{}, ErrNotFound
}

func (m *memStore) NodesByGame(_ context.Context, gameID string) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Node
	for _, n := range m.nodes {
		if n.GameID == gameID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) ActivatedNodes(_ context.Context, gameID string) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Node
	for _, n := range m.nodes {
		if n.GameID == gameID && n.Activated {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) StartNodes(_ context.Context, gameID string) ([]Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Node
	for _, n := range m.nodes {
		if n.GameID == gameID && n.IsStart {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) EdgesByGame(_ context.Context, gameID string) ([]Edge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Edge
	for _, e := range m.edges {
		if e.GameID == gameID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ScansByTeam(_ context.Context, teamID string) ([]Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Scan
	for _, s := range m.scans {
		if s.TeamID == teamID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) ScansByGame(_ context.Context, gameID string) ([]Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Scan
	for _, s := range m.scans {
		if t, ok := m.teams[s.TeamID]; ok && t.GameID == gameID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) AppendScan(_ context.Context, scan Scan) (Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.scans {
		if s.TeamID == scan.TeamID && s.NodeID == scan.NodeID {
			return Scan{}, ErrDuplicateScan
		}
	}
	scan.ID = m.nextID("scan")
	scan.CreatedAt = m.tick()
	m.scans = append(m.scans, scan)
	return scan, nil
}

func (m *memStore) SetCurrentClue(_ context.Context, teamID, nodeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return ErrNotFound
	}
	t.CurrentClueID = nodeID
	m.teams[teamID] = t
	return nil
}

func (m *memStore) HintUsages(_ context.Context, teamID string) ([]HintUsage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []HintUsage
	for _, h := range m.hints {
		if h.TeamID == teamID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) RecordHintUsage(_ context.Context, usage HintUsage) (HintUsage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hints {
		if h.TeamID == usage.TeamID && h.NodeID == usage.NodeID {
			return h, true, nil
		}
	}
	usage.CreatedAt = m.tick()
	m.hints = append(m.hints, usage)
	return usage, false, nil
}

func (m *memStore) TeamAggregates(_ context.Context, gameID string) ([]TeamAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAggregates {
		return nil, errors.New("aggregates unavailable")
	}

	activated := make(map[string]bool)
	for _, n := range m.nodes {
		if n.GameID == gameID && n.Activated {
			activated[n.ID] = true
		}
	}

	var out []TeamAggregate
	for _, t := range m.teams {
		if t.GameID != gameID {
			continue
		}
		a := TeamAggregate{
			TeamID:        t.ID,
			TeamName:      t.Name,
			StartNodeID:   t.StartNodeID,
			CurrentClueID: t.CurrentClueID,
		}
		for _, s := range m.scans {
			if s.TeamID != t.ID {
				continue
			}
			a.RawPoints += s.Points
			if activated[s.NodeID] {
				a.NodesFound++
			}
			if s.CreatedAt.After(a.LastScanAt) {
				a.LastScanAt = s.CreatedAt
				a.LastNodeID = s.NodeID
			}
		}
		for _, h := range m.hints {
			if h.TeamID == t.ID {
				a.HintDeductions += h.PointsDeducted
			}
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

// newTestService wires a Service over a memStore with a deterministic clock
// and a quiet logger.
func newTestService(store *memStore) (*Service, *Broker) {
	broker := NewBroker()
	svc := NewService(store, broker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return store.clock }
	svc.randInt = func(int) int { return 0 }
	return svc, broker
}
