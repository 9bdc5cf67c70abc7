package hunt

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func at(minute int) time.Time {
	return time.Date(2026, 6, 1, 10, minute, 0, 0, time.UTC)
}

func TestFinishedTeamsFirstRegardlessOfMode(t *testing.T) {
	game := Game{ID: "g"}
	nodes := []Node{
		{ID: "n1", GameID: "g", Title: "A", Activated: true, IsStart: true},
		{ID: "n2", GameID: "g", Title: "B", Activated: true, IsEnd: true},
	}
	// Slow finisher with few points vs fast unfinished team with many.
	aggs := []TeamAggregate{
		{TeamID: "t1", TeamName: "Hares", NodesFound: 1, RawPoints: 900, LastScanAt: at(5), LastNodeID: "n1"},
		{TeamID: "t2", TeamName: "Snails", NodesFound: 2, RawPoints: 20, LastScanAt: at(50), LastNodeID: "n2"},
	}
	scanned := map[string]map[string]bool{
		"t1": {"n1": true},
		"t2": {"n1": true, "n2": true},
	}

	for _, mode := range []RankingMode{RankByPoints, RankByNodes, RankByTime} {
		game.RankingMode = mode
		entries := buildLeaderboard(game, aggs, nodes, nil, scanned)
		if entries[0].TeamName != "Snails" {
			t.Errorf("mode %s: leader = %s, want finished team first", mode, entries[0].TeamName)
		}
		if !entries[0].IsFinished || entries[1].IsFinished {
			t.Errorf("mode %s: finished flags wrong: %+v", mode, entries)
		}
	}
}

func TestRankingModes(t *testing.T) {
	nodes := []Node{
		{ID: "n1", GameID: "g", Title: "A", Activated: true},
		{ID: "n2", GameID: "g", Title: "B", Activated: true},
		{ID: "n3", GameID: "g", Title: "C", Activated: true},
	}
	aggs := []TeamAggregate{
		{TeamID: "t1", TeamName: "Alpha", NodesFound: 1, RawPoints: 300, LastScanAt: at(10), LastNodeID: "n1"},
		{TeamID: "t2", TeamName: "Beta", NodesFound: 2, RawPoints: 100, LastScanAt: at(5), LastNodeID: "n2"},
	}
	scanned := map[string]map[string]bool{
		"t1": {"n1": true},
		"t2": {"n1": true, "n2": true},
	}

	tests := []struct {
		mode RankingMode
		want []string
	}{
		{RankByPoints, []string{"Alpha", "Beta"}},
		{RankByNodes, []string{"Beta", "Alpha"}},
		{RankByTime, []string{"Beta", "Alpha"}},
	}
	for _, tt := range tests {
		entries := buildLeaderboard(Game{ID: "g", RankingMode: tt.mode}, aggs, nodes, nil, scanned)
		var got []string
		for _, e := range entries {
			got = append(got, e.TeamName)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("mode %s: order = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestTieBreaksByEarlierLastScan(t *testing.T) {
	nodes := []Node{
		{ID: "n1", GameID: "g", Title: "A", Activated: true},
		{ID: "n2", GameID: "g", Title: "B", Activated: true},
	}
	aggs := []TeamAggregate{
		{TeamID: "t1", TeamName: "Late", NodesFound: 1, RawPoints: 100, LastScanAt: at(20), LastNodeID: "n1"},
		{TeamID: "t2", TeamName: "Early", NodesFound: 1, RawPoints: 100, LastScanAt: at(10), LastNodeID: "n1"},
	}
	scanned := map[string]map[string]bool{"t1": {"n1": true}, "t2": {"n1": true}}

	entries := buildLeaderboard(Game{ID: "g", RankingMode: RankByPoints}, aggs, nodes, nil, scanned)
	if entries[0].TeamName != "Early" {
		t.Errorf("tie-break: leader = %s, want Early", entries[0].TeamName)
	}
	// Dense 1-based ranks, no shared positions.
	if entries[0].Rank != 1 || entries[1].Rank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", entries[0].Rank, entries[1].Rank)
	}
}

func TestZeroScanTeamsIncluded(t *testing.T) {
	store := newMemStore()
	g, team, _ := seedHunt(store, Game{})
	idle := store.addTeam(Team{GameID: g.ID, Name: "Idle", JoinCode: "idle-1"})
	svc, _ := newTestService(store)
	ctx := context.Background()

	if res, _ := svc.RecordScan(ctx, team.ID, "key-start", "", ClientMeta{}); !res.OK() {
		t.Fatalf("scan rejected: %q", res.Status)
	}

	snapshot, err := svc.Leaderboard(ctx, g.ID)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(snapshot.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(snapshot.Entries))
	}
	last := snapshot.Entries[1]
	if last.TeamID != idle.ID || last.TotalPoints != 0 || last.NodesFound != 0 {
		t.Errorf("idle team entry = %+v, want zero totals", last)
	}
	// An idle team's clue is its implicit start node.
	if last.CurrentClueTitle != "Old Town Gate" {
		t.Errorf("idle clue = %q, want start node title", last.CurrentClueTitle)
	}
}

func TestCompletionFollowsActivationToggle(t *testing.T) {
	store := newMemStore()
	g, team, nodes := seedHunt(store, Game{})
	svc, _ := newTestService(store)
	ctx := context.Background()

	// Scan Start then End; Middle stays unscanned.
	for _, key := range []string{"key-start", "key-end"} {
		if res, _ := svc.RecordScan(ctx, team.ID, key, "", ClientMeta{}); !res.OK() {
			t.Fatalf("scan %s rejected: %q", key, res.Status)
		}
	}

	snapshot, _ := svc.Leaderboard(ctx, g.ID)
	if snapshot.Entries[0].IsFinished {
		t.Fatal("finished with an activated node unscanned")
	}

	// Deactivating Middle makes the team finished: every activated node,
	// end point included, is scanned. The ledger is untouched.
	store.setActivated(nodes[1].ID, false)
	svc.InvalidateLeaderboard(g.ID)

	snapshot, _ = svc.Leaderboard(ctx, g.ID)
	if !snapshot.Entries[0].IsFinished {
		t.Fatal("not finished after deactivating the missing node")
	}

	store.setActivated(nodes[1].ID, true)
	svc.InvalidateLeaderboard(g.ID)

	snapshot, _ = svc.Leaderboard(ctx, g.ID)
	if snapshot.Entries[0].IsFinished {
		t.Fatal("still finished after reactivating the missing node")
	}
}

func TestClueFollowsEdges(t *testing.T) {
	store := newMemStore()
	g, team, _ := seedHunt(store, Game{})
	svc, _ := newTestService(store)
	ctx := context.Background()

	if res, _ := svc.RecordScan(ctx, team.ID, "key-start", "", ClientMeta{}); !res.OK() {
		t.Fatalf("scan rejected: %q", res.Status)
	}

	snapshot, _ := svc.Leaderboard(ctx, g.ID)
	if got := snapshot.Entries[0].CurrentClueTitle; got != "Clock Tower" {
		t.Errorf("clue = %q, want edge target Clock Tower", got)
	}

	// Scanning the edge target moves the clue along the chain.
	if res, _ := svc.RecordScan(ctx, team.ID, "key-middle", "", ClientMeta{}); !res.OK() {
		t.Fatalf("scan rejected: %q", res.Status)
	}
	snapshot, _ = svc.Leaderboard(ctx, g.ID)
	if got := snapshot.Entries[0].CurrentClueTitle; got != "Harbor Steps" {
		t.Errorf("clue = %q, want Harbor Steps", got)
	}
}

func TestRankingDeterministic(t *testing.T) {
	nodes := []Node{
		{ID: "n1", GameID: "g", Title: "A", Activated: true},
	}
	aggs := []TeamAggregate{
		{TeamID: "t1", TeamName: "One", RawPoints: 10, NodesFound: 1, LastScanAt: at(1), LastNodeID: "n1"},
		{TeamID: "t2", TeamName: "Two", RawPoints: 30, NodesFound: 1, LastScanAt: at(2), LastNodeID: "n1"},
		{TeamID: "t3", TeamName: "Three", RawPoints: 20, NodesFound: 1, LastScanAt: at(3), LastNodeID: "n1"},
	}
	scanned := map[string]map[string]bool{"t1": {"n1": true}, "t2": {"n1": true}, "t3": {"n1": true}}
	game := Game{ID: "g", RankingMode: RankByPoints}

	first := buildLeaderboard(game, aggs, nodes, nil, scanned)
	for i := 0; i < 5; i++ {
		again := buildLeaderboard(game, aggs, nodes, nil, scanned)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}
