package tournament

import (
	"errors"
	"testing"

	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
)

func TestGroupStagePots(t *testing.T) {
	ids := seedIDs(8)
	g, err := NewGroupStage("ucl", ids, GroupConfig{Size: 4, Qualifiers: 2})
	if err != nil {
		t.Fatalf("NewGroupStage() error: %v", err)
	}
	groups := g.Groups()
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Name != "A" || groups[1].Name != "B" {
		t.Errorf("names = %s, %s", groups[0].Name, groups[1].Name)
	}
	// Seeds alternate between groups: pot 1 is s01/s02, pot 2 s03/s04, ...
	wantA := []string{"s01", "s03", "s05", "s07"}
	for i, id := range groups[0].Teams {
		if id != wantA[i] {
			t.Errorf("group A = %v, want %v", groups[0].Teams, wantA)
			break
		}
	}
	if g.TotalRounds() != 6 {
		t.Errorf("rounds = %d, want 6 for a double round-robin of 4", g.TotalRounds())
	}
}

func TestGroupStagePlay(t *testing.T) {
	ids := seedIDs(12)
	g, err := NewGroupStage("cup", ids, GroupConfig{Size: 4, Qualifiers: 2, Legs: 1})
	if err != nil {
		t.Fatal(err)
	}
	e := testEngine(ids, 5)

	if _, err := g.Qualifiers(); !errors.Is(err, simerr.ErrState) {
		t.Errorf("Qualifiers() before completion: error = %v, want state error", err)
	}

	for !g.Complete() {
		fixtures, err := g.PlayRound(e)
		if err != nil {
			t.Fatalf("PlayRound() error: %v", err)
		}
		if len(fixtures) != 6 {
			t.Errorf("round has %d fixtures, want 6", len(fixtures))
		}
	}
	if _, err := g.PlayRound(e); !errors.Is(err, simerr.ErrState) {
		t.Errorf("PlayRound() after completion: error = %v, want state error", err)
	}

	t.Run("every group table is full", func(t *testing.T) {
		for _, tbl := range g.Tables() {
			for _, r := range tbl.Rows {
				if r.Played != 3 {
					t.Errorf("group %s: %s played %d, want 3", tbl.Name, r.Team, r.Played)
				}
			}
		}
	})

	t.Run("qualifiers ordered by position", func(t *testing.T) {
		q, err := g.Qualifiers()
		if err != nil {
			t.Fatal(err)
		}
		if len(q) != 6 {
			t.Fatalf("qualifiers = %d, want 6", len(q))
		}
		winners := make(map[string]bool)
		for _, tbl := range g.Tables() {
			winners[tbl.Rows[0].Team] = true
		}
		for _, id := range q[:3] {
			if !winners[id] {
				t.Errorf("%s is in the first band but did not win a group", id)
			}
		}
	})

	t.Run("ranking covers everyone", func(t *testing.T) {
		r := g.Ranking()
		if len(r) != 12 {
			t.Errorf("ranking has %d rows, want 12", len(r))
		}
	})
}

func TestGroupStageErrors(t *testing.T) {
	tests := []struct {
		name string
		n    int
		cfg  GroupConfig
	}{
		{"size does not divide", 10, GroupConfig{Size: 4, Qualifiers: 2}},
		{"size too small", 4, GroupConfig{Size: 1, Qualifiers: 1}},
		{"too many qualifiers", 8, GroupConfig{Size: 4, Qualifiers: 5}},
		{"no qualifiers", 8, GroupConfig{Size: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGroupStage("g", seedIDs(tt.n), tt.cfg); !errors.Is(err, simerr.ErrConfiguration) {
				t.Errorf("error = %v, want configuration error", err)
			}
		})
	}
}

func TestGroupName(t *testing.T) {
	for i, want := range map[int]string{0: "A", 7: "H", 25: "Z", 26: "AA", 27: "AB"} {
		if got := groupName(i); got != want {
			t.Errorf("groupName(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestCrossGroupDropsHeadToHead(t *testing.T) {
	c := crossGroup(standings.DefaultChain())
	for _, r := range c {
		if r == standings.HeadToHead {
			t.Error("cross-group chain still has head-to-head")
		}
	}
	if len(standings.DefaultChain()) != len(c)+1 {
		t.Error("crossGroup modified the default chain")
	}
}
