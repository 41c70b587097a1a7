package season

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/team"
)

const pyramidYAML = `
season:
  start_year: 2024
  seasons: 3
  seed: 42
tiers:
  - id: top
    relegates_to: mid
    relegate: 2
    teams:
      - {id: t1, strength: 80}
      - {id: t2, strength: 76}
      - {id: t3, strength: 72}
      - {id: t4, strength: 70}
  - id: mid
    promotes_to: top
    relegates_to: bottom
    promote: 1
    relegate: 1
    playoff:
      teams: 2
    teams:
      - {id: m1, strength: 66}
      - {id: m2, strength: 64}
      - {id: m3, strength: 62}
      - {id: m4, strength: 60}
      - {id: m5, strength: 58}
      - {id: m6, strength: 56}
  - id: bottom
    promotes_to: mid
    promote: 1
    teams:
      - {id: b1, strength: 50}
      - {id: b2, strength: 48}
      - {id: b3, strength: 46}
      - {id: b4, strength: 44}
overrides:
  - {season: 2, action: dissolve, team: b4}
  - {season: 2, action: admit, team: b9, name: Newcomers, tier: bottom, strength: 40}
`

func newTestRunner(t *testing.T, mutate func(*config.Config)) *Runner {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(pyramidYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes() error: %v", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	logger, _ := test.NewNullLogger()
	r, err := NewRunner(cfg, logger)
	if err != nil {
		t.Fatalf("NewRunner() error: %v", err)
	}
	return r
}

func TestRunnerRun(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(pyramidYAML))
	if err != nil {
		t.Fatal(err)
	}
	logger, hook := test.NewNullLogger()
	r, err := NewRunner(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}

	reports, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("reports = %d, want 3", len(reports))
	}

	t.Run("years", func(t *testing.T) {
		for i, rep := range reports {
			if rep.Season != i+1 || rep.Year != 2024+i {
				t.Errorf("report %d: season %d year %d", i, rep.Season, rep.Year)
			}
		}
	})

	t.Run("every team plays in exactly one tier", func(t *testing.T) {
		for _, rep := range reports {
			seen := make(map[string]bool)
			for _, c := range rep.Competitions {
				for _, id := range c.Teams() {
					if seen[id] {
						t.Errorf("season %d: %s in two tiers", rep.Season, id)
					}
					seen[id] = true
				}
			}
			if len(seen) != 14 {
				t.Errorf("season %d has %d teams, want 14", rep.Season, len(seen))
			}
			if rep.Season >= 2 && (seen["b4"] || !seen["b9"]) {
				t.Errorf("season %d: overrides not applied", rep.Season)
			}
		}
	})

	t.Run("rosters follow the transition", func(t *testing.T) {
		for i := 1; i < len(reports); i++ {
			prev := reports[i-1].Transition
			for _, c := range reports[i].Competitions {
				if !slices.Equal(c.Teams(), prev.Rosters[c.Tier]) {
					t.Errorf("season %d %s = %v, want %v", i+1, c.Tier, c.Teams(), prev.Rosters[c.Tier])
				}
			}
		}
	})

	t.Run("top tier size is stable", func(t *testing.T) {
		for _, rep := range reports {
			if n := len(rep.Competitions[0].Teams()); n != 4 {
				t.Errorf("season %d top tier has %d teams", rep.Season, n)
			}
		}
	})

	t.Run("logging", func(t *testing.T) {
		complete := 0
		for _, e := range hook.AllEntries() {
			if e.Message == "Season complete" {
				complete++
			}
		}
		if complete != 3 {
			t.Errorf("logged %d completed seasons, want 3", complete)
		}
	})
}

func TestRunnerDeterministic(t *testing.T) {
	champions := func(workers int) []string {
		r := newTestRunner(t, func(c *config.Config) { c.Ranked.Workers = workers })
		reports, err := r.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, rep := range reports {
			for _, o := range rep.Outcomes {
				out = append(out, o.Placement...)
			}
		}
		return out
	}
	serial, parallel := champions(1), champions(0)
	if !slices.Equal(serial, parallel) {
		t.Errorf("placements depend on worker count:\n%v\n%v", serial, parallel)
	}
}

func TestRunnerSquadChanges(t *testing.T) {
	r := newTestRunner(t, func(c *config.Config) { c.Season.Seasons = 2 })
	r.SquadChanges = func(season int, current team.Strengths) []team.SquadChange {
		return []team.SquadChange{{Team: "t1", Strength: current["t1"] - 10}}
	}
	reports, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := reports[1].Strengths["t1"]; got != 70 {
		t.Errorf("t1 strength in season 2 = %v, want 70", got)
	}
	if got := reports[0].Strengths["t1"]; got != 80 {
		t.Errorf("t1 strength in season 1 = %v, want 80", got)
	}
}

func TestRunnerCancelled(t *testing.T) {
	r := newTestRunner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := r.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(reports) != 0 {
		t.Errorf("reports = %d, want none", len(reports))
	}
}
