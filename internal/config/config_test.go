package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/derekprior/leaguesim/internal/simerr"
)

func mustDate(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const testConfigYAML = `
season:
  start_year: 2025
  seasons: 3
  seed: 42
  calendar:
    start_date: "2025-08-16"
    matchdays: [saturday, wednesday]
    blackout_dates:
      - date: "2025-12-25"
        reason: "Christmas"

match:
  home_advantage: 4
  base_goals: 1.4

ranking:
  tie_breaks: [points, head_to_head, goal_difference]

ranked:
  trials: 500
  workers: 4

tiers:
  - id: primera
    name: Primera
    relegates_to: segunda
    relegate: 3
    zones:
      - {name: champions_league, from: 1, to: 4}
    teams:
      - {id: rma, name: Real Madrid, strength: 88}
      - {id: bar, name: Barcelona, strength: 86}
      - {id: atm, strength: 80}
      - {id: sev, strength: 72}
  - id: segunda
    promotes_to: primera
    promote: 2
    playoff:
      teams: 4
      legs: 2
      away_goals: true
    teams:
      - {id: ova, strength: 60}
      - {id: spo, strength: 58}
      - {id: zar, strength: 57}
      - {id: rac, strength: 55}
      - {id: eib, strength: 54}
      - {id: alm, strength: 53}
  - id: copa
    format: knockout
    knockout:
      legs: 2
      extra_time: true
    teams:
      - {id: k1}
      - {id: k2}
      - {id: k3}

overrides:
  - {season: 2, action: dissolve, team: alm}
  - {season: 2, action: admit, team: new, name: New FC, tier: segunda, strength: 50}
`

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("season", func(t *testing.T) {
		if cfg.Season.StartYear != 2025 || cfg.Season.Seasons != 3 || cfg.Season.Seed != 42 {
			t.Errorf("season = %+v", cfg.Season)
		}
		if cfg.Season.Calendar.StartDate.Time != mustDate("2025-08-16") {
			t.Errorf("start date = %v, want 2025-08-16", cfg.Season.Calendar.StartDate.Time)
		}
		if len(cfg.Season.Calendar.BlackoutDates) != 1 {
			t.Fatalf("blackout dates = %d, want 1", len(cfg.Season.Calendar.BlackoutDates))
		}
		if cfg.Season.Calendar.BlackoutDates[0].Reason != "Christmas" {
			t.Errorf("reason = %q", cfg.Season.Calendar.BlackoutDates[0].Reason)
		}
	})

	t.Run("match", func(t *testing.T) {
		if got := cfg.HomeAdvantage(3); got != 4 {
			t.Errorf("home advantage = %v, want 4", got)
		}
		if cfg.Match.BaseGoals != 1.4 {
			t.Errorf("base goals = %v, want 1.4", cfg.Match.BaseGoals)
		}
	})

	t.Run("tiers", func(t *testing.T) {
		if len(cfg.Tiers) != 3 {
			t.Fatalf("tiers = %d, want 3", len(cfg.Tiers))
		}
		top := cfg.Tiers[0]
		if top.Format != FormatLeague {
			t.Errorf("default format = %q, want league", top.Format)
		}
		if top.Teams[2].Name != "atm" {
			t.Errorf("team name should default to id, got %q", top.Teams[2].Name)
		}
		if len(top.Zones) != 1 || top.Zones[0].To != 4 {
			t.Errorf("zones = %+v", top.Zones)
		}
	})

	t.Run("playoff defaults", func(t *testing.T) {
		seg, ok := cfg.Tier("segunda")
		if !ok {
			t.Fatal("segunda not found")
		}
		if seg.Name != "segunda" {
			t.Errorf("tier name should default to id, got %q", seg.Name)
		}
		if seg.Playoff.Legs != 2 || seg.Playoff.FinalLegs != 1 {
			t.Errorf("playoff legs = %d/%d, want 2/1", seg.Playoff.Legs, seg.Playoff.FinalLegs)
		}
		if !seg.Playoff.AwayGoals {
			t.Error("away goals should be enabled")
		}
	})

	t.Run("overrides", func(t *testing.T) {
		if len(cfg.Overrides) != 2 {
			t.Fatalf("overrides = %d, want 2", len(cfg.Overrides))
		}
		if cfg.Overrides[1].Action != ActionAdmit || cfg.Overrides[1].Strength != 50 {
			t.Errorf("admit override = %+v", cfg.Overrides[1])
		}
	})

	t.Run("matchdays", func(t *testing.T) {
		md := cfg.Season.Calendar.Matchdays
		if len(md) != 2 || md[1] != "wednesday" {
			t.Errorf("matchdays = %v", md)
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
tiers:
  - id: solo
    teams: [{id: a}, {id: b}]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Season.Seasons != 1 {
		t.Errorf("seasons = %d, want 1", cfg.Season.Seasons)
	}
	if got := cfg.Season.Calendar.Matchdays; len(got) != 1 || got[0] != "saturday" {
		t.Errorf("matchdays = %v, want [saturday]", got)
	}
	if cfg.HomeAdvantage(3) != 3 {
		t.Errorf("unset home advantage should fall back to the default")
	}
	if cfg.Ranked.Trials != 1000 || cfg.Ranked.Top != 4 {
		t.Errorf("ranked = %+v", cfg.Ranked)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no tiers",
			yaml:    `season: {seasons: 1}`,
			wantErr: "at least one tier",
		},
		{
			name: "per group outside group format",
			yaml: `
tiers:
  - id: a
    group: {size: 2, per_group: true}
    teams: [{id: x}, {id: y}]`,
			wantErr: "per_group needs the group format",
		},
		{
			name: "per group places exceed a group",
			yaml: `
tiers:
  - id: a
    format: group
    relegates_to: b
    relegate: 2
    group: {size: 3, qualifiers: 1, per_group: true}
    playoff: {teams: 2}
    teams: [{id: a1}, {id: a2}, {id: a3}, {id: a4}, {id: a5}, {id: a6}]
  - id: b
    promotes_to: a
    teams: [{id: b1}, {id: b2}]`,
			wantErr: "exceed 3 teams",
		},
		{
			name: "too few teams",
			yaml: `
tiers:
  - id: a
    teams: [{id: x}]`,
			wantErr: "at least 2 teams",
		},
		{
			name: "duplicate team across tiers",
			yaml: `
tiers:
  - id: a
    relegates_to: b
    teams: [{id: x}, {id: y}]
  - id: b
    promotes_to: a
    teams: [{id: x}, {id: z}]`,
			wantErr: `team "x" appears in both`,
		},
		{
			name: "unknown link",
			yaml: `
tiers:
  - id: a
    relegates_to: nowhere
    teams: [{id: x}, {id: y}]`,
			wantErr: "unknown tier",
		},
		{
			name: "asymmetric link",
			yaml: `
tiers:
  - id: a
    relegates_to: b
    teams: [{id: x}, {id: y}]
  - id: b
    teams: [{id: z}, {id: w}]`,
			wantErr: "does not promote",
		},
		{
			name: "promote without target",
			yaml: `
tiers:
  - id: a
    promote: 1
    teams: [{id: x}, {id: y}]`,
			wantErr: "no promotes_to",
		},
		{
			name: "places exceed teams",
			yaml: `
tiers:
  - id: a
    relegates_to: b
    relegate: 2
    teams: [{id: x}, {id: y}]
  - id: b
    promotes_to: a
    promote: 1
    playoff: {teams: 2}
    teams: [{id: z}, {id: w}]`,
			wantErr: "exceed",
		},
		{
			name: "unknown format",
			yaml: `
tiers:
  - id: a
    format: ladder
    teams: [{id: x}, {id: y}]`,
			wantErr: "unknown format",
		},
		{
			name: "group size does not divide",
			yaml: `
tiers:
  - id: a
    format: group
    group: {size: 2, qualifiers: 1}
    teams: [{id: x}, {id: y}, {id: z}]`,
			wantErr: "do not split",
		},
		{
			name: "swiss odd teams",
			yaml: `
tiers:
  - id: a
    format: swiss
    swiss: {rounds: 2}
    teams: [{id: x}, {id: y}, {id: z}]`,
			wantErr: "even number",
		},
		{
			name: "bad legs",
			yaml: `
tiers:
  - id: a
    format: knockout
    knockout: {legs: 3}
    teams: [{id: x}, {id: y}]`,
			wantErr: "legs must be 1 or 2",
		},
		{
			name: "negative strength",
			yaml: `
tiers:
  - id: a
    teams: [{id: x, strength: -1}, {id: y}]`,
			wantErr: "negative strength",
		},
		{
			name: "unknown matchday",
			yaml: `
season:
  calendar: {matchdays: [funday]}
tiers:
  - id: a
    teams: [{id: x}, {id: y}]`,
			wantErr: "unknown matchday",
		},
		{
			name: "unknown override action",
			yaml: `
tiers:
  - id: a
    teams: [{id: x}, {id: y}]
overrides:
  - {season: 2, action: merge, team: x}`,
			wantErr: "unknown action",
		},
		{
			name: "override in first season",
			yaml: `
tiers:
  - id: a
    teams: [{id: x}, {id: y}]
overrides:
  - {season: 1, action: dissolve, team: x}`,
			wantErr: "season must be 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, simerr.ErrConfiguration) {
				t.Errorf("error %v is not a configuration error", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigBadDate(t *testing.T) {
	_, err := LoadFromBytes([]byte(`
season:
  calendar: {start_date: "16/08/2025"}
tiers:
  - id: a
    teams: [{id: x}, {id: y}]
`))
	if err == nil || !strings.Contains(err.Error(), "invalid date") {
		t.Errorf("error = %v, want invalid date", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}

	t.Run("overrides run parameters", func(t *testing.T) {
		cfg := &Config{}
		err := cfg.ApplyEnv(env(map[string]string{
			"LEAGUESIM_SEED":    "-7",
			"LEAGUESIM_TRIALS":  "250",
			"LEAGUESIM_WORKERS": "3",
			"LEAGUESIM_SEASONS": "5",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Season.Seed != -7 || cfg.Ranked.Trials != 250 || cfg.Ranked.Workers != 3 || cfg.Season.Seasons != 5 {
			t.Errorf("config = %+v %+v", cfg.Season, cfg.Ranked)
		}
	})

	t.Run("empty environment leaves config alone", func(t *testing.T) {
		cfg := &Config{Season: Season{Seed: 9}}
		if err := cfg.ApplyEnv(env(nil)); err != nil {
			t.Fatal(err)
		}
		if cfg.Season.Seed != 9 {
			t.Errorf("seed = %d, want 9", cfg.Season.Seed)
		}
	})

	t.Run("zero workers means every CPU", func(t *testing.T) {
		cfg := &Config{Ranked: Ranked{Workers: 4}}
		if err := cfg.ApplyEnv(env(map[string]string{"LEAGUESIM_WORKERS": "0"})); err != nil {
			t.Fatalf("LEAGUESIM_WORKERS=0: %v", err)
		}
		if cfg.Ranked.Workers != 0 {
			t.Errorf("workers = %d, want 0", cfg.Ranked.Workers)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, kv := range [][2]string{
			{"LEAGUESIM_SEED", "abc"},
			{"LEAGUESIM_WORKERS", "-1"},
			{"LEAGUESIM_TRIALS", "many"},
			{"LEAGUESIM_TRIALS", "0"},
		} {
			cfg := &Config{}
			err := cfg.ApplyEnv(env(map[string]string{kv[0]: kv[1]}))
			if !errors.Is(err, simerr.ErrConfiguration) {
				t.Errorf("%s=%s: error = %v, want configuration error", kv[0], kv[1], err)
			}
		}
	})
}

func TestAllTeams(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(testConfigYAML))
	if err != nil {
		t.Fatal(err)
	}
	teams := cfg.AllTeams()
	if len(teams) != 13 {
		t.Fatalf("AllTeams() = %d teams, want 13", len(teams))
	}
	if teams[0].ID != "rma" || teams[12].ID != "k3" {
		t.Errorf("order = %s..%s, want rma..k3", teams[0].ID, teams[12].ID)
	}
}

func TestWeekday(t *testing.T) {
	if d, ok := Weekday("Saturday"); !ok || d != time.Saturday {
		t.Errorf("Weekday(Saturday) = %v, %v", d, ok)
	}
	if _, ok := Weekday("someday"); ok {
		t.Error("unknown day should not parse")
	}
}
