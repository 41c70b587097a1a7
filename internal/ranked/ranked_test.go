package ranked

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/team"
	"github.com/derekprior/leaguesim/internal/tournament"
)

func leagueDefinition() Definition {
	return Definition{
		ID:    "liga",
		Teams: []string{"giants", "middle", "minnows", "strugglers"},
		Config: competition.Config{
			Kind:          competition.League,
			HomeAdvantage: 3,
			Relegate:      1,
		},
		Strengths: team.Strengths{"giants": 95, "middle": 60, "minnows": 50, "strugglers": 20},
	}
}

func TestRun(t *testing.T) {
	logger, hook := test.NewNullLogger()
	report, err := Run(context.Background(), leagueDefinition(), Options{Trials: 200, Workers: 4, Seed: 11, Top: 2, Logger: logger})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	t.Run("histograms cover every trial", func(t *testing.T) {
		for _, p := range report.Projections {
			total := 0
			for _, n := range p.Positions {
				total += n
			}
			if total != 200 {
				t.Errorf("%s histogram sums to %d, want 200", p.Team, total)
			}
		}
	})

	t.Run("probabilities", func(t *testing.T) {
		var champion, top, relegated float64
		for _, p := range report.Projections {
			champion += p.Champion
			top += p.TopK
			relegated += p.Relegated
		}
		for name, got := range map[string]float64{"champion": champion, "relegated": relegated} {
			if math.Abs(got-1) > 1e-9 {
				t.Errorf("P(%s) sums to %v, want 1", name, got)
			}
		}
		if math.Abs(top-2) > 1e-9 {
			t.Errorf("P(top 2) sums to %v, want 2", top)
		}
	})

	t.Run("strength ordering", func(t *testing.T) {
		if report.Favourite() != "giants" {
			t.Errorf("favourite = %s, want giants", report.Favourite())
		}
		giants, _ := report.Projection("giants")
		strugglers, _ := report.Projection("strugglers")
		if giants.MeanPoints <= strugglers.MeanPoints {
			t.Errorf("giants average %v points, strugglers %v", giants.MeanPoints, strugglers.MeanPoints)
		}
		if strugglers.Relegated < 0.5 {
			t.Errorf("strugglers relegated %v of the time", strugglers.Relegated)
		}
		if report.Projections[0].Team != "giants" {
			t.Errorf("projections not ordered by mean position: %s first", report.Projections[0].Team)
		}
	})

	t.Run("position probability", func(t *testing.T) {
		p, _ := report.Projection("giants")
		if got := p.PositionProbability(1); got != p.Champion {
			t.Errorf("PositionProbability(1) = %v, want %v", got, p.Champion)
		}
		if p.PositionProbability(0) != 0 || p.PositionProbability(5) != 0 {
			t.Error("out of range positions should have probability 0")
		}
	})

	t.Run("lookup", func(t *testing.T) {
		if _, err := report.Projection("nobody"); !errors.Is(err, simerr.ErrLookup) {
			t.Errorf("error = %v, want lookup error", err)
		}
	})

	if len(hook.AllEntries()) != 2 {
		t.Errorf("logged %d entries, want 2", len(hook.AllEntries()))
	}
}

func TestRunIndependentOfWorkers(t *testing.T) {
	def := leagueDefinition()
	one, err := Run(context.Background(), def, Options{Trials: 50, Workers: 1, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	many, err := Run(context.Background(), def, Options{Trials: 50, Workers: 8, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(one, many) {
		t.Error("report depends on the number of workers")
	}

	other, err := Run(context.Background(), def, Options{Trials: 50, Workers: 8, Seed: 6})
	if err != nil {
		t.Fatal(err)
	}
	if reflect.DeepEqual(one, other) {
		t.Error("different seeds produced identical reports")
	}
}

func TestRunKnockout(t *testing.T) {
	def := Definition{
		ID:        "cup",
		Teams:     []string{"a", "b", "c", "d", "e", "f"},
		Config:    competition.Config{Kind: competition.Knockout, Knockout: tournament.BracketConfig{Legs: 1, ExtraTime: true}},
		Strengths: team.Strengths{"a": 70, "b": 65, "c": 60, "d": 55, "e": 50, "f": 45},
	}
	report, err := Run(context.Background(), def, Options{Trials: 100, Seed: 3})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	var champion float64
	for _, p := range report.Projections {
		champion += p.Champion
	}
	if math.Abs(champion-1) > 1e-9 {
		t.Errorf("P(champion) sums to %v", champion)
	}
}

func TestRunErrors(t *testing.T) {
	t.Run("no trials", func(t *testing.T) {
		_, err := Run(context.Background(), leagueDefinition(), Options{})
		if !errors.Is(err, simerr.ErrConfiguration) {
			t.Errorf("error = %v, want configuration error", err)
		}
	})

	t.Run("bad definition", func(t *testing.T) {
		def := leagueDefinition()
		def.Teams = []string{"giants"}
		_, err := Run(context.Background(), def, Options{Trials: 10})
		if !errors.Is(err, simerr.ErrConfiguration) {
			t.Errorf("error = %v, want configuration error", err)
		}
	})

	t.Run("missing strength", func(t *testing.T) {
		def := leagueDefinition()
		def.Strengths = team.Strengths{"giants": 90}
		_, err := Run(context.Background(), def, Options{Trials: 10})
		if !errors.Is(err, simerr.ErrLookup) {
			t.Errorf("error = %v, want lookup error", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		report, err := Run(ctx, leagueDefinition(), Options{Trials: 10})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
		if report != nil {
			t.Errorf("report = %+v, want nil when no trial ran", report)
		}
	})
}

// cancellingStrengths cancels the run once it has been asked for a number of
// strengths.
type cancellingStrengths struct {
	team.Strengths
	calls  atomic.Int64
	after  int64
	cancel context.CancelFunc
}

func (c *cancellingStrengths) Strength(id string) (float64, error) {
	if c.calls.Add(1) == c.after {
		c.cancel()
	}
	return c.Strengths.Strength(id)
}

func TestRunCancelledKeepsCompletedTrials(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A four-team double round-robin asks for 24 strengths per trial, so the
	// cancel lands inside trial 6, which still finishes.
	def := leagueDefinition()
	def.Strengths = &cancellingStrengths{Strengths: leagueDefinition().Strengths.(team.Strengths), after: 5*24 + 1, cancel: cancel}
	logger, hook := test.NewNullLogger()
	report, err := Run(ctx, def, Options{Trials: 100, Workers: 1, Seed: 8, Top: 2, Logger: logger})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if report == nil {
		t.Fatal("cancelled run returned no report")
	}
	if report.Trials != 6 {
		t.Errorf("trials = %d, want 6", report.Trials)
	}
	for _, p := range report.Projections {
		total := 0
		for _, n := range p.Positions {
			total += n
		}
		if total != report.Trials {
			t.Errorf("%s histogram sums to %d, want %d", p.Team, total, report.Trials)
		}
	}

	full, err := Run(context.Background(), leagueDefinition(), Options{Trials: 6, Workers: 1, Seed: 8, Top: 2, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(report, full) {
		t.Error("partial report differs from an uninterrupted run of the same trials")
	}

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "Ranked simulation cancelled" && e.Data["completed"] == 6 {
			warned = true
		}
	}
	if !warned {
		t.Error("cancellation was not logged with the completed trial count")
	}
}

func TestFromTier(t *testing.T) {
	cfg, err := config.LoadFromBytes([]byte(`
tiers:
  - id: premier
    relegate: 1
    relegates_to: second
    teams:
      - {id: a, strength: 70}
      - {id: b, strength: 60}
      - {id: c, strength: 50}
  - id: second
    promotes_to: premier
    promote: 1
    teams:
      - {id: d, strength: 40}
      - {id: e, strength: 30}
`))
	if err != nil {
		t.Fatal(err)
	}
	def, err := FromTier(cfg, "premier")
	if err != nil {
		t.Fatalf("FromTier() error: %v", err)
	}
	if !reflect.DeepEqual(def.Teams, []string{"a", "b", "c"}) || def.Config.Relegate != 1 {
		t.Errorf("definition = %+v", def)
	}
	if s, _ := def.Strengths.Strength("b"); s != 60 {
		t.Errorf("strength(b) = %v", s)
	}
	if _, err := FromTier(cfg, "third"); !errors.Is(err, simerr.ErrLookup) {
		t.Errorf("unknown tier: error = %v, want lookup error", err)
	}
}
