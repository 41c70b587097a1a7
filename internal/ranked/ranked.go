// Package ranked runs a competition many times with independent seeds and
// reports how often each team finishes where.
package ranked

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/season"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
	"github.com/derekprior/leaguesim/internal/team"
)

// Definition is a competition that can be instantiated once per trial.
type Definition struct {
	ID        string
	Teams     []string
	Config    competition.Config
	Strengths team.StrengthProvider
	Sim       *match.Simulator
}

type Options struct {
	Trials int
	// Workers caps concurrent trials. Zero means GOMAXPROCS.
	Workers int
	Seed    int64
	// Top is K for the top-K probability.
	Top    int
	Logger *logrus.Logger
}

// FromTier builds a definition for one configured tier.
func FromTier(cfg *config.Config, tierID string) (Definition, error) {
	tier, ok := cfg.Tier(tierID)
	if !ok {
		return Definition{}, simerr.Lookupf("tier %q not found", tierID)
	}
	chain, err := standings.ParseChain(cfg.Ranking.TieBreaks)
	if err != nil {
		return Definition{}, err
	}
	sim, err := season.Simulator(cfg.Match)
	if err != nil {
		return Definition{}, err
	}
	strengths := make(team.Strengths, len(tier.Teams))
	ids := make([]string, 0, len(tier.Teams))
	for _, t := range tier.Teams {
		ids = append(ids, t.ID)
		strengths[t.ID] = t.Strength
	}
	return Definition{
		ID:        tierID,
		Teams:     ids,
		Config:    competition.FromTier(1, *tier, chain, cfg.HomeAdvantage(match.DefaultHomeAdvantage)),
		Strengths: strengths,
		Sim:       sim,
	}, nil
}

// trial is what one run contributes to the report.
type trial struct {
	placement []string
	points    map[string]int
	promoted  []string
	relegated []string
	playoff   []string
}

// Run plays opts.Trials independent copies of def. Trial i uses the seed
// DeriveSeed(opts.Seed, i) and its own competition state, so the report is
// the same for any worker count. Cancellation is checked before each trial;
// a cancelled run returns a report over the completed trials together with
// the context error.
func Run(ctx context.Context, def Definition, opts Options) (*Report, error) {
	if opts.Trials < 1 {
		return nil, simerr.Configf("trials must be at least 1, got %d", opts.Trials)
	}
	if def.Strengths == nil {
		return nil, simerr.Configf("ranked %s: no strengths", def.ID)
	}
	if def.Sim == nil {
		def.Sim = match.Default()
	}
	if opts.Top < 1 {
		opts.Top = 1
	}
	if opts.Top > len(def.Teams) {
		opts.Top = len(def.Teams)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	// Fail on a bad definition once instead of in every trial.
	if _, err := competition.New(def.ID, def.Teams, def.Config); err != nil {
		return nil, err
	}

	log := logger.WithFields(logrus.Fields{
		"competition": def.ID,
		"trials":      opts.Trials,
		"workers":     workers,
	})
	log.Info("Starting ranked simulation")
	start := time.Now()

	trials := make([]trial, opts.Trials)
	done := make([]bool, opts.Trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range opts.Trials {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := runTrial(def, opts.Seed, i)
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}
			trials[i] = t
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			return nil, err
		}
		// Cancelled: report on the trials that finished.
		var completed []trial
		for i, t := range trials {
			if done[i] {
				completed = append(completed, t)
			}
		}
		log.WithField("completed", len(completed)).Warn("Ranked simulation cancelled")
		if len(completed) == 0 {
			return nil, ctx.Err()
		}
		return aggregate(def, opts, completed), ctx.Err()
	}

	report := aggregate(def, opts, trials)
	log.WithField("elapsed", time.Since(start).String()).Info("Ranked simulation complete")
	return report, nil
}

func runTrial(def Definition, seed int64, i int) (trial, error) {
	c, err := competition.New(fmt.Sprintf("%s-T%d", def.ID, i), def.Teams, def.Config)
	if err != nil {
		return trial{}, err
	}
	rng := rand.New(rand.NewSource(match.DeriveSeed(seed, i)))
	if err := c.Run(c.Engine(def.Sim, def.Strengths, rng)); err != nil {
		return trial{}, err
	}
	out, err := c.Outcome()
	if err != nil {
		return trial{}, err
	}
	points := make(map[string]int, len(out.Standings))
	for _, r := range out.Standings {
		points[r.Team] = r.Points
	}
	return trial{
		placement: out.Placement,
		points:    points,
		promoted:  out.Promoted,
		relegated: out.Relegated,
		playoff:   out.PlayoffParticipants,
	}, nil
}

func aggregate(def Definition, opts Options, trials []trial) *Report {
	n := len(def.Teams)
	type acc struct {
		positions                          []int
		champion, top, promoted, relegated int
		playoff, points, positionSum       int
	}
	accs := make(map[string]*acc, n)
	for _, id := range def.Teams {
		accs[id] = &acc{positions: make([]int, n)}
	}
	for _, t := range trials {
		for pos, id := range t.placement {
			a := accs[id]
			a.positions[pos]++
			a.positionSum += pos + 1
			if pos == 0 {
				a.champion++
			}
			if pos < opts.Top {
				a.top++
			}
		}
		for id, p := range t.points {
			accs[id].points += p
		}
		for _, id := range t.promoted {
			accs[id].promoted++
		}
		for _, id := range t.relegated {
			accs[id].relegated++
		}
		for _, id := range t.playoff {
			accs[id].playoff++
		}
	}

	total := float64(len(trials))
	r := &Report{ID: def.ID, Trials: len(trials), Top: opts.Top}
	for _, id := range def.Teams {
		a := accs[id]
		r.Projections = append(r.Projections, Projection{
			Team:         id,
			Positions:    a.positions,
			Champion:     float64(a.champion) / total,
			TopK:         float64(a.top) / total,
			Promoted:     float64(a.promoted) / total,
			Relegated:    float64(a.relegated) / total,
			Playoff:      float64(a.playoff) / total,
			MeanPoints:   float64(a.points) / total,
			MeanPosition: float64(a.positionSum) / total,
		})
	}
	slices.SortStableFunc(r.Projections, func(a, b Projection) int {
		switch {
		case a.MeanPosition < b.MeanPosition:
			return -1
		case a.MeanPosition > b.MeanPosition:
			return 1
		}
		return 0
	})
	return r
}
