package season

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/standings"
	"github.com/derekprior/leaguesim/internal/team"
)

// Report is everything that happened in one season.
type Report struct {
	Season       int
	Year         int
	Competitions []*competition.Competition
	Outcomes     []competition.Outcome
	Strengths    team.Strengths
	// Pool is the pool the season was played with, for team names.
	Pool       *team.Pool
	Transition Result
}

// Runner drives a configured pyramid through consecutive seasons. Tiers of a
// season are played in parallel; each tier gets its own random stream
// derived from the seed, season and tier index, so results do not depend
// on scheduling.
type Runner struct {
	cfg     *config.Config
	graph   *Graph
	chain   standings.Chain
	sim     *match.Simulator
	homeAdv float64
	pool    *team.Pool
	logger  *logrus.Logger
	workers int

	// SquadChanges, when set, is asked for strength updates after each
	// season.
	SquadChanges func(season int, current team.Strengths) []team.SquadChange
}

// NewRunner builds a runner from a validated configuration.
func NewRunner(cfg *config.Config, logger *logrus.Logger) (*Runner, error) {
	if logger == nil {
		logger = logrus.New()
	}
	graph, err := NewGraph(cfg.Tiers)
	if err != nil {
		return nil, err
	}
	chain, err := standings.ParseChain(cfg.Ranking.TieBreaks)
	if err != nil {
		return nil, err
	}
	sim, err := Simulator(cfg.Match)
	if err != nil {
		return nil, err
	}
	pool := team.NewPool()
	for _, t := range cfg.Tiers {
		for _, tm := range t.Teams {
			if err := pool.Add(team.Team{ID: tm.ID, Name: tm.Name, Division: t.ID}, tm.Strength); err != nil {
				return nil, err
			}
		}
	}
	return &Runner{
		cfg:     cfg,
		graph:   graph,
		chain:   chain,
		sim:     sim,
		homeAdv: cfg.HomeAdvantage(match.DefaultHomeAdvantage),
		pool:    pool,
		logger:  logger,
		workers: cfg.Ranked.Workers,
	}, nil
}

// Simulator builds the goal model from the match settings, keeping the
// defaults for anything unset.
func Simulator(m config.Match) (*match.Simulator, error) {
	p := match.DefaultParams()
	if m.BaseGoals > 0 {
		p.BaseGoals = m.BaseGoals
	}
	if m.StrengthScale > 0 {
		p.Scale = m.StrengthScale
	}
	return match.NewSimulator(p)
}

func (r *Runner) Graph() *Graph {
	return r.graph
}

func (r *Runner) Pool() *team.Pool {
	return r.pool
}

// Competitions creates one competition per tier for a season. Rosters map
// tier ids to teams in seed order.
func (r *Runner) Competitions(season int, rosters map[string][]string) ([]*competition.Competition, error) {
	var comps []*competition.Competition
	for _, id := range r.graph.Tiers() {
		tier, _ := r.cfg.Tier(id)
		cfg := competition.FromTier(season, *tier, r.chain, r.homeAdv)
		c, err := competition.New(fmt.Sprintf("S%d-%s", season, id), rosters[id], cfg)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", season, err)
		}
		comps = append(comps, c)
	}
	return comps, nil
}

// PlaySeason runs every competition to completion and returns the
// outcomes in the same order.
func (r *Runner) PlaySeason(ctx context.Context, season int, comps []*competition.Competition, strengths team.Strengths) ([]competition.Outcome, error) {
	outcomes := make([]competition.Outcome, len(comps))
	g, ctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}
	for i, c := range comps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := match.NewRand(r.cfg.Season.Seed, season, i)
			if err := c.Run(c.Engine(r.sim, strengths, rng)); err != nil {
				return fmt.Errorf("season %d tier %s: %w", season, c.Tier, err)
			}
			out, err := c.Outcome()
			if err != nil {
				return err
			}
			outcomes[i] = out
			r.logger.WithFields(logrus.Fields{
				"season":   season,
				"tier":     c.Tier,
				"champion": out.Champion,
				"fixtures": len(c.Fixtures()),
			}).Debug("Tier complete")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// Run plays all configured seasons. It stops between seasons when ctx is
// cancelled and returns the reports completed so far with the context
// error.
func (r *Runner) Run(ctx context.Context) ([]Report, error) {
	rosters := make(map[string][]string)
	for _, id := range r.graph.Tiers() {
		rosters[id] = r.pool.Division(id)
	}
	pool := r.pool

	var reports []Report
	for s := 1; s <= r.cfg.Season.Seasons; s++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		log := r.logger.WithFields(logrus.Fields{"season": s, "year": r.year(s)})
		log.Info("Starting season")

		comps, err := r.Competitions(s, rosters)
		if err != nil {
			return reports, err
		}
		strengths := pool.Snapshot()
		outcomes, err := r.PlaySeason(ctx, s, comps, strengths)
		if err != nil {
			return reports, err
		}

		byTier := make(map[string]competition.Outcome, len(outcomes))
		for _, o := range outcomes {
			byTier[o.Tier] = o
		}
		var changes []team.SquadChange
		if r.SquadChanges != nil {
			changes = r.SquadChanges(s, strengths)
		}
		tr, err := Transition(Input{
			Season:    s,
			Outcomes:  byTier,
			Graph:     r.graph,
			Pool:      pool,
			Changes:   changes,
			Overrides: r.overrides(s + 1),
			Engine: &match.Engine{
				Sim:           r.sim,
				Strengths:     strengths,
				HomeAdvantage: r.homeAdv,
				Rand:          match.NewRand(r.cfg.Season.Seed, s, len(comps)),
			},
		})
		if err != nil {
			return reports, fmt.Errorf("season %d transition: %w", s, err)
		}
		for _, m := range tr.Movements {
			log.WithFields(logrus.Fields{
				"team":   m.Team,
				"from":   m.From,
				"to":     m.To,
				"reason": m.Reason,
			}).Debug("Team moved")
		}
		log.WithField("movements", len(tr.Movements)).Info("Season complete")

		reports = append(reports, Report{
			Season:       s,
			Year:         r.year(s),
			Competitions: comps,
			Outcomes:     outcomes,
			Strengths:    strengths,
			Pool:         pool,
			Transition:   tr,
		})
		pool = tr.Pool
		rosters = tr.Rosters
	}
	return reports, nil
}

func (r *Runner) overrides(season int) []Override {
	var out []Override
	for _, o := range r.cfg.Overrides {
		if o.Season != season {
			continue
		}
		out = append(out, Override{
			Action:   o.Action,
			Team:     o.Team,
			Name:     o.Name,
			Tier:     o.Tier,
			Strength: o.Strength,
		})
	}
	return out
}

func (r *Runner) year(season int) int {
	if r.cfg.Season.StartYear == 0 {
		return season
	}
	return r.cfg.Season.StartYear + season - 1
}
