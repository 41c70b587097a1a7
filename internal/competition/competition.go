// Package competition ties a set of teams to a format for one season and
// derives the season outcome once every round has been played.
package competition

import (
	"slices"

	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
	"github.com/derekprior/leaguesim/internal/team"
	"github.com/derekprior/leaguesim/internal/tournament"
)

type Kind string

const (
	League   Kind = "league"
	Knockout Kind = "knockout"
	Group    Kind = "group"
	Swiss    Kind = "swiss"
)

type Status int

const (
	Scheduled Status = iota
	InProgress
	Complete
)

func (s Status) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case InProgress:
		return "in progress"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Zone names a range of final positions, 1-based and inclusive.
type Zone struct {
	Name string
	From int
	To   int
}

// Config describes one competition.
type Config struct {
	Kind          Kind
	Season        int
	Tier          string
	HomeAdvantage float64
	Chain         standings.Chain
	// Legs is the round-robin length of a league: 1 or 2.
	Legs int

	Promote      int
	Relegate     int
	PlayoffTeams int
	// PerGroup counts Promote, Relegate and PlayoffTeams within each group
	// of a group competition.
	PerGroup bool
	Zones    []Zone

	Knockout tournament.BracketConfig
	Group    tournament.GroupConfig
	Swiss    tournament.SwissConfig
}

// FromTier builds the competition config for a configured tier.
func FromTier(season int, t config.Tier, chain standings.Chain, homeAdvantage float64) Config {
	cfg := Config{
		Kind:          Kind(t.Format),
		Season:        season,
		Tier:          t.ID,
		HomeAdvantage: homeAdvantage,
		Chain:         chain,
		Legs:          2,
		Promote:       t.Promote,
		Relegate:      t.Relegate,
	}
	if t.Playoff != nil {
		cfg.PlayoffTeams = t.Playoff.Teams
	}
	for _, z := range t.Zones {
		cfg.Zones = append(cfg.Zones, Zone{Name: z.Name, From: z.From, To: z.To})
	}
	if k := t.Knockout; k != nil {
		cfg.Knockout = tournament.BracketConfig{Legs: k.Legs, FinalLegs: k.FinalLegs, AwayGoals: k.AwayGoals, ExtraTime: k.ExtraTime}
	}
	if g := t.Group; g != nil {
		cfg.Group = tournament.GroupConfig{Size: g.Size, Qualifiers: g.Qualifiers, Legs: g.Legs}
		cfg.PerGroup = g.PerGroup
	}
	if s := t.Swiss; s != nil {
		cfg.Swiss = tournament.SwissConfig{Rounds: s.Rounds, Direct: s.Direct, Playoff: s.Playoff}
	}
	return cfg
}

// Competition is one tier's contest in one season. Results accumulate
// round by round until the competition is Complete.
type Competition struct {
	ID     string
	Season int
	Tier   string
	Kind   Kind

	teams  []string
	cfg    Config
	format Format
	played int
}

// New creates a scheduled competition. Teams are given in seed order.
func New(id string, teams []string, cfg Config) (*Competition, error) {
	if id == "" {
		return nil, simerr.Configf("competition id must not be empty")
	}
	if cfg.Legs == 0 {
		cfg.Legs = 2
	}
	if cfg.Chain == nil {
		cfg.Chain = standings.DefaultChain()
	}
	n := len(teams)
	if cfg.Promote < 0 || cfg.Relegate < 0 || cfg.PlayoffTeams < 0 {
		return nil, simerr.Configf("competition %s: negative movement places", id)
	}
	places := n
	if cfg.PerGroup {
		if cfg.Kind != Group {
			return nil, simerr.Configf("competition %s: per-group places need the group format", id)
		}
		places = cfg.Group.Size
	}
	if cfg.Promote+cfg.PlayoffTeams+cfg.Relegate > places {
		return nil, simerr.Configf("competition %s: %d promotion, %d playoff and %d relegation places exceed %d teams",
			id, cfg.Promote, cfg.PlayoffTeams, cfg.Relegate, places)
	}
	for _, z := range cfg.Zones {
		if z.From < 1 || z.To < z.From || z.To > n {
			return nil, simerr.Configf("competition %s: zone %q (%d-%d) out of range", id, z.Name, z.From, z.To)
		}
	}
	f, err := newFormat(id, teams, cfg)
	if err != nil {
		return nil, err
	}
	return &Competition{
		ID:     id,
		Season: cfg.Season,
		Tier:   cfg.Tier,
		Kind:   cfg.Kind,
		teams:  slices.Clone(teams),
		cfg:    cfg,
		format: f,
	}, nil
}

func (c *Competition) Teams() []string {
	return slices.Clone(c.teams)
}

func (c *Competition) Config() Config {
	return c.cfg
}

// Format exposes the underlying topology, e.g. to read group tables.
func (c *Competition) Format() Format {
	return c.format
}

func (c *Competition) Status() Status {
	switch {
	case c.format.Complete():
		return Complete
	case c.played == 0:
		return Scheduled
	default:
		return InProgress
	}
}

func (c *Competition) TotalRounds() int {
	return c.format.TotalRounds()
}

// Played is the number of rounds resolved so far.
func (c *Competition) Played() int {
	return c.played
}

// WeekFixtures returns the real fixtures of a round; byes are left out.
func (c *Competition) WeekFixtures(round int) ([]*match.Fixture, error) {
	if round < 1 || round > c.format.TotalRounds() {
		return nil, simerr.Lookupf("competition %s has no round %d", c.ID, round)
	}
	all, err := c.format.Round(round)
	if err != nil {
		return nil, err
	}
	out := make([]*match.Fixture, 0, len(all))
	for _, f := range all {
		if !f.IsBye() {
			out = append(out, f)
		}
	}
	return out, nil
}

// Fixtures returns every fixture drawn so far in round order, without byes.
// Unlike WeekFixtures it never draws a new round.
func (c *Competition) Fixtures() []*match.Fixture {
	var out []*match.Fixture
	for r := 1; r <= c.format.Drawn(); r++ {
		fs, err := c.WeekFixtures(r)
		if err != nil {
			break
		}
		out = append(out, fs...)
	}
	return out
}

// Engine returns a match engine using this competition's home advantage.
func (c *Competition) Engine(sim *match.Simulator, strengths team.StrengthProvider, rng match.Rand) *match.Engine {
	return &match.Engine{
		Sim:           sim,
		Strengths:     strengths,
		HomeAdvantage: c.cfg.HomeAdvantage,
		Rand:          rng,
	}
}

// PlayRound resolves the next round.
func (c *Competition) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	if c.format.Complete() {
		return nil, simerr.Statef("competition %s is complete", c.ID)
	}
	fixtures, err := c.format.PlayRound(e)
	if err != nil {
		return nil, err
	}
	c.played++
	return fixtures, nil
}

// Run plays every remaining round.
func (c *Competition) Run(e *match.Engine) error {
	for !c.format.Complete() {
		if _, err := c.PlayRound(e); err != nil {
			return err
		}
	}
	return nil
}

// Standings returns the current ranked table.
func (c *Competition) Standings() []standings.Row {
	return c.format.Ranking()
}

// SimulateMatch plays a one-off match between two teams outside any
// schedule.
func SimulateMatch(e *match.Engine, home, away string) (match.Result, error) {
	f := &match.Fixture{ID: home + "-" + away, Home: home, Away: away}
	if home == away || f.IsBye() {
		return match.Result{}, simerr.Configf("cannot play %s against %s", home, away)
	}
	if err := e.Play(f); err != nil {
		return match.Result{}, err
	}
	return *f.Result, nil
}
