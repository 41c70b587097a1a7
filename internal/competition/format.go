package competition

import (
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/schedule"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
	"github.com/derekprior/leaguesim/internal/tournament"
)

// Format is the capability set every competition topology provides.
type Format interface {
	TotalRounds() int
	// Drawn is the number of rounds whose fixtures exist. Knockout and
	// Swiss rounds are drawn one at a time.
	Drawn() int
	// Round returns the fixtures of round n, drawing it if it is the next
	// round and the previous one has been played.
	Round(n int) ([]*match.Fixture, error)
	PlayRound(e *match.Engine) ([]*match.Fixture, error)
	Complete() bool
	// Ranking is the current table. For a finished knockout it follows the
	// bracket placement.
	Ranking() []standings.Row
	// Placement is the final order of every participant.
	Placement() []string
}

// newFormat returns the Format for a kind.
func newFormat(id string, teams []string, cfg Config) (Format, error) {
	switch cfg.Kind {
	case League:
		return newLeague(teams, cfg)
	case Knockout:
		b, err := tournament.NewBracket(id, teams, cfg.Knockout)
		if err != nil {
			return nil, err
		}
		table, err := standings.New(teams)
		if err != nil {
			return nil, err
		}
		return &knockoutFormat{bracket: b, table: table, chain: cfg.Chain}, nil
	case Group:
		gc := cfg.Group
		gc.Chain = cfg.Chain
		g, err := tournament.NewGroupStage(id, teams, gc)
		if err != nil {
			return nil, err
		}
		return &groupFormat{stage: g}, nil
	case Swiss:
		sc := cfg.Swiss
		sc.Chain = cfg.Chain
		s, err := tournament.NewSwiss(id, teams, sc)
		if err != nil {
			return nil, err
		}
		return &swissFormat{swiss: s}, nil
	default:
		return nil, simerr.Configf("unknown competition kind %q", cfg.Kind)
	}
}

// leagueFormat is a round-robin with a single table.
type leagueFormat struct {
	rounds []schedule.Round
	table  *standings.Table
	chain  standings.Chain
	played int
}

func newLeague(teams []string, cfg Config) (*leagueFormat, error) {
	rounds, err := schedule.RoundRobin(teams, cfg.Legs)
	if err != nil {
		return nil, err
	}
	table, err := standings.New(teams)
	if err != nil {
		return nil, err
	}
	return &leagueFormat{rounds: rounds, table: table, chain: cfg.Chain}, nil
}

func (l *leagueFormat) TotalRounds() int { return len(l.rounds) }
func (l *leagueFormat) Drawn() int       { return len(l.rounds) }
func (l *leagueFormat) Complete() bool   { return l.played == len(l.rounds) }

func (l *leagueFormat) Round(n int) ([]*match.Fixture, error) {
	if n < 1 || n > len(l.rounds) {
		return nil, simerr.Lookupf("no round %d", n)
	}
	return l.rounds[n-1].Fixtures, nil
}

func (l *leagueFormat) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	fixtures := l.rounds[l.played].Fixtures
	for _, f := range fixtures {
		if f.IsBye() {
			continue
		}
		if err := e.Play(f); err != nil {
			return nil, err
		}
		if err := l.table.Apply(f); err != nil {
			return nil, err
		}
	}
	l.played++
	return fixtures, nil
}

func (l *leagueFormat) Ranking() []standings.Row {
	return l.table.Ranked(l.chain)
}

func (l *leagueFormat) Placement() []string {
	return standings.Teams(l.Ranking())
}

// knockoutFormat wraps a bracket. Every played leg also goes into a table
// for reporting.
type knockoutFormat struct {
	bracket *tournament.Bracket
	table   *standings.Table
	chain   standings.Chain
	played  int
}

func (k *knockoutFormat) TotalRounds() int { return k.bracket.TotalRounds() }
func (k *knockoutFormat) Drawn() int       { return len(k.bracket.Rounds()) }
func (k *knockoutFormat) Complete() bool   { return k.bracket.Complete() }

func (k *knockoutFormat) Round(n int) ([]*match.Fixture, error) {
	rounds := k.bracket.Rounds()
	switch {
	case n >= 1 && n <= len(rounds):
		return rounds[n-1].Fixtures(), nil
	case n == len(rounds)+1 && k.played == len(rounds) && !k.bracket.Complete():
		r, err := k.bracket.Draw()
		if err != nil {
			return nil, err
		}
		return r.Fixtures(), nil
	}
	return nil, simerr.Lookupf("round %d has not been drawn", n)
}

func (k *knockoutFormat) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	r, err := k.bracket.PlayRound(e)
	if err != nil {
		return nil, err
	}
	for _, f := range r.Fixtures() {
		if err := k.table.Apply(f); err != nil {
			return nil, err
		}
	}
	k.played++
	return r.Fixtures(), nil
}

func (k *knockoutFormat) Ranking() []standings.Row {
	if !k.bracket.Complete() {
		return k.table.Ranked(k.chain)
	}
	byTeam := make(map[string]standings.Row)
	for _, r := range k.table.Rows() {
		byTeam[r.Team] = r
	}
	placement := k.Placement()
	rows := make([]standings.Row, 0, len(placement))
	for _, id := range placement {
		rows = append(rows, byTeam[id])
	}
	return rows
}

func (k *knockoutFormat) Placement() []string {
	res, err := k.bracket.Result()
	if err != nil {
		return nil
	}
	return res.Placement
}

type groupFormat struct {
	stage *tournament.GroupStage
}

func (g *groupFormat) TotalRounds() int { return g.stage.TotalRounds() }
func (g *groupFormat) Drawn() int       { return g.stage.TotalRounds() }
func (g *groupFormat) Complete() bool   { return g.stage.Complete() }

func (g *groupFormat) Round(n int) ([]*match.Fixture, error) {
	return g.stage.Round(n)
}

func (g *groupFormat) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	return g.stage.PlayRound(e)
}

func (g *groupFormat) Ranking() []standings.Row {
	return g.stage.Ranking()
}

func (g *groupFormat) Placement() []string {
	return standings.Teams(g.stage.Ranking())
}

type swissFormat struct {
	swiss *tournament.Swiss
}

func (s *swissFormat) TotalRounds() int { return s.swiss.TotalRounds() }
func (s *swissFormat) Drawn() int       { return s.swiss.Drawn() }
func (s *swissFormat) Complete() bool   { return s.swiss.Complete() }

func (s *swissFormat) Round(n int) ([]*match.Fixture, error) {
	drawn := s.swiss.Drawn()
	switch {
	case n >= 1 && n <= drawn:
		return s.swiss.Round(n)
	case n == drawn+1 && n <= s.swiss.TotalRounds() && (drawn == 0 || s.swiss.RoundPlayed(drawn)):
		return s.swiss.Pair()
	}
	return nil, simerr.Lookupf("round %d has not been drawn", n)
}

func (s *swissFormat) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	return s.swiss.PlayRound(e)
}

func (s *swissFormat) Ranking() []standings.Row {
	return s.swiss.Ranking()
}

func (s *swissFormat) Placement() []string {
	return standings.Teams(s.swiss.Ranking())
}
