// Package tournament implements the non-league competition formats:
// single-elimination brackets, group stages and Swiss-system league phases.
package tournament

import (
	"fmt"
	"slices"

	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
)

// BracketConfig controls how ties are played.
type BracketConfig struct {
	Legs      int // 1 or 2
	FinalLegs int // 1 or 2
	AwayGoals bool
	ExtraTime bool
}

// Tie is one pairing in a bracket round. Home is the better seed: it hosts a
// single-leg tie and the second leg of a two-legged one.
type Tie struct {
	Round     int
	Home      string
	Away      string
	Bye       bool
	Legs      []*match.Fixture
	ExtraTime *match.Result
	Shootout  bool
	Winner    string
}

// Aggregate returns the goals of Home and Away over all legs and extra time.
func (t *Tie) Aggregate() (int, int) {
	var home, away int
	for _, f := range t.Legs {
		if f.Result == nil {
			continue
		}
		if f.Home == t.Home {
			home += f.Result.HomeGoals
			away += f.Result.AwayGoals
		} else {
			home += f.Result.AwayGoals
			away += f.Result.HomeGoals
		}
	}
	if t.ExtraTime != nil {
		home += t.ExtraTime.HomeGoals
		away += t.ExtraTime.AwayGoals
	}
	return home, away
}

// awayGoals returns the goals each side scored away from home in regular
// time.
func (t *Tie) awayGoals() (int, int) {
	var home, away int
	for _, f := range t.Legs {
		if f.Home == t.Home {
			away += f.Result.AwayGoals
		} else {
			home += f.Result.AwayGoals
		}
	}
	return home, away
}

// Loser returns the eliminated side, or "" for a bye or an undecided tie.
func (t *Tie) Loser() string {
	switch {
	case t.Bye || t.Winner == "":
		return ""
	case t.Winner == t.Home:
		return t.Away
	default:
		return t.Home
	}
}

func (t *Tie) String() string {
	if t.Bye {
		return t.Home + " (bye)"
	}
	h, a := t.Aggregate()
	s := fmt.Sprintf("%s %d-%d %s", t.Home, h, a, t.Away)
	switch {
	case t.Shootout:
		s += " (pens)"
	case t.ExtraTime != nil:
		s += " (aet)"
	}
	return s
}

// BracketRound is one round of a bracket.
type BracketRound struct {
	Number int
	Name   string
	Ties   []*Tie
	played bool
}

// Fixtures returns all legs of the round in tie order.
func (r *BracketRound) Fixtures() []*match.Fixture {
	var out []*match.Fixture
	for _, t := range r.Ties {
		out = append(out, t.Legs...)
	}
	return out
}

// Played reports whether every tie of the round has a winner.
func (r *BracketRound) Played() bool {
	return r.played
}

// BracketResult is the terminal state of a bracket.
type BracketResult struct {
	Winner       string
	RunnerUp     string
	Participants []string
	Rounds       []*BracketRound
	// Placement orders every participant: winner, runner-up, then by the
	// round they went out in (later first) and seed.
	Placement []string
}

// Bracket is a single-elimination knockout. The field is padded to the next
// power of two with byes that go to the top seeds, and every round re-seeds
// so the best remaining seed meets the worst.
type Bracket struct {
	id     string
	cfg    BracketConfig
	seeds  []string
	seed   map[string]int
	alive  []string
	out    map[string]int // team -> round eliminated in
	rounds []*BracketRound
}

// NewBracket builds a bracket from seeds in order, best first.
func NewBracket(id string, seeds []string, cfg BracketConfig) (*Bracket, error) {
	if len(seeds) < 2 {
		return nil, simerr.Configf("bracket %s needs at least 2 teams, got %d", id, len(seeds))
	}
	if cfg.Legs == 0 {
		cfg.Legs = 1
	}
	if cfg.FinalLegs == 0 {
		cfg.FinalLegs = 1
	}
	if (cfg.Legs != 1 && cfg.Legs != 2) || (cfg.FinalLegs != 1 && cfg.FinalLegs != 2) {
		return nil, simerr.Configf("bracket %s: legs must be 1 or 2", id)
	}
	b := &Bracket{
		id:    id,
		cfg:   cfg,
		seeds: slices.Clone(seeds),
		seed:  make(map[string]int, len(seeds)),
		out:   make(map[string]int),
	}
	for i, s := range seeds {
		if s == "" || s == match.Bye {
			return nil, simerr.Configf("bracket %s: invalid team id %q", id, s)
		}
		if _, dup := b.seed[s]; dup {
			return nil, simerr.Configf("bracket %s: duplicate team %q", id, s)
		}
		b.seed[s] = i
	}
	b.alive = slices.Clone(seeds)
	return b, nil
}

// Size is the bracket size: the number of teams rounded up to a power of two.
func (b *Bracket) Size() int {
	size := 1
	for size < len(b.seeds) {
		size *= 2
	}
	return size
}

// TotalRounds is the number of rounds needed to produce a winner.
func (b *Bracket) TotalRounds() int {
	n := 0
	for size := b.Size(); size > 1; size /= 2 {
		n++
	}
	return n
}

func (b *Bracket) Complete() bool {
	return len(b.alive) == 1
}

func (b *Bracket) Rounds() []*BracketRound {
	return b.rounds
}

// Fixtures returns every leg drawn so far.
func (b *Bracket) Fixtures() []*match.Fixture {
	var out []*match.Fixture
	for _, r := range b.rounds {
		out = append(out, r.Fixtures()...)
	}
	return out
}

// Draw pairs the next round, or returns the pending round if it has been
// drawn but not played.
func (b *Bracket) Draw() (*BracketRound, error) {
	if n := len(b.rounds); n > 0 && !b.rounds[n-1].played {
		return b.rounds[n-1], nil
	}
	if b.Complete() {
		return nil, simerr.Statef("bracket %s is complete", b.id)
	}

	number := len(b.rounds) + 1
	round := &BracketRound{Number: number}

	contenders := b.alive
	if number == 1 {
		byes := b.Size() - len(b.alive)
		for _, s := range b.alive[:byes] {
			round.Ties = append(round.Ties, &Tie{Round: number, Home: s, Bye: true, Winner: s})
		}
		contenders = b.alive[byes:]
	}
	round.Name = roundName(b.Size() >> (number - 1))

	legs := b.cfg.Legs
	if len(b.alive) == 2 {
		legs = b.cfg.FinalLegs
	}
	for i := 0; i < len(contenders)/2; i++ {
		high, low := contenders[i], contenders[len(contenders)-1-i]
		tie := &Tie{Round: number, Home: high, Away: low}
		if legs == 2 {
			tie.Legs = []*match.Fixture{
				b.fixture(number, 1, low, high),
				b.fixture(number, 2, high, low),
			}
		} else {
			tie.Legs = []*match.Fixture{b.fixture(number, 0, high, low)}
		}
		round.Ties = append(round.Ties, tie)
	}

	b.rounds = append(b.rounds, round)
	return round, nil
}

// PlayRound draws (if needed) and plays the next round.
func (b *Bracket) PlayRound(e *match.Engine) (*BracketRound, error) {
	round, err := b.Draw()
	if err != nil {
		return nil, err
	}
	for _, tie := range round.Ties {
		if tie.Bye {
			continue
		}
		if err := b.decide(tie, e); err != nil {
			return nil, err
		}
	}

	var next []string
	for _, tie := range round.Ties {
		next = append(next, tie.Winner)
		if l := tie.Loser(); l != "" {
			b.out[l] = round.Number
		}
	}
	slices.SortFunc(next, func(x, y string) int { return b.seed[x] - b.seed[y] })
	b.alive = next
	round.played = true
	return round, nil
}

// Run plays every remaining round.
func (b *Bracket) Run(e *match.Engine) (BracketResult, error) {
	for !b.Complete() {
		if _, err := b.PlayRound(e); err != nil {
			return BracketResult{}, err
		}
	}
	return b.Result()
}

func (b *Bracket) Winner() (string, error) {
	if !b.Complete() {
		return "", simerr.Statef("bracket %s has no winner yet", b.id)
	}
	return b.alive[0], nil
}

// Result summarises a completed bracket.
func (b *Bracket) Result() (BracketResult, error) {
	winner, err := b.Winner()
	if err != nil {
		return BracketResult{}, err
	}
	res := BracketResult{
		Winner:       winner,
		Participants: slices.Clone(b.seeds),
		Rounds:       b.rounds,
	}
	if n := len(b.rounds); n > 0 {
		for _, tie := range b.rounds[n-1].Ties {
			if l := tie.Loser(); l != "" {
				res.RunnerUp = l
			}
		}
	}
	res.Placement = append([]string{winner}, b.eliminated()...)
	return res, nil
}

// eliminated returns the beaten teams, latest exit first, then by seed.
func (b *Bracket) eliminated() []string {
	var out []string
	for s := range b.out {
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y string) int {
		if b.out[x] != b.out[y] {
			return b.out[y] - b.out[x]
		}
		return b.seed[x] - b.seed[y]
	})
	return out
}

func (b *Bracket) decide(tie *Tie, e *match.Engine) error {
	for _, f := range tie.Legs {
		if f.Resolved() {
			continue
		}
		if err := e.Play(f); err != nil {
			return err
		}
	}

	home, away := tie.Aggregate()
	if home != away {
		tie.Winner = pick(home > away, tie)
		return nil
	}

	if len(tie.Legs) == 2 && b.cfg.AwayGoals {
		ha, aa := tie.awayGoals()
		if ha != aa {
			tie.Winner = pick(ha > aa, tie)
			return nil
		}
	}

	if b.cfg.ExtraTime {
		// Extra time is played at the venue of the last leg.
		last := tie.Legs[len(tie.Legs)-1]
		et, err := e.ExtraTime(last.Home, last.Away)
		if err != nil {
			return err
		}
		if last.Home != tie.Home {
			et = match.Result{HomeGoals: et.AwayGoals, AwayGoals: et.HomeGoals}
		}
		tie.ExtraTime = &et
		if et.HomeGoals != et.AwayGoals {
			tie.Winner = pick(et.HomeGoals > et.AwayGoals, tie)
			return nil
		}
	}

	won, err := e.Shootout(tie.Home, tie.Away)
	if err != nil {
		return err
	}
	tie.Shootout = true
	tie.Winner = pick(won, tie)
	return nil
}

func pick(homeWins bool, tie *Tie) string {
	if homeWins {
		return tie.Home
	}
	return tie.Away
}

func (b *Bracket) fixture(round, leg int, home, away string) *match.Fixture {
	id := fmt.Sprintf("%s-R%d-%s-%s", b.id, round, home, away)
	if leg > 0 {
		id = fmt.Sprintf("%s-R%d-L%d-%s-%s", b.id, round, leg, home, away)
	}
	return &match.Fixture{ID: id, Round: round, Leg: leg, Home: home, Away: away}
}

func roundName(teams int) string {
	switch teams {
	case 2:
		return "Final"
	case 4:
		return "Semi-finals"
	case 8:
		return "Quarter-finals"
	default:
		return fmt.Sprintf("Round of %d", teams)
	}
}
