package tournament

import (
	"fmt"

	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
	"github.com/derekprior/leaguesim/internal/standings"
)

// pairingBudget caps the backtracking search for a rematch-free round.
const pairingBudget = 200000

type SwissConfig struct {
	Rounds  int
	Direct  int
	Playoff int
	Chain   standings.Chain
}

// Qualification splits a final Swiss ranking into bands.
type Qualification struct {
	Direct     []string
	Playoff    []string
	Eliminated []string
}

// Swiss is a league phase where every team plays a fixed number of rounds
// against opponents with similar records.
type Swiss struct {
	id        string
	cfg       SwissConfig
	table     *standings.Table
	met       map[[2]string]bool
	home      map[string]int
	rounds    [][]*match.Fixture
	rematches int
}

func NewSwiss(id string, teams []string, cfg SwissConfig) (*Swiss, error) {
	if len(teams) < 2 || len(teams)%2 != 0 {
		return nil, simerr.Configf("swiss %s needs an even number of teams, got %d", id, len(teams))
	}
	if cfg.Rounds < 1 {
		return nil, simerr.Configf("swiss %s needs at least one round", id)
	}
	if cfg.Direct < 0 || cfg.Playoff < 0 || cfg.Direct+cfg.Playoff > len(teams) {
		return nil, simerr.Configf("swiss %s: %d direct and %d playoff places exceed %d teams", id, cfg.Direct, cfg.Playoff, len(teams))
	}
	if cfg.Chain == nil {
		cfg.Chain = standings.DefaultChain()
	}
	table, err := standings.New(teams)
	if err != nil {
		return nil, err
	}
	return &Swiss{
		id:    id,
		cfg:   cfg,
		table: table,
		met:   make(map[[2]string]bool),
		home:  make(map[string]int),
	}, nil
}

func (s *Swiss) TotalRounds() int {
	return s.cfg.Rounds
}

func (s *Swiss) Complete() bool {
	return len(s.rounds) == s.cfg.Rounds && s.roundPlayed(len(s.rounds))
}

func (s *Swiss) Table() *standings.Table {
	return s.table
}

// Drawn is the number of rounds paired so far.
func (s *Swiss) Drawn() int {
	return len(s.rounds)
}

// RoundPlayed reports whether every fixture of round n is in the table.
func (s *Swiss) RoundPlayed(n int) bool {
	if n < 1 || n > len(s.rounds) {
		return false
	}
	return s.roundPlayed(n)
}

// Rematches counts pairings that repeated an earlier meeting because no
// rematch-free pairing existed.
func (s *Swiss) Rematches() int {
	return s.rematches
}

// Round returns the fixtures of a drawn round.
func (s *Swiss) Round(n int) ([]*match.Fixture, error) {
	if n < 1 || n > len(s.rounds) {
		return nil, simerr.Lookupf("swiss %s has no round %d", s.id, n)
	}
	return s.rounds[n-1], nil
}

// Pair draws the next round, or returns the pending one if it has not been
// played yet. Teams are ordered by the current ranking and each is paired
// with the closest-ranked opponent it has not met.
func (s *Swiss) Pair() ([]*match.Fixture, error) {
	if n := len(s.rounds); n > 0 && !s.roundPlayed(n) {
		return s.rounds[n-1], nil
	}
	if len(s.rounds) == s.cfg.Rounds {
		return nil, simerr.Statef("swiss %s is complete", s.id)
	}

	order := standings.Teams(s.Ranking())
	pairs, ok := s.search(order)
	if !ok {
		pairs = s.greedy(order)
	}

	number := len(s.rounds) + 1
	fixtures := make([]*match.Fixture, 0, len(pairs))
	for _, p := range pairs {
		home, away := p[0], p[1]
		if s.home[away] < s.home[home] {
			home, away = away, home
		}
		if s.met[key(home, away)] {
			s.rematches++
		}
		s.met[key(home, away)] = true
		s.home[home]++
		fixtures = append(fixtures, &match.Fixture{
			ID:    fmt.Sprintf("%s-R%d-%s-%s", s.id, number, home, away),
			Round: number,
			Home:  home,
			Away:  away,
		})
	}
	s.rounds = append(s.rounds, fixtures)
	return fixtures, nil
}

// PlayRound pairs (if needed) and plays the next round.
func (s *Swiss) PlayRound(e *match.Engine) ([]*match.Fixture, error) {
	fixtures, err := s.Pair()
	if err != nil {
		return nil, err
	}
	for _, f := range fixtures {
		if err := e.Play(f); err != nil {
			return nil, err
		}
		if err := s.table.Apply(f); err != nil {
			return nil, err
		}
	}
	return fixtures, nil
}

// Ranking returns the current table ordered by the chain.
func (s *Swiss) Ranking() []standings.Row {
	return s.table.Ranked(s.cfg.Chain)
}

// Qualification splits the final ranking into direct, playoff and
// eliminated bands.
func (s *Swiss) Qualification() (Qualification, error) {
	if !s.Complete() {
		return Qualification{}, simerr.Statef("swiss %s is not complete", s.id)
	}
	order := standings.Teams(s.Ranking())
	d, p := s.cfg.Direct, s.cfg.Direct+s.cfg.Playoff
	return Qualification{
		Direct:     order[:d],
		Playoff:    order[d:p],
		Eliminated: order[p:],
	}, nil
}

func (s *Swiss) roundPlayed(n int) bool {
	for _, f := range s.rounds[n-1] {
		if !s.table.Has(f.ID) {
			return false
		}
	}
	return true
}

// search finds a perfect pairing without rematches by depth-first
// backtracking, trying nearest-ranked opponents first.
func (s *Swiss) search(order []string) ([][2]string, bool) {
	used := make([]bool, len(order))
	pairs := make([][2]string, 0, len(order)/2)
	steps := 0

	var walk func() bool
	walk = func() bool {
		first := -1
		for i, u := range used {
			if !u {
				first = i
				break
			}
		}
		if first < 0 {
			return true
		}
		used[first] = true
		for j := first + 1; j < len(order); j++ {
			if used[j] || s.met[key(order[first], order[j])] {
				continue
			}
			steps++
			if steps > pairingBudget {
				break
			}
			used[j] = true
			pairs = append(pairs, [2]string{order[first], order[j]})
			if walk() {
				return true
			}
			pairs = pairs[:len(pairs)-1]
			used[j] = false
		}
		used[first] = false
		return false
	}

	if walk() {
		return pairs, true
	}
	return nil, false
}

// greedy pairs every team with the nearest unused opponent, preferring ones
// it has not met.
func (s *Swiss) greedy(order []string) [][2]string {
	used := make([]bool, len(order))
	var pairs [][2]string
	for i := range order {
		if used[i] {
			continue
		}
		used[i] = true
		pick := -1
		for j := i + 1; j < len(order); j++ {
			if used[j] {
				continue
			}
			if pick < 0 {
				pick = j
			}
			if !s.met[key(order[i], order[j])] {
				pick = j
				break
			}
		}
		used[pick] = true
		pairs = append(pairs, [2]string{order[i], order[pick]})
	}
	return pairs
}

func key(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
