// Package schedule builds round-robin fixture lists and places rounds on
// calendar dates.
package schedule

import (
	"fmt"

	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/simerr"
)

// Bye is the placeholder opponent used when a round-robin has an odd number
// of teams. A fixture against Bye is never played.
const Bye = match.Bye

// Round is one matchday: every team appears in exactly one of its fixtures.
type Round struct {
	Number   int
	Fixtures []*match.Fixture
}

// SingleRoundRobin returns N-1 rounds (N rounded up to even) in which every
// pair of teams meets once.
func SingleRoundRobin(teams []string) ([]Round, error) {
	return RoundRobin(teams, 1)
}

// DoubleRoundRobin returns 2(N-1) rounds. The second half repeats the first
// with home and away swapped, so every ordered pair meets exactly once.
func DoubleRoundRobin(teams []string) ([]Round, error) {
	return RoundRobin(teams, 2)
}

// RoundRobin generates a circle-method schedule with the given number of
// legs (1 or 2). The output depends only on the order of teams.
func RoundRobin(teams []string, legs int) ([]Round, error) {
	if legs != 1 && legs != 2 {
		return nil, simerr.Configf("round-robin legs must be 1 or 2, got %d", legs)
	}
	if err := checkTeams(teams); err != nil {
		return nil, err
	}

	list := append([]string(nil), teams...)
	if len(list)%2 == 1 {
		list = append(list, Bye)
	}
	n := len(list)
	perLeg := n - 1

	rounds := make([]Round, 0, perLeg*legs)
	for r := 0; r < perLeg; r++ {
		round := Round{Number: r + 1}
		for i := 0; i < n/2; i++ {
			home, away := list[i], list[n-1-i]
			// The fixed team alternates venue every round; the rest alternate
			// by board position so venues stay balanced.
			if (i == 0 && r%2 == 1) || (i > 0 && i%2 == 1) {
				home, away = away, home
			}
			round.Fixtures = append(round.Fixtures, newFixture(round.Number, 1, home, away))
		}
		rounds = append(rounds, round)

		// Rotate everything except the first slot one step clockwise.
		last := list[n-1]
		copy(list[2:], list[1:n-1])
		list[1] = last
	}

	if legs == 2 {
		for r := 0; r < perLeg; r++ {
			round := Round{Number: perLeg + r + 1}
			for _, f := range rounds[r].Fixtures {
				round.Fixtures = append(round.Fixtures, newFixture(round.Number, 2, f.Away, f.Home))
			}
			rounds = append(rounds, round)
		}
	}

	return rounds, nil
}

// Fixtures flattens rounds into a single slice in round order.
func Fixtures(rounds []Round) []*match.Fixture {
	var all []*match.Fixture
	for _, r := range rounds {
		all = append(all, r.Fixtures...)
	}
	return all
}

func newFixture(round, leg int, home, away string) *match.Fixture {
	return &match.Fixture{
		ID:    fmt.Sprintf("R%d-%s-%s", round, home, away),
		Round: round,
		Leg:   leg,
		Home:  home,
		Away:  away,
	}
}

func checkTeams(teams []string) error {
	if len(teams) < 2 {
		return simerr.Configf("round-robin needs at least 2 teams, got %d", len(teams))
	}
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		switch {
		case t == "":
			return simerr.Configf("team id must not be empty")
		case t == Bye:
			return simerr.Configf("team id %q is reserved", Bye)
		case seen[t]:
			return simerr.Configf("duplicate team %q", t)
		}
		seen[t] = true
	}
	return nil
}
