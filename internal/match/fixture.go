package match

import (
	"fmt"

	"github.com/derekprior/leaguesim/internal/simerr"
)

// Bye is the placeholder team id used to pad odd rosters. Fixtures against it
// are never simulated.
const Bye = "~bye"

// Result is the final score of a fixture.
type Result struct {
	HomeGoals int
	AwayGoals int
}

func (r Result) HomeWin() bool { return r.HomeGoals > r.AwayGoals }
func (r Result) AwayWin() bool { return r.AwayGoals > r.HomeGoals }
func (r Result) Draw() bool    { return r.HomeGoals == r.AwayGoals }

func (r Result) String() string {
	return fmt.Sprintf("%d-%d", r.HomeGoals, r.AwayGoals)
}

// Fixture is a single scheduled match. Result stays nil until Resolve is
// called, which may happen at most once.
type Fixture struct {
	ID     string
	Round  int
	Leg    int // 1 or 2 for round-robin halves and two-legged ties, else 0
	Home   string
	Away   string
	Result *Result
}

// IsBye reports whether the fixture pairs a team with the bye placeholder.
func (f *Fixture) IsBye() bool {
	return f.Home == Bye || f.Away == Bye
}

func (f *Fixture) Resolved() bool {
	return f.Result != nil
}

// Involves reports whether team plays in this fixture.
func (f *Fixture) Involves(team string) bool {
	return f.Home == team || f.Away == team
}

// Resolve attaches a result to the fixture.
func (f *Fixture) Resolve(r Result) error {
	if f.IsBye() {
		return simerr.Statef("fixture %s is a bye and cannot be resolved", f.ID)
	}
	if f.Resolved() {
		return simerr.Statef("fixture %s already resolved as %s", f.ID, f.Result)
	}
	if r.HomeGoals < 0 || r.AwayGoals < 0 {
		return simerr.Configf("fixture %s: negative score %s", f.ID, r)
	}
	f.Result = &r
	return nil
}

func (f *Fixture) String() string {
	if f.Result == nil {
		return fmt.Sprintf("%s vs %s", f.Home, f.Away)
	}
	return fmt.Sprintf("%s %d - %d %s", f.Home, f.Result.HomeGoals, f.Result.AwayGoals, f.Away)
}
