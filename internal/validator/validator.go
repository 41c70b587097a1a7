package validator

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/excel"
	"github.com/derekprior/leaguesim/internal/standings"
)

// Violation represents an inconsistency found in a season workbook.
type Violation struct {
	Sheet   string
	Row     int
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a season workbook and checks its tables, fixtures and
// movements against each other and the config.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	chain, err := standings.ParseChain(cfg.Ranking.TieBreaks)
	if err != nil {
		return nil, err
	}
	kinds, err := readKinds(f)
	if err != nil {
		return nil, fmt.Errorf("reading summary: %w", err)
	}
	rows, err := readTables(f)
	if err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	fixtures, blackouts, err := readFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	moves, err := readMovements(f)
	if err != nil {
		return nil, fmt.Errorf("reading movements: %w", err)
	}

	var violations []Violation

	// Per-row arithmetic.
	violations = append(violations, checkRows(rows)...)

	// Per-table consistency.
	violations = append(violations, checkGoalBalance(rows)...)
	violations = append(violations, checkPositions(rows)...)
	violations = append(violations, checkOrder(rows, kinds, chain)...)
	violations = append(violations, checkSingleTier(rows)...)

	// Tables against fixtures.
	violations = append(violations, checkFixtureTotals(rows, fixtures, kinds)...)
	violations = append(violations, checkBlackouts(fixtures, blackouts)...)

	// Movements against next season's tables.
	violations = append(violations, checkMovements(rows, moves)...)

	return violations, nil
}

type tableKey struct {
	season int
	tier   string
}

type tableRow struct {
	Row, Season, Pos            int
	Tier, Team                  string
	P, W, D, L, GF, GA, GD, Pts int
}

type fixtureRow struct {
	Row    int
	Season int
	Tier   string
	Date   string
	Home   string
	Away   string
	HG, AG int
	Played bool
}

type blackoutRow struct {
	Row    int
	Season int
	Date   string
	Reason string
}

type movementRow struct {
	Row    int
	Season int
	Team   string
	From   string
	To     string
	Reason string
}

func readKinds(f *excelize.File) (map[tableKey]competition.Kind, error) {
	rows, err := f.GetRows(excel.SheetSummary)
	if err != nil {
		return nil, err
	}
	kinds := make(map[tableKey]competition.Kind)
	for i, row := range rows {
		if i == 0 || len(row) < 4 {
			continue
		}
		season, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		if k, ok := excel.Kind(row[3]); ok {
			kinds[tableKey{season, row[2]}] = k
		}
	}
	return kinds, nil
}

func readTables(f *excelize.File) ([]tableRow, error) {
	rows, err := f.GetRows(excel.SheetTables)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", excel.SheetTables)
	}

	var out []tableRow
	for i, row := range rows {
		if i == 0 || len(row) < 13 || row[0] == "" {
			continue
		}
		nums, err := atois(row[0], row[2], row[5], row[6], row[7], row[8], row[9], row[10], row[11], row[12])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, tableRow{
			Row: i + 1, Season: nums[0], Tier: row[1], Pos: nums[1], Team: row[3],
			P: nums[2], W: nums[3], D: nums[4], L: nums[5],
			GF: nums[6], GA: nums[7], GD: nums[8], Pts: nums[9],
		})
	}
	return out, nil
}

func readFixtures(f *excelize.File) ([]fixtureRow, []blackoutRow, error) {
	rows, err := f.GetRows(excel.SheetFixtures)
	if err != nil {
		return nil, nil, err
	}
	var fixtures []fixtureRow
	var blackouts []blackoutRow
	for i, row := range rows {
		if i == 0 || len(row) < 6 || row[0] == "" {
			continue
		}
		season, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		// Rows without a round are blacked-out dates.
		if row[2] == "" {
			blackouts = append(blackouts, blackoutRow{Row: i + 1, Season: season, Date: row[3], Reason: row[5]})
			continue
		}
		if len(row) < 9 {
			continue
		}
		fx := fixtureRow{Row: i + 1, Season: season, Tier: row[1], Date: row[3], Home: row[5], Away: row[8]}
		if row[6] != "" && row[7] != "" {
			goals, err := atois(row[6], row[7])
			if err != nil {
				return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			fx.HG, fx.AG, fx.Played = goals[0], goals[1], true
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, blackouts, nil
}

func readMovements(f *excelize.File) ([]movementRow, error) {
	rows, err := f.GetRows(excel.SheetMovements)
	if err != nil {
		return nil, err
	}
	var out []movementRow
	for i, row := range rows {
		if i == 0 || len(row) < 6 {
			continue
		}
		season, err := strconv.Atoi(row[0])
		if err != nil {
			continue
		}
		out = append(out, movementRow{Row: i + 1, Season: season, Team: row[1], From: row[3], To: row[4], Reason: row[5]})
	}
	return out, nil
}

func atois(values ...string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		out[i] = n
	}
	return out, nil
}

func checkRows(rows []tableRow) []Violation {
	var violations []Violation
	add := func(r tableRow, format string, args ...any) {
		violations = append(violations, Violation{
			Sheet:   excel.SheetTables,
			Row:     r.Row,
			Type:    "error",
			Message: fmt.Sprintf("season %d %s: %s ", r.Season, r.Tier, r.Team) + fmt.Sprintf(format, args...),
		})
	}
	for _, r := range rows {
		if r.P != r.W+r.D+r.L {
			add(r, "played %d but W+D+L is %d", r.P, r.W+r.D+r.L)
		}
		if r.Pts != 3*r.W+r.D {
			add(r, "has %d points but 3W+D is %d", r.Pts, 3*r.W+r.D)
		}
		if r.GD != r.GF-r.GA {
			add(r, "goal difference %d but GF-GA is %d", r.GD, r.GF-r.GA)
		}
		if r.P < 0 || r.GF < 0 || r.GA < 0 {
			add(r, "has negative counts")
		}
	}
	return violations
}

func groupTables(rows []tableRow) (map[tableKey][]tableRow, []tableKey) {
	tables := make(map[tableKey][]tableRow)
	var keys []tableKey
	for _, r := range rows {
		k := tableKey{r.Season, r.Tier}
		if _, ok := tables[k]; !ok {
			keys = append(keys, k)
		}
		tables[k] = append(tables[k], r)
	}
	return tables, keys
}

func checkGoalBalance(rows []tableRow) []Violation {
	tables, keys := groupTables(rows)
	var violations []Violation
	for _, k := range keys {
		gf, ga := 0, 0
		for _, r := range tables[k] {
			gf += r.GF
			ga += r.GA
		}
		if gf != ga {
			violations = append(violations, Violation{
				Sheet:   excel.SheetTables,
				Row:     tables[k][0].Row,
				Type:    "error",
				Message: fmt.Sprintf("season %d %s: %d goals scored but %d conceded", k.season, k.tier, gf, ga),
			})
		}
	}
	return violations
}

func checkPositions(rows []tableRow) []Violation {
	tables, keys := groupTables(rows)
	var violations []Violation
	for _, k := range keys {
		for i, r := range tables[k] {
			if r.Pos != i+1 {
				violations = append(violations, Violation{
					Sheet:   excel.SheetTables,
					Row:     r.Row,
					Type:    "error",
					Message: fmt.Sprintf("season %d %s: %s listed as position %d in row %d of the table", k.season, k.tier, r.Team, r.Pos, i+1),
				})
			}
		}
	}
	return violations
}

// checkOrder checks tables ranked on points first are sorted by points.
// Knockout and group placements follow the bracket and groups instead.
func checkOrder(rows []tableRow, kinds map[tableKey]competition.Kind, chain standings.Chain) []Violation {
	if len(chain) == 0 || chain[0] != standings.Points {
		return nil
	}
	tables, keys := groupTables(rows)
	var violations []Violation
	for _, k := range keys {
		kind := kinds[k]
		if kind != competition.League && kind != competition.Swiss {
			continue
		}
		t := tables[k]
		for i := 1; i < len(t); i++ {
			if t[i].Pts > t[i-1].Pts {
				violations = append(violations, Violation{
					Sheet: excel.SheetTables,
					Row:   t[i].Row,
					Type:  "error",
					Message: fmt.Sprintf("season %d %s: %s (%d pts) ranked below %s (%d pts)",
						k.season, k.tier, t[i].Team, t[i].Pts, t[i-1].Team, t[i-1].Pts),
				})
			}
		}
	}
	return violations
}

func checkSingleTier(rows []tableRow) []Violation {
	type seasonTeam struct {
		season int
		team   string
	}
	seen := make(map[seasonTeam]string)
	var violations []Violation
	for _, r := range rows {
		k := seasonTeam{r.Season, r.Team}
		if prev, ok := seen[k]; ok && prev != r.Tier {
			violations = append(violations, Violation{
				Sheet:   excel.SheetTables,
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("season %d: %s plays in both %s and %s", r.Season, r.Team, prev, r.Tier),
			})
		}
		seen[k] = r.Tier
	}
	return violations
}

// checkFixtureTotals recomputes league tables from the fixture list.
func checkFixtureTotals(rows []tableRow, fixtures []fixtureRow, kinds map[tableKey]competition.Kind) []Violation {
	type teamKey struct {
		season int
		tier   string
		team   string
	}
	type totals struct{ played, gf, ga int }
	sums := make(map[teamKey]*totals)
	get := func(k teamKey) *totals {
		if sums[k] == nil {
			sums[k] = &totals{}
		}
		return sums[k]
	}
	var violations []Violation
	for _, fx := range fixtures {
		if !fx.Played {
			violations = append(violations, Violation{
				Sheet:   excel.SheetFixtures,
				Row:     fx.Row,
				Type:    "warning",
				Message: fmt.Sprintf("season %d %s: %s v %s has no result", fx.Season, fx.Tier, fx.Home, fx.Away),
			})
			continue
		}
		h := get(teamKey{fx.Season, fx.Tier, fx.Home})
		a := get(teamKey{fx.Season, fx.Tier, fx.Away})
		h.played++
		a.played++
		h.gf += fx.HG
		h.ga += fx.AG
		a.gf += fx.AG
		a.ga += fx.HG
	}

	for _, r := range rows {
		if kinds[tableKey{r.Season, r.Tier}] != competition.League {
			continue
		}
		s := get(teamKey{r.Season, r.Tier, r.Team})
		if s.played != r.P || s.gf != r.GF || s.ga != r.GA {
			violations = append(violations, Violation{
				Sheet: excel.SheetTables,
				Row:   r.Row,
				Type:  "error",
				Message: fmt.Sprintf("season %d %s: %s table shows P%d %d-%d but fixtures give P%d %d-%d",
					r.Season, r.Tier, r.Team, r.P, r.GF, r.GA, s.played, s.gf, s.ga),
			})
		}
	}
	return violations
}

func checkBlackouts(fixtures []fixtureRow, blackouts []blackoutRow) []Violation {
	type seasonDate struct {
		season int
		date   string
	}
	reasons := make(map[seasonDate]string)
	for _, b := range blackouts {
		reasons[seasonDate{b.Season, b.Date}] = b.Reason
	}
	var violations []Violation
	for _, fx := range fixtures {
		if reason, ok := reasons[seasonDate{fx.Season, fx.Date}]; ok && fx.Date != "" {
			violations = append(violations, Violation{
				Sheet:   excel.SheetFixtures,
				Row:     fx.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s v %s scheduled on %s (%s)", fx.Home, fx.Away, fx.Date, reason),
			})
		}
	}
	return violations
}

// checkMovements checks that every team that moved after a season plays
// in its new tier the season after, when the workbook covers it.
func checkMovements(rows []tableRow, moves []movementRow) []Violation {
	type seasonTeam struct {
		season int
		team   string
	}
	tierOf := make(map[seasonTeam]string)
	seasons := make(map[int]bool)
	for _, r := range rows {
		tierOf[seasonTeam{r.Season, r.Team}] = r.Tier
		seasons[r.Season] = true
	}

	var violations []Violation
	for _, m := range moves {
		next := m.Season + 1
		if !seasons[next] {
			continue
		}
		got, plays := tierOf[seasonTeam{next, m.Team}]
		switch {
		case m.To == "" && plays:
			violations = append(violations, Violation{
				Sheet:   excel.SheetMovements,
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s was %s after season %d but plays in %s", m.Team, m.Reason, m.Season, got),
			})
		case m.To != "" && got != m.To:
			violations = append(violations, Violation{
				Sheet:   excel.SheetMovements,
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s %s to %s after season %d but plays in %q", m.Team, m.Reason, m.To, m.Season, got),
			})
		}
	}
	sort.SliceStable(violations, func(i, j int) bool { return violations[i].Row < violations[j].Row })
	return violations
}
