package excel

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguesim/internal/competition"
	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/match"
	"github.com/derekprior/leaguesim/internal/ranked"
	"github.com/derekprior/leaguesim/internal/schedule"
	"github.com/derekprior/leaguesim/internal/season"
	"github.com/derekprior/leaguesim/internal/team"
	"github.com/derekprior/leaguesim/internal/tournament"
)

// Sheet names.
const (
	SheetSummary   = "Summary"
	SheetTables    = "Tables"
	SheetFixtures  = "Fixtures"
	SheetPlayoffs  = "Play-offs"
	SheetMovements = "Movements"
)

// TableHeaders are the columns of the Tables sheet.
var TableHeaders = []string{"Season", "Tier", "Pos", "Team", "Name", "P", "W", "D", "L", "GF", "GA", "GD", "Pts", "Form", "Note"}

// FixtureHeaders are the columns of the Fixtures sheet.
var FixtureHeaders = []string{"Season", "Tier", "Round", "Date", "Day", "Home", "HG", "AG", "Away"}

// Generate creates a workbook with every season's final tables, fixtures,
// play-offs and movements.
func Generate(reports []season.Report, cal config.Calendar) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")

	styles := newStyles(f)
	if err := writeSummary(f, styles, reports); err != nil {
		return nil, fmt.Errorf("writing summary sheet: %w", err)
	}
	if err := writeTables(f, styles, reports); err != nil {
		return nil, fmt.Errorf("writing tables sheet: %w", err)
	}
	if err := writeFixtures(f, styles, reports, cal); err != nil {
		return nil, fmt.Errorf("writing fixtures sheet: %w", err)
	}
	if err := writePlayoffs(f, styles, reports); err != nil {
		return nil, fmt.Errorf("writing play-offs sheet: %w", err)
	}
	if err := writeMovements(f, styles, reports); err != nil {
		return nil, fmt.Errorf("writing movements sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

type styles struct {
	header, cell, centered, promoted, relegated, playoff int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
	})
	s.centered, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.promoted, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#C6EFCE"}},
	})
	s.relegated, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
	})
	s.playoff, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 12, Family: "Arial"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFEB9C"}},
	})
	return s
}

// newSheet adds a sheet with a styled header row.
func newSheet(f *excelize.File, s styles, sheet string, headers []string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if s.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), s.header)
	}
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return nil
}

// writeRow fills one row and styles it.
func writeRow(f *excelize.File, sheet string, row int, values []any, style int) {
	f.SetSheetRow(sheet, cellRef(1, row), &values)
	if style != 0 {
		f.SetCellStyle(sheet, cellRef(1, row), cellRef(len(values), row), style)
	}
}

func writeSummary(f *excelize.File, s styles, reports []season.Report) error {
	headers := []string{"Season", "Year", "Tier", "Format", "Champion", "Runner-up", "Promoted", "Relegated"}
	if err := newSheet(f, s, SheetSummary, headers); err != nil {
		return err
	}
	row := 2
	for _, rep := range reports {
		for _, o := range rep.Outcomes {
			runnerUp := ""
			if len(o.Placement) > 1 {
				runnerUp = teamName(rep.Pool, o.Placement[1])
			}
			promoted := slices.Clone(o.Promoted)
			for _, br := range rep.Transition.Playoffs[o.Tier] {
				promoted = append(promoted, br.Winner)
			}
			writeRow(f, SheetSummary, row, []any{
				rep.Season, rep.Year, o.Tier, string(o.Kind),
				teamName(rep.Pool, o.Champion), runnerUp,
				names(rep.Pool, promoted), names(rep.Pool, o.Relegated),
			}, s.cell)
			row++
		}
	}
	widths := map[string]float64{"A": 10, "B": 8, "C": 14, "D": 12, "E": 24, "F": 24, "G": 40, "H": 40}
	for col, w := range widths {
		f.SetColWidth(SheetSummary, col, col, w)
	}
	return nil
}

func writeTables(f *excelize.File, s styles, reports []season.Report) error {
	if err := newSheet(f, s, SheetTables, TableHeaders); err != nil {
		return err
	}
	row := 2
	for _, rep := range reports {
		for _, o := range rep.Outcomes {
			promoted := setOf(o.Promoted)
			relegated := setOf(o.Relegated)
			playoff := setOf(o.PlayoffParticipants)
			for i, r := range o.Standings {
				note, style := "", s.cell
				switch {
				case promoted[r.Team]:
					note, style = "promoted", s.promoted
				case playoff[r.Team]:
					note, style = "play-off", s.playoff
				case relegated[r.Team]:
					note, style = "relegated", s.relegated
				}
				for zone, teams := range o.Qualified {
					if note == "" && slices.Contains(teams, r.Team) {
						note = zone
					}
				}
				writeRow(f, SheetTables, row, []any{
					rep.Season, o.Tier, i + 1, r.Team, teamName(rep.Pool, r.Team),
					r.Played, r.Won, r.Drawn, r.Lost,
					r.GoalsFor, r.GoalsAgainst, r.GoalDifference(), r.Points,
					r.Form, note,
				}, style)
				row++
			}
		}
	}
	f.SetColWidth(SheetTables, "A", "C", 8)
	f.SetColWidth(SheetTables, "D", "E", 22)
	f.SetColWidth(SheetTables, "F", "M", 6)
	f.SetColWidth(SheetTables, "N", "O", 14)
	return nil
}

func writeFixtures(f *excelize.File, s styles, reports []season.Report, cal config.Calendar) error {
	if err := newSheet(f, s, SheetFixtures, FixtureHeaders); err != nil {
		return err
	}
	row := 2
	for _, rep := range reports {
		seasonCal := shiftCalendar(cal, rep.Season-1)
		var played []time.Time
		for _, c := range rep.Competitions {
			fixtures := c.Fixtures()
			days, err := matchdays(seasonCal, fixtures)
			if err != nil {
				return err
			}
			for _, fx := range fixtures {
				values := []any{rep.Season, c.Tier, fx.Round, "", "", fx.Home, "", "", fx.Away}
				if d, ok := days[slot{fx.Round, fx.Leg}]; ok {
					values[3], values[4] = d.Format("01/02/2006"), d.Format("Mon")
					played = append(played, d)
				}
				if fx.Result != nil {
					values[6], values[7] = fx.Result.HomeGoals, fx.Result.AwayGoals
				}
				writeRow(f, SheetFixtures, row, values, s.centered)
				row++
			}
		}

		// Blacked-out dates inside the season's date range.
		slices.SortFunc(played, func(a, b time.Time) int { return a.Compare(b) })
		if len(played) > 0 {
			span := []time.Time{played[0], played[len(played)-1]}
			for _, b := range schedule.Blackouts(seasonCal, span) {
				writeRow(f, SheetFixtures, row, []any{
					rep.Season, "", "", b.Date.Time.Format("01/02/2006"), b.Date.Time.Format("Mon"), b.Reason,
				}, s.centered)
				row++
			}
		}
	}

	f.SetColWidth(SheetFixtures, "A", "C", 8)
	f.SetColWidth(SheetFixtures, "D", "D", 14)
	f.SetColWidth(SheetFixtures, "E", "E", 8)
	f.SetColWidth(SheetFixtures, "F", "F", 22)
	f.SetColWidth(SheetFixtures, "G", "H", 6)
	f.SetColWidth(SheetFixtures, "I", "I", 22)

	// Rows without a round are blackouts: light red.
	if row > 2 {
		redFill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
			Font: &excelize.Font{Size: 12, Family: "Arial"},
		})
		f.SetConditionalFormat(SheetFixtures, fmt.Sprintf("A2:I%d", row-1), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `AND($F2<>"",$C2="")`,
				Format:   &redFill,
			},
		})
	}
	return nil
}

type slot struct{ round, leg int }

// matchdays gives every (round, leg) of a competition its own date in
// playing order. Without a calendar start date no dates are assigned.
func matchdays(cal config.Calendar, fixtures []*match.Fixture) (map[slot]time.Time, error) {
	if cal.StartDate.Time.IsZero() {
		return nil, nil
	}
	seen := make(map[slot]bool)
	var slots []slot
	for _, fx := range fixtures {
		k := slot{fx.Round, fx.Leg}
		if !seen[k] {
			seen[k] = true
			slots = append(slots, k)
		}
	}
	slices.SortFunc(slots, func(a, b slot) int {
		return cmp.Or(cmp.Compare(a.round, b.round), cmp.Compare(a.leg, b.leg))
	})
	dates, err := schedule.Matchdays(cal, len(slots))
	if err != nil {
		return nil, err
	}
	out := make(map[slot]time.Time, len(slots))
	for i, k := range slots {
		out[k] = dates[i]
	}
	return out, nil
}

// shiftCalendar moves the calendar forward by whole years for later
// seasons.
func shiftCalendar(cal config.Calendar, years int) config.Calendar {
	if years == 0 || cal.StartDate.Time.IsZero() {
		return cal
	}
	out := cal
	out.StartDate = config.Date{Time: cal.StartDate.Time.AddDate(years, 0, 0)}
	out.BlackoutDates = make([]config.BlackoutDate, len(cal.BlackoutDates))
	for i, b := range cal.BlackoutDates {
		out.BlackoutDates[i] = config.BlackoutDate{Date: config.Date{Time: b.Date.Time.AddDate(years, 0, 0)}, Reason: b.Reason}
	}
	return out
}

func writePlayoffs(f *excelize.File, s styles, reports []season.Report) error {
	headers := []string{"Season", "Tier", "Bracket", "Round", "Home", "Away", "Score", "Winner"}
	if err := newSheet(f, s, SheetPlayoffs, headers); err != nil {
		return err
	}
	row := 2
	write := func(rep season.Report, tier, label string, br tournament.BracketResult) {
		for _, r := range br.Rounds {
			for _, tie := range r.Ties {
				score := "bye"
				if !tie.Bye {
					score = scoreline(tie)
				}
				writeRow(f, SheetPlayoffs, row, []any{
					rep.Season, tier, label, r.Name,
					teamName(rep.Pool, tie.Home), teamName(rep.Pool, tie.Away),
					score, teamName(rep.Pool, tie.Winner),
				}, s.cell)
				row++
			}
		}
	}
	for _, rep := range reports {
		for _, o := range rep.Outcomes {
			if o.Bracket != nil {
				write(rep, o.Tier, "cup", *o.Bracket)
			}
			for i, br := range rep.Transition.Playoffs[o.Tier] {
				write(rep, o.Tier, fmt.Sprintf("promotion %d", i+1), br)
			}
		}
	}
	widths := map[string]float64{"A": 8, "B": 14, "C": 14, "D": 16, "E": 22, "F": 22, "G": 14, "H": 22}
	for col, w := range widths {
		f.SetColWidth(SheetPlayoffs, col, col, w)
	}
	return nil
}

func scoreline(t *tournament.Tie) string {
	h, a := t.Aggregate()
	s := fmt.Sprintf("%d-%d", h, a)
	switch {
	case t.Shootout:
		s += " (pens)"
	case t.ExtraTime != nil:
		s += " (aet)"
	}
	return s
}

func writeMovements(f *excelize.File, s styles, reports []season.Report) error {
	headers := []string{"Season", "Team", "Name", "From", "To", "Reason"}
	if err := newSheet(f, s, SheetMovements, headers); err != nil {
		return err
	}
	row := 2
	for _, rep := range reports {
		for _, m := range rep.Transition.Movements {
			pool := rep.Pool
			if m.Reason == season.Admitted {
				pool = rep.Transition.Pool
			}
			style := s.cell
			switch m.Reason {
			case season.Promoted, season.PromotedPlayoff:
				style = s.promoted
			case season.Relegated, season.Dissolved:
				style = s.relegated
			}
			writeRow(f, SheetMovements, row, []any{
				rep.Season, m.Team, teamName(pool, m.Team), m.From, m.To, m.Reason,
			}, style)
			row++
		}
	}
	widths := map[string]float64{"A": 8, "B": 14, "C": 22, "D": 14, "E": 14, "F": 24}
	for col, w := range widths {
		f.SetColWidth(SheetMovements, col, col, w)
	}
	return nil
}

// ProjectionSheet names the sheet a ranked report is written to.
func ProjectionSheet(id string) string {
	name := "Projections " + id
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// AddProjections writes a ranked report to its own sheet: one row per team
// with its probabilities and finishing-position histogram.
func AddProjections(f *excelize.File, r *ranked.Report, pool *team.Pool) error {
	sheet := ProjectionSheet(r.ID)
	headers := []string{"Team", "Name", "Avg Pos", "Avg Pts", "Champion", fmt.Sprintf("Top %d", r.Top), "Promoted", "Play-off", "Relegated"}
	n := 0
	if len(r.Projections) > 0 {
		n = len(r.Projections[0].Positions)
	}
	for pos := 1; pos <= n; pos++ {
		headers = append(headers, ordinal(pos))
	}
	if err := newSheet(f, newStyles(f), sheet, headers); err != nil {
		return fmt.Errorf("writing projections sheet: %w", err)
	}

	pct, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 12, Family: "Arial"},
		NumFmt: 10, // 0.00%
	})
	dec, _ := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 12, Family: "Arial"},
		NumFmt: 2, // 0.00
	})
	for i, p := range r.Projections {
		row := i + 2
		values := []any{p.Team, teamName(pool, p.Team), p.MeanPosition, p.MeanPoints,
			p.Champion, p.TopK, p.Promoted, p.Playoff, p.Relegated}
		for pos := 1; pos <= n; pos++ {
			values = append(values, p.PositionProbability(pos))
		}
		f.SetSheetRow(sheet, cellRef(1, row), &values)
		f.SetCellStyle(sheet, cellRef(3, row), cellRef(4, row), dec)
		f.SetCellStyle(sheet, cellRef(5, row), cellRef(len(values), row), pct)
	}
	f.SetColWidth(sheet, "A", "B", 22)
	f.SetColWidth(sheet, "C", colLetter(len(headers)), 10)

	// Heat map over the histogram.
	if n > 0 && len(r.Projections) > 0 {
		area := fmt.Sprintf("%s2:%s%d", colLetter(10), colLetter(9+n), len(r.Projections)+1)
		f.SetConditionalFormat(sheet, area, []excelize.ConditionalFormatOptions{
			{Type: "2_color_scale", Criteria: "=", MinType: "min", MaxType: "max", MinColor: "#FFFFFF", MaxColor: "#63BE7B"},
		})
	}
	return nil
}

func ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

func teamName(pool *team.Pool, id string) string {
	if pool == nil || id == "" {
		return id
	}
	t, err := pool.Team(id)
	if err != nil {
		return id
	}
	return t.Name
}

func names(pool *team.Pool, ids []string) string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = teamName(pool, id)
	}
	return strings.Join(out, ", ")
}

func setOf(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// Kind maps the workbook's format labels back to competition kinds.
func Kind(label string) (competition.Kind, bool) {
	k := competition.Kind(label)
	switch k {
	case competition.League, competition.Knockout, competition.Group, competition.Swiss:
		return k, true
	}
	return "", false
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
