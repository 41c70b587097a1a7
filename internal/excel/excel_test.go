package excel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/xuri/excelize/v2"

	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/ranked"
	"github.com/derekprior/leaguesim/internal/season"
)

const testConfig = `
season:
  start_year: 2024
  seasons: 2
  seed: 7
  calendar:
    start_date: 2024-08-03
    matchdays: [saturday]
    blackout_dates:
      - date: 2024-08-10
        reason: International break
tiers:
  - id: premier
    name: Premier Division
    relegates_to: first
    relegate: 1
    zones:
      - {name: europe, from: 1, to: 1}
    teams:
      - {id: ars, name: Arsenal, strength: 80}
      - {id: che, name: Chelsea, strength: 75}
      - {id: eve, name: Everton, strength: 60}
      - {id: ful, name: Fulham, strength: 55}
  - id: first
    name: First Division
    promotes_to: premier
    promote: 1
    teams:
      - {id: lee, name: Leeds, strength: 58}
      - {id: mid, name: Middlesbrough, strength: 52}
      - {id: nor, name: Norwich, strength: 50}
      - {id: sto, name: Stoke, strength: 45}
`

func testReports(t *testing.T) (*config.Config, []season.Report) {
	t.Helper()
	cfg, err := config.LoadFromBytes([]byte(testConfig))
	if err != nil {
		t.Fatalf("LoadFromBytes() error: %v", err)
	}
	logger, _ := test.NewNullLogger()
	r, err := season.NewRunner(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	reports, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return cfg, reports
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, reports := testReports(t)
	f, err := Generate(reports, cfg.Season.Calendar)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has every sheet", func(t *testing.T) {
		for _, sheet := range []string{SheetSummary, SheetTables, SheetFixtures, SheetPlayoffs, SheetMovements} {
			idx, err := f.GetSheetIndex(sheet)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("%s sheet not found", sheet)
			}
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})

	t.Run("summary names the champion", func(t *testing.T) {
		rows, _ := f.GetRows(SheetSummary)
		if len(rows) != 5 {
			t.Fatalf("summary has %d rows, want header + 4", len(rows))
		}
		champion := reports[0].Outcomes[0].Champion
		want, _ := reports[0].Pool.Team(champion)
		if rows[1][2] != "premier" || rows[1][4] != want.Name {
			t.Errorf("first summary row = %v, want premier won by %s", rows[1], want.Name)
		}
	})

	t.Run("tables", func(t *testing.T) {
		rows, _ := f.GetRows(SheetTables)
		if len(rows) != 17 {
			t.Fatalf("tables has %d rows, want header + 16", len(rows))
		}
		if rows[0][12] != "Pts" {
			t.Errorf("M1 = %q, want Pts", rows[0][12])
		}
		first := reports[0].Outcomes[0].Standings[0]
		if rows[1][3] != first.Team || rows[1][2] != "1" {
			t.Errorf("first table row = %v, want %s in 1st", rows[1], first.Team)
		}
		notes := map[string]int{}
		for _, row := range rows[1:] {
			if len(row) > 14 {
				notes[row[14]]++
			}
		}
		if notes["promoted"] != 2 || notes["relegated"] != 2 || notes["europe"] != 2 {
			t.Errorf("notes = %v", notes)
		}
	})

	t.Run("fixtures skip blackout dates", func(t *testing.T) {
		rows, _ := f.GetRows(SheetFixtures)
		var round1, round2, blackout string
		for _, row := range rows[1:] {
			if row[0] != "1" {
				continue
			}
			switch {
			case row[1] == "premier" && row[2] == "1":
				round1 = row[3]
			case row[1] == "premier" && row[2] == "2":
				round2 = row[3]
			case row[2] == "" && len(row) > 5:
				blackout = row[5]
			}
		}
		if round1 != "08/03/2024" || round2 != "08/17/2024" {
			t.Errorf("rounds 1 and 2 on %q and %q, want 08/03/2024 and 08/17/2024", round1, round2)
		}
		if blackout != "International break" {
			t.Errorf("blackout row = %q", blackout)
		}
	})

	t.Run("movements", func(t *testing.T) {
		rows, _ := f.GetRows(SheetMovements)
		if len(rows) != 5 {
			t.Fatalf("movements has %d rows, want header + 4", len(rows))
		}
		for _, row := range rows[1:] {
			if row[5] != season.Promoted && row[5] != season.Relegated {
				t.Errorf("unexpected movement %v", row)
			}
		}
	})
}

func TestAddProjections(t *testing.T) {
	cfg, reports := testReports(t)
	def, err := ranked.FromTier(cfg, "premier")
	if err != nil {
		t.Fatal(err)
	}
	report, err := ranked.Run(context.Background(), def, ranked.Options{Trials: 20, Seed: 1, Top: 2})
	if err != nil {
		t.Fatal(err)
	}

	f := excelize.NewFile()
	if err := AddProjections(f, report, reports[0].Pool); err != nil {
		t.Fatalf("AddProjections() error: %v", err)
	}
	rows, err := f.GetRows(ProjectionSheet("premier"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 5 {
		t.Fatalf("projections has %d rows, want header + 4", len(rows))
	}
	if rows[0][5] != "Top 2" || rows[0][9] != "1st" || rows[0][12] != "4th" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != report.Projections[0].Team {
		t.Errorf("first row = %v, want %s", rows[1], report.Projections[0].Team)
	}
}

func TestWriteAndRead(t *testing.T) {
	cfg, reports := testReports(t)
	f, err := Generate(reports, cfg.Season.Calendar)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "season.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	val, _ := f2.GetCellValue(SheetTables, "A1")
	if val != "Season" {
		t.Errorf("re-read A1 = %q, want Season", val)
	}
}

func TestHelpers(t *testing.T) {
	t.Run("ordinal", func(t *testing.T) {
		for n, want := range map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 21: "21st", 22: "22nd"} {
			if got := ordinal(n); got != want {
				t.Errorf("ordinal(%d) = %q, want %q", n, got, want)
			}
		}
	})

	t.Run("colLetter", func(t *testing.T) {
		for n, want := range map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ"} {
			if got := colLetter(n); got != want {
				t.Errorf("colLetter(%d) = %q, want %q", n, got, want)
			}
		}
	})

	t.Run("projection sheet name fits", func(t *testing.T) {
		if got := ProjectionSheet("a-very-long-competition-identifier"); len(got) > 31 {
			t.Errorf("sheet name %q is %d characters", got, len(got))
		}
	})

	t.Run("kind", func(t *testing.T) {
		if _, ok := Kind("swiss"); !ok {
			t.Error("swiss should be a known format")
		}
		if _, ok := Kind("ladder"); ok {
			t.Error("ladder should not be a known format")
		}
	})
}
