package schedule

import (
	"time"

	"github.com/derekprior/leaguesim/internal/config"
	"github.com/derekprior/leaguesim/internal/simerr"
)

// Matchdays assigns a date to each of n rounds, walking forward from the
// calendar's start date and using only configured matchdays that are not
// blacked out.
func Matchdays(cal config.Calendar, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	if cal.StartDate.Time.IsZero() {
		return nil, simerr.Configf("calendar has no start date")
	}

	days := make(map[time.Weekday]bool)
	for _, name := range cal.Matchdays {
		d, ok := config.Weekday(name)
		if !ok {
			return nil, simerr.Configf("unknown matchday %q", name)
		}
		days[d] = true
	}
	if len(days) == 0 {
		days[time.Saturday] = true
	}

	blackoutDates := make(map[time.Time]bool)
	for _, b := range cal.BlackoutDates {
		blackoutDates[b.Date.Time] = true
	}

	dates := make([]time.Time, 0, n)
	d := cal.StartDate.Time
	for len(dates) < n {
		if days[d.Weekday()] && !blackoutDates[d] {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return dates, nil
}

// Blackouts returns the blacked-out dates between the first and last
// matchday, for display alongside the fixture list.
func Blackouts(cal config.Calendar, dates []time.Time) []config.BlackoutDate {
	if len(dates) == 0 {
		return nil
	}
	first, last := dates[0], dates[len(dates)-1]
	var out []config.BlackoutDate
	for _, b := range cal.BlackoutDates {
		if !b.Date.Time.Before(first) && !b.Date.Time.After(last) {
			out = append(out, b)
		}
	}
	return out
}
