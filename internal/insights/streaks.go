// Package insights derives read-only statistics from decrypted journal
// entries: writing streaks and the dashboard aggregates built on them.
// Drafts never count; an unfinished form is not a day of journaling.
package insights

import (
	"sort"
	"time"
)

// Streaks holds the two journaling-cadence counters. Current is the run of
// consecutive days ending today (or yesterday, so a streak survives until
// the day it is actually missed); Longest is the best run ever recorded.
type Streaks struct {
	Current int
	Longest int
}

// CalcStreaks derives the streak counters from the authoring timestamps of
// finished entries. Days are bucketed in now's location; several entries on
// one day count once.
func CalcStreaks(authored []time.Time, now time.Time) Streaks {
	if len(authored) == 0 {
		return Streaks{}
	}

	loc := now.Location()
	seen := map[time.Time]struct{}{}
	for _, ts := range authored {
		seen[dayOf(ts.In(loc))] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := dayOf(now)

	var s Streaks
	run := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			run++
			continue
		}
		if run > s.Longest {
			s.Longest = run
		}
		run = 1
	}
	if run > s.Longest {
		s.Longest = run
	}

	// the current streak only exists while it is still alive: its newest
	// day must be today or yesterday
	if days[0].Equal(today) || days[0].Equal(today.AddDate(0, 0, -1)) {
		s.Current = 1
		for i := 1; i < len(days); i++ {
			if !days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
				break
			}
			s.Current++
		}
	}

	return s
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
