package insights

import (
	"time"

	"github.com/ArnarValur/therpy-journal-sub000/internal/models"
)

// Dashboard is one self-consistent aggregate over a user's journal. All
// counters except DraftCount ignore drafts.
type Dashboard struct {
	TotalEntries     int
	DraftCount       int
	EntriesThisWeek  int
	EntriesThisMonth int
	Streaks          Streaks
	// AverageSentiments maps each sentiment name to its mean rating
	// across the entries that rated it.
	AverageSentiments map[string]float64
	TagCounts         map[string]int
	LastEntryAt       time.Time
}

// BuildDashboard computes the full aggregate in one pass over the decrypted
// entries. The week starts on Monday in now's location.
func BuildDashboard(journal []models.JournalEntry, now time.Time) Dashboard {
	d := Dashboard{
		AverageSentiments: map[string]float64{},
		TagCounts:         map[string]int{},
	}

	weekStart := startOfWeek(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var authored []time.Time
	sentimentSums := map[string]int{}
	sentimentCounts := map[string]int{}

	for _, e := range journal {
		if e.IsDraft {
			d.DraftCount++
			continue
		}
		d.TotalEntries++

		created := e.CreatedAt.In(now.Location())
		authored = append(authored, created)
		if created.After(d.LastEntryAt) {
			d.LastEntryAt = created
		}
		if !created.Before(weekStart) {
			d.EntriesThisWeek++
		}
		if !created.Before(monthStart) {
			d.EntriesThisMonth++
		}

		for name, rating := range e.Sentiments {
			sentimentSums[name] += rating
			sentimentCounts[name]++
		}
		for _, tag := range e.Tags {
			d.TagCounts[tag]++
		}
	}

	for name, sum := range sentimentSums {
		d.AverageSentiments[name] = float64(sum) / float64(sentimentCounts[name])
	}
	d.Streaks = CalcStreaks(authored, now)

	return d
}

func startOfWeek(now time.Time) time.Time {
	day := dayOf(now)
	offset := (int(day.Weekday()) + 6) % 7 // Monday-based
	return day.AddDate(0, 0, -offset)
}
