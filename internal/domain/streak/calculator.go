package streak

// Stats holds the counters derived from an ActivityLog.
// Stats are never stored authoritatively; they are recomputed on every change.
type Stats struct {
	CurrentStreak   int `json:"current_streak"`
	LongestStreak   int `json:"longest_streak"`
	TotalActiveDays int `json:"total_active_days"`
}

// Compute derives the streak counters from a log.
//
// The log is walked from the most recent day backwards. A run grows by one
// for every active day and resets on an inactive day or on a calendar gap
// between two recorded days. CurrentStreak is the run ending at the most
// recent recorded day, which is not necessarily today. An empty log yields
// all zeros. Compute does not modify the log.
func Compute(log *ActivityLog) Stats {
	days := log.Days()
	if len(days) == 0 {
		return Stats{}
	}

	var (
		stats   Stats
		run     int
		current = true
	)

	for i := len(days) - 1; i >= 0; i-- {
		day := days[i]

		// A gap to the previously visited (later) day means absent days in between.
		if i < len(days)-1 && day.DaysUntil(days[i+1]) > 1 {
			run = 0
			current = false
		}

		if log.Get(day) {
			run++
			stats.TotalActiveDays++
		} else {
			run = 0
			current = false
		}

		if current {
			stats.CurrentStreak = run
		}
		if run > stats.LongestStreak {
			stats.LongestStreak = run
		}
	}

	return stats
}
