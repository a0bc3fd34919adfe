package streak

// Outcome describes what a day rollover did to the log.
type Outcome string

const (
	OutcomeNoChange       Outcome = "no_change"       // nothing to protect or break
	OutcomeFreezeConsumed Outcome = "freeze_consumed" // today forced active, guard spent
	OutcomeStreakBroken   Outcome = "streak_broken"   // today recorded inactive
)

// Rollover applies the day-rollover rule for today.
//
// It only acts when yesterday was active and today has no entry yet:
// an armed guard is consumed and today is recorded active, otherwise
// today is recorded inactive and the run ends on the next Compute.
// In every other case the log and guard are left untouched.
func Rollover(log *ActivityLog, guard *FreezeGuard, today Day) Outcome {
	yesterday := today.AddDays(-1)
	if !log.Get(yesterday) || log.Recorded(today) {
		return OutcomeNoChange
	}

	if guard.consume() {
		log.Set(today, true)
		return OutcomeFreezeConsumed
	}

	log.Set(today, false)
	return OutcomeStreakBroken
}
