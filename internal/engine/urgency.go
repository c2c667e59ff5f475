// Package engine implements the propagation engine: urgency scoring, effective
// priority computation, and the three propagators (priority boost, due date,
// tags) that keep derived fields consistent across the node graph.
package engine

import (
	"math"
	"time"
)

// Urgency thresholds. A missing due date scores 0; everything else falls in
// (0, 130], with the overdue bonus capped at 30 days.
const (
	urgencyOverdueBase = 100.0
	urgencyOverdueCap  = 30.0
	urgencyDueToday    = 95.0
	urgencyDueTomorrow = 85.0
	urgencyDue3Days    = 70.0
	urgencyDueWeek     = 50.0
	urgencyDue2Weeks   = 30.0
	urgencyDueMonth    = 15.0
	urgencyDistant     = 5.0
)

// UrgencyScore maps a due date and the current time to an urgency value in
// [0, 130]. Pure: no state, no side effects.
//
// The day difference is the floor of the elapsed time in whole days, so a due
// date even one second in the past counts as overdue rather than "due today".
func UrgencyScore(due *time.Time, now time.Time) float64 {
	if due == nil {
		return 0
	}

	days := int(math.Floor(due.Sub(now).Hours() / 24))

	switch {
	case days < 0:
		return urgencyOverdueBase + math.Min(float64(-days), urgencyOverdueCap)
	case days == 0:
		return urgencyDueToday
	case days <= 1:
		return urgencyDueTomorrow
	case days <= 3:
		return urgencyDue3Days
	case days <= 7:
		return urgencyDueWeek
	case days <= 14:
		return urgencyDue2Weeks
	case days <= 30:
		return urgencyDueMonth
	default:
		return urgencyDistant
	}
}
