// Package policy holds the pluggable fine assessment policy.  The
// circulation engine never computes fine amounts itself; it calls
// whatever OverduePolicy it was configured with, so libraries can swap
// the formula without touching the return flow.
package policy

import "time"

// OverduePolicy computes the fine amount in cents for a loan returned
// at returnedAt against the given due date.  A result of zero means no
// fine is assessed.
type OverduePolicy func(due, returnedAt time.Time) int64

// PerDay returns the standard policy: a flat rate per started day of
// lateness.  A loan returned on or before its due date owes nothing;
// any positive lateness is rounded up to whole days.
func PerDay(centsPerDay int64) OverduePolicy {
	return func(due, returnedAt time.Time) int64 {
		if centsPerDay <= 0 || !returnedAt.After(due) {
			return 0
		}
		late := returnedAt.Sub(due)
		days := int64(late / (24 * time.Hour))
		if late%(24*time.Hour) > 0 {
			days++
		}
		return days * centsPerDay
	}
}
