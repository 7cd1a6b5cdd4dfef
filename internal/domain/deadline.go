package domain

import "time"

// ApplyDeadlineWindow reconciles the deadline triple in place.
// With both dates present, days-remaining is recomputed as end − today (the
// stored value is never authoritative). With only a start date and a day
// count, the end date is derived as start + days.
func (c *CaseItem) ApplyDeadlineWindow(today time.Time) {
	today = truncateDay(today)
	switch {
	case c.StartDate != nil && c.EndDate != nil:
		days := int(truncateDay(*c.EndDate).Sub(today).Hours() / 24)
		c.DaysRemaining = &days
	case c.StartDate != nil && c.DaysRemaining != nil:
		end := truncateDay(*c.StartDate).AddDate(0, 0, *c.DaysRemaining)
		c.EndDate = &end
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
