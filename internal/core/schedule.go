package core

import "time"

// NextDueDate computes the next generation date for a recurring expense
// template.
//
// When the template has never generated (lastGenerated nil), the candidate is
// the start month with the day replaced by dayOfMonth; if that day already
// passed within the start month, the candidate advances one schedule period.
// When lastGenerated is set, the candidate is built from its month and always
// advances exactly one period.
//
// dayOfMonth is capped at 28 by validation, so day-of-month survives every
// advance without month-end clamping.
func NextDueDate(startDate time.Time, schedule Schedule, dayOfMonth int, lastGenerated *time.Time) time.Time {
	if lastGenerated == nil {
		candidate := time.Date(startDate.Year(), startDate.Month(), dayOfMonth, 0, 0, 0, 0, time.UTC)
		if candidate.Before(startDate) {
			candidate = advancePeriod(candidate, schedule)
		}
		return candidate
	}
	candidate := time.Date(lastGenerated.Year(), lastGenerated.Month(), dayOfMonth, 0, 0, 0, 0, time.UTC)
	return advancePeriod(candidate, schedule)
}

// IsDue reports whether an active template is due as of the reference date.
func (re RecurringExpense) IsDue(referenceDate time.Time) bool {
	return re.IsActive && !re.NextDueDate.After(referenceDate)
}

// PastEndDate reports whether the template's next due date falls after its
// end date, meaning the template has reached end of life and must be skipped.
func (re RecurringExpense) PastEndDate() bool {
	return re.EndDate != nil && re.NextDueDate.After(*re.EndDate)
}

func advancePeriod(d time.Time, schedule Schedule) time.Time {
	switch schedule {
	case Monthly:
		return d.AddDate(0, 1, 0)
	case Quarterly:
		return d.AddDate(0, 3, 0)
	case Yearly:
		return d.AddDate(1, 0, 0)
	}
	return d
}
