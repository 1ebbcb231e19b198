package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Monthly   Schedule = "monthly"
	Quarterly Schedule = "quarterly"
	Yearly    Schedule = "yearly"
)

const (
	Cash    Basis = "cash"
	Accrual Basis = "accrual"
)

type (
	// Schedule is the repetition frequency of a recurring expense template.
	Schedule string

	// Basis selects the accounting basis for period reports. Cash counts
	// only paid income; accrual counts all income dated in-period.
	Basis string

	Money struct {
		Cents int64
	}

	Provider struct {
		ID              int64
		Name            string
		IsInternational bool
	}

	Category struct {
		ID       int64
		Name     string
		BasLabel string
	}

	Income struct {
		ID          int64
		Date        time.Time
		Description string
		Total       Money
		GST         Money
		IsPaid      bool
	}

	Expense struct {
		ID          int64
		Date        time.Time
		Description string
		Amount      Money
		GST         Money
		BizPercent  int64
		ProviderID  int64
		CategoryID  int64
		// RecurringExpenseID links a generated entry back to its template.
		RecurringExpenseID *int64
	}

	RecurringExpense struct {
		ID                int64
		Name              string
		Description       string
		Amount            Money
		GST               Money
		BizPercent        int64
		Schedule          Schedule
		DayOfMonth        int
		StartDate         time.Time
		EndDate           *time.Time
		IsActive          bool
		LastGeneratedDate *time.Time
		NextDueDate       time.Time
		ProviderID        int64
		CategoryID        int64
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidQuarter       = errors.New("invalid quarter")
	ErrInvalidBasis         = errors.New("invalid accounting basis")
	ErrInvalidFinancialYear = errors.New("invalid financial year")
	ErrInvalidSchedule      = errors.New("invalid schedule")
	ErrInvalidDayOfMonth    = errors.New("day of month must be between 1 and 28")
	ErrPercentOutOfRange    = errors.New("percent must be between 0 and 100")
	ErrGSTExceedsAmount     = errors.New("GST cannot exceed amount")
	ErrEndBeforeStart       = errors.New("end date must be after start date")
	ErrEmptyName            = errors.New("empty name")
	ErrEmptyDescription     = errors.New("empty description")
	ErrZeroDate             = errors.New("date cannot be zero")
	ErrMissingProvider      = errors.New("provider is required")
	ErrMissingCategory      = errors.New("category is required")
	ErrNotFound             = errors.New("not found")
)

// ParseBasis normalizes and validates an accounting basis string.
// An empty string defaults to accrual.
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Accrual, nil
	case string(Cash):
		return Cash, nil
	case string(Accrual):
		return Accrual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBasis, s)
	}
}

// ParseSchedule validates a schedule string.
func ParseSchedule(s string) (Schedule, error) {
	switch Schedule(strings.ToLower(strings.TrimSpace(s))) {
	case Monthly:
		return Monthly, nil
	case Quarterly:
		return Quarterly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Validate() error {
	if i.Date.IsZero() {
		return ErrZeroDate
	}
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := i.Total.Validate(); err != nil {
		return err
	}
	if i.GST.Cents < 0 {
		return ErrInvalidAmount
	}
	if i.GST.Cents > i.Total.Cents {
		return fmt.Errorf("%w: gst %d cents, total %d cents", ErrGSTExceedsAmount, i.GST.Cents, i.Total.Cents)
	}
	return nil
}

func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.GST.Cents < 0 {
		return ErrInvalidAmount
	}
	if e.GST.Cents > e.Amount.Cents {
		return fmt.Errorf("%w: gst %d cents, amount %d cents", ErrGSTExceedsAmount, e.GST.Cents, e.Amount.Cents)
	}
	if e.BizPercent < 0 || e.BizPercent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentOutOfRange, e.BizPercent)
	}
	if e.ProviderID <= 0 {
		return ErrMissingProvider
	}
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

func (re RecurringExpense) Validate() error {
	if len(strings.TrimSpace(re.Name)) == 0 {
		return ErrEmptyName
	}
	if err := re.Amount.Validate(); err != nil {
		return err
	}
	if re.GST.Cents < 0 {
		return ErrInvalidAmount
	}
	if re.GST.Cents > re.Amount.Cents {
		return fmt.Errorf("%w: gst %d cents, amount %d cents", ErrGSTExceedsAmount, re.GST.Cents, re.Amount.Cents)
	}
	if re.BizPercent < 0 || re.BizPercent > 100 {
		return fmt.Errorf("%w: %d", ErrPercentOutOfRange, re.BizPercent)
	}
	if _, err := ParseSchedule(string(re.Schedule)); err != nil {
		return err
	}
	if re.DayOfMonth < 1 || re.DayOfMonth > 28 {
		return fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, re.DayOfMonth)
	}
	if re.StartDate.IsZero() {
		return fmt.Errorf("start %w", ErrZeroDate)
	}
	if re.EndDate != nil && !re.EndDate.After(re.StartDate) {
		return ErrEndBeforeStart
	}
	if re.ProviderID <= 0 {
		return ErrMissingProvider
	}
	if re.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}
