package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"soletax/internal/amqp"
	"soletax/internal/core"
	"soletax/internal/storage"
)

// TemplateStore is the slice of the ledger store the recurring schedule
// engine reads and mutates.
type TemplateStore interface {
	GetProvider(ctx context.Context, id int64) (*core.Provider, error)
	GetCategory(ctx context.Context, id int64) (*core.Category, error)
	CreateRecurringExpense(ctx context.Context, re core.RecurringExpense) (int64, error)
	GetRecurringExpense(ctx context.Context, id int64) (*core.RecurringExpense, error)
	ListRecurringExpenses(ctx context.Context) ([]core.RecurringExpense, error)
	UpdateRecurringExpense(ctx context.Context, re core.RecurringExpense) error
	DeleteRecurringExpense(ctx context.Context, id int64) error
	ListDueRecurringExpenses(ctx context.Context, asOf time.Time) ([]core.RecurringExpense, error)
	GenerateFromTemplate(ctx context.Context, tmpl core.RecurringExpense, entry core.Expense, nextDue time.Time) (int64, error)
}

// EventPublisher publishes ledger events for downstream consumers.
type EventPublisher interface {
	PublishExpenseGenerated(ctx context.Context, ev *amqp.ExpenseGeneratedEvent) error
}

// RecurringService owns recurring expense templates: creation, updates, and
// the periodic generation of ledger entries from due templates.
type RecurringService struct {
	store  TemplateStore
	events EventPublisher

	// genMu serializes GenerateDue runs within this process. Cross-process
	// safety comes from the guarded template advance in the store.
	genMu sync.Mutex
}

func NewRecurringService(store TemplateStore, events EventPublisher) *RecurringService {
	return &RecurringService{
		store:  store,
		events: events,
	}
}

// TemplateInput carries the caller-supplied fields for creating a template.
// GSTCents nil means auto-calculate: zero for international providers,
// otherwise the GST component of the GST-inclusive amount.
type TemplateInput struct {
	Name        string
	Description string
	AmountCents int64
	GSTCents    *int64
	BizPercent  int64
	Schedule    string
	DayOfMonth  int
	StartDate   time.Time
	EndDate     *time.Time
	ProviderID  int64
	CategoryID  int64
}

// TemplatePatch carries optional field updates. Nil fields are left
// unchanged; ClearEndDate removes an existing end date.
type TemplatePatch struct {
	Name         *string
	Description  *string
	AmountCents  *int64
	GSTCents     *int64
	BizPercent   *int64
	Schedule     *string
	DayOfMonth   *int
	StartDate    *time.Time
	EndDate      *time.Time
	ClearEndDate bool
	IsActive     *bool
	ProviderID   *int64
	CategoryID   *int64
}

// Create validates referenced provider and category, resolves the GST
// amount, computes the initial next due date, and persists the template.
func (s *RecurringService) Create(ctx context.Context, in TemplateInput) (*core.RecurringExpense, error) {
	provider, err := s.store.GetProvider(ctx, in.ProviderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	schedule, err := core.ParseSchedule(in.Schedule)
	if err != nil {
		return nil, err
	}

	gstCents := resolveGST(provider.IsInternational, in.AmountCents, in.GSTCents)

	re := core.RecurringExpense{
		Name:        in.Name,
		Description: in.Description,
		Amount:      core.Money{Cents: in.AmountCents},
		GST:         core.Money{Cents: gstCents},
		BizPercent:  in.BizPercent,
		Schedule:    schedule,
		DayOfMonth:  in.DayOfMonth,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
		NextDueDate: core.NextDueDate(in.StartDate, schedule, in.DayOfMonth, nil),
		ProviderID:  in.ProviderID,
		CategoryID:  in.CategoryID,
	}
	if err := re.Validate(); err != nil {
		return nil, err
	}

	id, err := s.store.CreateRecurringExpense(ctx, re)
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	re.ID = id
	return &re, nil
}

// Update applies a patch to an existing template. Changing the provider to
// an international one forces GST to zero; changing schedule, day of month,
// or start date recomputes the next due date from the template's current
// start date and last generated date.
func (s *RecurringService) Update(ctx context.Context, id int64, patch TemplatePatch) (*core.RecurringExpense, error) {
	re, err := s.store.GetRecurringExpense(ctx, id)
	if err != nil {
		return nil, err
	}

	international := false
	if patch.ProviderID != nil && *patch.ProviderID != re.ProviderID {
		provider, err := s.store.GetProvider(ctx, *patch.ProviderID)
		if err != nil {
			return nil, err
		}
		re.ProviderID = provider.ID
		international = provider.IsInternational
	} else {
		provider, err := s.store.GetProvider(ctx, re.ProviderID)
		if err != nil {
			return nil, err
		}
		international = provider.IsInternational
	}
	if patch.CategoryID != nil && *patch.CategoryID != re.CategoryID {
		if _, err := s.store.GetCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
		re.CategoryID = *patch.CategoryID
	}

	if patch.Name != nil {
		re.Name = *patch.Name
	}
	if patch.Description != nil {
		re.Description = *patch.Description
	}
	if patch.AmountCents != nil {
		re.Amount.Cents = *patch.AmountCents
	}
	if patch.GSTCents != nil {
		re.GST.Cents = *patch.GSTCents
	}
	if patch.BizPercent != nil {
		re.BizPercent = *patch.BizPercent
	}
	if patch.IsActive != nil {
		re.IsActive = *patch.IsActive
	}

	scheduleChanged := false
	if patch.Schedule != nil {
		schedule, err := core.ParseSchedule(*patch.Schedule)
		if err != nil {
			return nil, err
		}
		if schedule != re.Schedule {
			re.Schedule = schedule
			scheduleChanged = true
		}
	}
	if patch.DayOfMonth != nil && *patch.DayOfMonth != re.DayOfMonth {
		re.DayOfMonth = *patch.DayOfMonth
		scheduleChanged = true
	}
	if patch.StartDate != nil && !patch.StartDate.Equal(re.StartDate) {
		re.StartDate = *patch.StartDate
		scheduleChanged = true
	}
	if patch.ClearEndDate {
		re.EndDate = nil
	} else if patch.EndDate != nil {
		re.EndDate = patch.EndDate
	}

	// GST on international providers is always zero, regardless of any
	// caller-supplied value.
	if international {
		re.GST.Cents = 0
	}

	if scheduleChanged {
		re.NextDueDate = core.NextDueDate(re.StartDate, re.Schedule, re.DayOfMonth, re.LastGeneratedDate)
	}

	if err := re.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateRecurringExpense(ctx, *re); err != nil {
		return nil, err
	}
	return re, nil
}

func (s *RecurringService) Get(ctx context.Context, id int64) (*core.RecurringExpense, error) {
	return s.store.GetRecurringExpense(ctx, id)
}

func (s *RecurringService) List(ctx context.Context) ([]core.RecurringExpense, error) {
	return s.store.ListRecurringExpenses(ctx)
}

func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRecurringExpense(ctx, id)
}

// GenerationDetail describes one generated entry.
type GenerationDetail struct {
	RecurringExpenseID   int64     `json:"recurringExpenseId"`
	RecurringExpenseName string    `json:"recurringExpenseName"`
	ExpenseID            int64     `json:"expenseId"`
	Date                 time.Time `json:"date"`
	AmountCents          int64     `json:"amountCents"`
}

// GenerationResult summarizes a GenerateDue run.
type GenerationResult struct {
	Generated  int                `json:"generated"`
	Skipped    int                `json:"skipped"`
	ExpenseIDs []int64            `json:"expenseIds"`
	Details    []GenerationDetail `json:"details"`
}

// GenerateDue creates ledger entries for every active template whose next
// due date is at or before asOf. Each template generates at most one entry
// per run, dated at its current due date; the entry insert and the
// template's advance commit together. Templates past their end date are
// skipped untouched. A template another run advanced concurrently is counted
// as skipped.
func (s *RecurringService) GenerateDue(ctx context.Context, asOf time.Time) (*GenerationResult, error) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	due, err := s.store.ListDueRecurringExpenses(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list due templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing due recurring expenses",
		"due", len(due),
		"as_of", asOf.Format("2006-01-02"))

	result := &GenerationResult{
		ExpenseIDs: []int64{},
		Details:    []GenerationDetail{},
	}

	for _, tmpl := range due {
		if tmpl.PastEndDate() {
			result.Skipped++
			slog.InfoContext(ctx, "Template past end date, skipping",
				"template_id", tmpl.ID,
				"next_due_date", tmpl.NextDueDate.Format("2006-01-02"))
			continue
		}

		description := tmpl.Description
		if description == "" {
			description = tmpl.Name + " - Auto-generated"
		}

		entry := core.Expense{
			Date:        tmpl.NextDueDate,
			Description: description,
			Amount:      tmpl.Amount,
			GST:         tmpl.GST,
			BizPercent:  tmpl.BizPercent,
			ProviderID:  tmpl.ProviderID,
			CategoryID:  tmpl.CategoryID,
		}
		nextDue := core.NextDueDate(tmpl.StartDate, tmpl.Schedule, tmpl.DayOfMonth, &entry.Date)

		expenseID, err := s.store.GenerateFromTemplate(ctx, tmpl, entry, nextDue)
		if err != nil {
			if errors.Is(err, storage.ErrStaleTemplate) {
				result.Skipped++
				slog.WarnContext(ctx, "Template advanced by concurrent run, skipping",
					"template_id", tmpl.ID)
				continue
			}
			slog.ErrorContext(ctx, "Failed to generate from template",
				"template_id", tmpl.ID,
				"error", err)
			continue
		}

		result.Generated++
		result.ExpenseIDs = append(result.ExpenseIDs, expenseID)
		result.Details = append(result.Details, GenerationDetail{
			RecurringExpenseID:   tmpl.ID,
			RecurringExpenseName: tmpl.Name,
			ExpenseID:            expenseID,
			Date:                 entry.Date,
			AmountCents:          entry.Amount.Cents,
		})

		s.publishGenerated(ctx, tmpl.ID, expenseID, entry)
	}

	slog.InfoContext(ctx, "Recurring expense generation complete",
		"generated", result.Generated,
		"skipped", result.Skipped)

	return result, nil
}

func (s *RecurringService) publishGenerated(ctx context.Context, templateID, expenseID int64, entry core.Expense) {
	if s.events == nil {
		return
	}
	ev := amqp.NewExpenseGeneratedEvent(templateID, expenseID, entry.Date.Format("2006-01-02"), entry.Amount.Cents)
	if err := s.events.PublishExpenseGenerated(ctx, ev); err != nil {
		// The entry is committed; event delivery is best effort.
		slog.ErrorContext(ctx, "Failed to publish expense generated event",
			"template_id", templateID,
			"expense_id", expenseID,
			"error", err)
	}
}

// resolveGST picks the GST amount for a template or expense: zero for
// international providers, the caller's value when supplied, otherwise the
// extracted GST component of the GST-inclusive amount.
func resolveGST(international bool, amountCents int64, supplied *int64) int64 {
	if international {
		return 0
	}
	if supplied != nil {
		return *supplied
	}
	return core.GSTFromInclusiveTotal(amountCents)
}
