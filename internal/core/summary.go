package core

import "time"

// BasSummary is a BAS quarter report. Field names and cent-denominated
// values are a stable contract with the document renderer.
type BasSummary struct {
	Quarter               Quarter   `json:"quarter"`
	FinancialYear         int       `json:"financialYear"`
	Basis                 Basis     `json:"basis"`
	PeriodStart           time.Time `json:"periodStart"`
	PeriodEnd             time.Time `json:"periodEnd"`
	G1TotalSalesCents     int64     `json:"g1TotalSalesCents"`
	Label1aGSTCollected   int64     `json:"label1aGstCollectedCents"`
	Label1bGSTPaid        int64     `json:"label1bGstPaidCents"`
	NetGSTPayableCents    int64     `json:"netGstPayableCents"`
	IncomeCount           int64     `json:"incomeCount"`
	ExpenseCount          int64     `json:"expenseCount"`
}

// FySummary is a full financial-year report.
type FySummary struct {
	FinancialYear int              `json:"financialYear"`
	FYLabel       string           `json:"fyLabel"`
	PeriodStart   time.Time        `json:"periodStart"`
	PeriodEnd     time.Time        `json:"periodEnd"`
	Income        FyIncomeSummary  `json:"income"`
	Expenses      FyExpenseSummary `json:"expenses"`
	// NetProfitCents = income total - expense total.
	NetProfitCents int64 `json:"netProfitCents"`
	// NetGSTPayableCents = GST collected - claimable GST paid.
	NetGSTPayableCents int64 `json:"netGstPayableCents"`
}

type FyIncomeSummary struct {
	TotalIncomeCents  int64 `json:"totalIncomeCents"`
	PaidIncomeCents   int64 `json:"paidIncomeCents"`
	UnpaidIncomeCents int64 `json:"unpaidIncomeCents"`
	GSTCollectedCents int64 `json:"gstCollectedCents"`
	Count             int64 `json:"count"`
}

type FyExpenseSummary struct {
	TotalExpensesCents int64             `json:"totalExpensesCents"`
	GSTPaidCents       int64             `json:"gstPaidCents"`
	Count              int64             `json:"count"`
	ByCategory         []CategorySummary `json:"byCategory"`
}

// CategorySummary is one row of the FY expense-by-category breakdown,
// ordered by TotalCents descending.
type CategorySummary struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	BasLabel   string `json:"basLabel"`
	TotalCents int64  `json:"totalCents"`
	GSTCents   int64  `json:"gstCents"`
	Count      int64  `json:"count"`
}
