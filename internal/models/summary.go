package models

import "github.com/shopspring/decimal"

// DebtSummary is the per-user rollup across debts. PendingCount covers
// every debt that is not fully paid; OverdueCount is counted separately
// and overlaps it.
type DebtSummary struct {
	TotalDebt    decimal.Decimal `json:"total_debt"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	TotalPending decimal.Decimal `json:"total_pending"`
	DebtCount    int             `json:"debt_count"`
	PaidCount    int             `json:"paid_count"`
	PendingCount int             `json:"pending_count"`
	OverdueCount int             `json:"overdue_count"`
}

// SummarizeDebts rolls up totals and status counts over debts whose status
// has already been derived.
func SummarizeDebts(debts []Debt) DebtSummary {
	summary := DebtSummary{
		TotalDebt:    decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalPending: decimal.Zero,
		DebtCount:    len(debts),
	}

	for i := range debts {
		debt := &debts[i]
		summary.TotalDebt = summary.TotalDebt.Add(debt.TotalAmount)

		progress := debt.Progress()
		summary.TotalPaid = summary.TotalPaid.Add(progress.PaidAmount)
		summary.TotalPending = summary.TotalPending.Add(progress.PendingAmount)

		if debt.Status == DebtStatusPaid {
			summary.PaidCount++
		} else {
			summary.PendingCount++
		}
		if debt.Status == DebtStatusOverdue {
			summary.OverdueCount++
		}
	}
	return summary
}
