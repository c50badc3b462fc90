package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatus represents the derived status of a debt
type DebtStatus string

const (
	DebtStatusPending    DebtStatus = "pending"
	DebtStatusInProgress DebtStatus = "in_progress"
	DebtStatusOverdue    DebtStatus = "overdue"
	DebtStatusPaid       DebtStatus = "paid"
	DebtStatusCancelled  DebtStatus = "cancelled"
)

// Debt is a multi-installment obligation. The installment list is owned
// exclusively by the debt: the schedule is generated at creation and the
// sum of installment amounts equals TotalAmount to the cent. Status is
// always recomputed from the installments, never set directly, except for
// the manual terminal cancelled state.
type Debt struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description,omitempty"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status      DebtStatus      `gorm:"not null;default:pending" json:"status"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`

	Installments []Installment `gorm:"foreignKey:DebtID;constraint:OnDelete:CASCADE" json:"installments"`
}

// DebtProgress summarizes how much of a debt has been paid off.
type DebtProgress struct {
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PendingAmount decimal.Decimal `json:"pending_amount"`
	Percent       decimal.Decimal `json:"percent"`
}

// Progress computes paid and pending amounts and the payment percentage,
// rounded to two decimals and capped at 100. A debt with no installments
// or a zero total is 0% paid with everything pending.
func (d *Debt) Progress() DebtProgress {
	paid := decimal.Zero
	for _, inst := range d.Installments {
		if inst.PaidDate != nil {
			paid = paid.Add(inst.Amount)
		}
	}

	progress := DebtProgress{
		PaidAmount:    paid,
		PendingAmount: d.TotalAmount.Sub(paid),
		Percent:       decimal.Zero,
	}
	if len(d.Installments) == 0 || d.TotalAmount.IsZero() {
		return progress
	}

	hundred := decimal.NewFromInt(100)
	percent := paid.Div(d.TotalAmount).Mul(hundred).Round(2)
	if percent.GreaterThan(hundred) {
		percent = hundred
	}
	progress.Percent = percent
	return progress
}

// HasOverdueInstallments reports whether any non-cancelled installment is
// unpaid and past due as of today.
func (d *Debt) HasOverdueInstallments(today time.Time) bool {
	for _, inst := range d.Installments {
		if inst.Status == InstallmentStatusCancelled {
			continue
		}
		if inst.IsOverdue(today) {
			return true
		}
	}
	return false
}

// DeriveStatus recomputes the debt status from its non-cancelled
// installments. Precedence: paid (all installments paid), overdue (any
// unpaid installment past due), in_progress (some but not all paid),
// pending (nothing paid, nothing overdue). A debt with no installments is
// pending, not paid. The manual cancelled state is never overwritten.
//
// Recomputation is idempotent but not self-scheduling: callers must invoke
// it after every installment creation, edit, or payment, and must serialize
// mutations of the same debt (concurrent payments can otherwise persist a
// stale status).
func (d *Debt) DeriveStatus(today time.Time) DebtStatus {
	if d.Status == DebtStatusCancelled {
		return DebtStatusCancelled
	}

	var total, paidCount int
	anyOverdue := false
	for _, inst := range d.Installments {
		if inst.Status == InstallmentStatusCancelled {
			continue
		}
		total++
		if inst.PaidDate != nil {
			paidCount++
		} else if inst.IsOverdue(today) {
			anyOverdue = true
		}
	}

	switch {
	case total == 0:
		return DebtStatusPending
	case paidCount == total:
		return DebtStatusPaid
	case anyOverdue:
		return DebtStatusOverdue
	case paidCount > 0:
		return DebtStatusInProgress
	default:
		return DebtStatusPending
	}
}
