package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus represents the derived status of an installment
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "pending"
	InstallmentStatusPaid      InstallmentStatus = "paid"
	InstallmentStatusOverdue   InstallmentStatus = "overdue"
	InstallmentStatusCancelled InstallmentStatus = "cancelled"
)

// Installment is one dated share of a debt's amortization schedule.
// Status is derived from PaidDate and DueDate, never set as independent
// truth; cancelled is the only manually-set value and is terminal.
type Installment struct {
	Base
	DebtID   string            `gorm:"type:uuid;not null;index" json:"debt_id"`
	Number   int               `gorm:"not null" json:"number"`
	Amount   decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	DueDate  time.Time         `gorm:"not null" json:"due_date"`
	PaidDate *time.Time        `json:"paid_date,omitempty"`
	Status   InstallmentStatus `gorm:"not null;default:pending" json:"status"`
	Note     string            `json:"note,omitempty"`
}

// IsOverdue reports whether the installment is unpaid and past due as of
// today. Comparison is date-only; time of day is ignored.
func (i *Installment) IsOverdue(today time.Time) bool {
	if i.PaidDate != nil {
		return false
	}
	return DateOnly(i.DueDate).Before(DateOnly(today))
}

// DeriveStatus recomputes the installment status from its payment and due
// date facts. Paid is terminal once PaidDate is set; cancelled is never
// overwritten.
func (i *Installment) DeriveStatus(today time.Time) InstallmentStatus {
	switch {
	case i.Status == InstallmentStatusCancelled:
		return InstallmentStatusCancelled
	case i.PaidDate != nil:
		return InstallmentStatusPaid
	case i.IsOverdue(today):
		return InstallmentStatusOverdue
	default:
		return InstallmentStatusPending
	}
}
