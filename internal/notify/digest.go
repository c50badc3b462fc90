// Package notify turns flat lists of due-soon or overdue installments into
// per-debt digest payloads, one message per debt per run.
package notify

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/astorino/app-ctrl/internal/models"
)

// GroupKey identifies a digest group: one owner, one debt.
type GroupKey struct {
	UserID string
	DebtID string
}

// Group collects the installments of one debt for one digest run.
type Group struct {
	Debt         *models.Debt
	Installments []models.Installment
}

// DebtResolver loads the owning debt for an installment. A nil result
// (without error) means the debt is gone, e.g. deleted between the query
// and the grouping, and the installment is skipped.
type DebtResolver func(debtID string) (*models.Debt, error)

// GroupByDebt batches installments into per-(user, debt) groups. Group
// order and the order of installments within each group follow first
// appearance in the input. Grouping does not deduplicate across runs;
// idempotent delivery is the delivery layer's responsibility.
func GroupByDebt(installments []models.Installment, resolve DebtResolver) ([]Group, error) {
	index := make(map[GroupKey]int)
	var groups []Group

	for _, inst := range installments {
		debt, err := resolve(inst.DebtID)
		if err != nil {
			return nil, err
		}
		if debt == nil {
			continue
		}

		key := GroupKey{UserID: debt.UserID, DebtID: debt.ID}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Debt: debt})
		}
		groups[pos].Installments = append(groups[pos].Installments, inst)
	}
	return groups, nil
}

// DigestInstallment is one line of a digest message.
type DigestInstallment struct {
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	DueDate time.Time       `json:"due_date"`
}

// Digest is the grouped notification payload for one debt in one run.
type Digest struct {
	UserID       string              `json:"user_id"`
	DebtID       string              `json:"debt_id"`
	DebtName     string              `json:"debt_name"`
	Installments []DigestInstallment `json:"installments"`
}

// NewDigest composes the digest payload for a group.
func NewDigest(g Group) Digest {
	digest := Digest{
		UserID:       g.Debt.UserID,
		DebtID:       g.Debt.ID,
		DebtName:     g.Debt.Name,
		Installments: make([]DigestInstallment, len(g.Installments)),
	}
	for i, inst := range g.Installments {
		digest.Installments[i] = DigestInstallment{
			Number:  inst.Number,
			Amount:  inst.Amount,
			DueDate: inst.DueDate,
		}
	}
	return digest
}
