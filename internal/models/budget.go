package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// NotificationRule is a budget alert threshold. Kind is a free-form
// label carried through to the notification payload (e.g. "alert",
// "critical"); ThresholdPercent may exceed 100 for overspend rules.
type NotificationRule struct {
	Kind             string  `json:"kind"`
	ThresholdPercent float64 `json:"threshold_percent"`
	Active           bool    `json:"active"`
}

// NotificationRules is the ordered JSON column of threshold rules.
type NotificationRules []NotificationRule

// Value implements driver.Valuer.
func (r NotificationRules) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *NotificationRules) Scan(value any) error {
	if value == nil {
		*r = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for NotificationRules", value)
	}
}

// Budget represents a monthly spending limit for a category
type Budget struct {
	Base
	UserID            string            `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID        string            `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount            decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Month             int               `gorm:"not null;index" json:"month"`
	Year              int               `gorm:"not null;index" json:"year"`
	NotificationRules NotificationRules `gorm:"type:json" json:"notification_rules,omitempty"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// EvaluateThresholds returns the notification rules triggered by the given
// spend level, sorted by threshold descending (ties keep their original
// order). It returns nil, not an empty slice, when the budget has no rules,
// a zero amount, or no rule fires; callers rely on nil meaning "nothing to
// notify".
func (b *Budget) EvaluateThresholds(spent decimal.Decimal) []NotificationRule {
	if len(b.NotificationRules) == 0 || b.Amount.IsZero() {
		return nil
	}

	percent := spent.Div(b.Amount).Mul(decimal.NewFromInt(100))

	var triggered []NotificationRule
	for _, rule := range b.NotificationRules {
		if rule.Active && percent.GreaterThanOrEqual(decimal.NewFromFloat(rule.ThresholdPercent)) {
			triggered = append(triggered, rule)
		}
	}
	if len(triggered) == 0 {
		return nil
	}

	sort.SliceStable(triggered, func(i, j int) bool {
		return triggered[i].ThresholdPercent > triggered[j].ThresholdPercent
	})
	return triggered
}
