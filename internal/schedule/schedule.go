// Package schedule generates amortization schedules: the ordered set of
// dated installments covering a debt's total amount.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/astorino/app-ctrl/internal/models"
)

// FieldError describes a single input validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError aggregates the field errors that rejected a schedule
// request. Generation is fail-fast: nothing is produced when any input
// is invalid.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid schedule request: " + strings.Join(msgs, "; ")
}

// Validate checks the generation inputs and returns every violation at once.
func Validate(total decimal.Decimal, count, intervalMonths int) *ValidationError {
	var fields []FieldError
	if count < 1 {
		fields = append(fields, FieldError{Field: "installment_count", Rule: "min", Message: "must be at least 1"})
	}
	if total.IsNegative() {
		fields = append(fields, FieldError{Field: "total_amount", Rule: "min", Message: "must not be negative"})
	}
	if intervalMonths < 1 {
		fields = append(fields, FieldError{Field: "interval_months", Rule: "min", Message: "must be at least 1"})
	}
	if fields == nil {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// Generate splits total into count installments due every intervalMonths
// calendar months starting at start. The first count-1 installments carry
// the total divided by count rounded to two decimals; the last carries the
// remainder, so the amounts always sum to total exactly regardless of
// rounding drift. Due dates keep start's day-of-month, clamped to the last
// day of shorter target months. Installments are numbered from 1 in due
// order with pending status.
func Generate(total decimal.Decimal, count int, start time.Time, intervalMonths int) ([]models.Installment, error) {
	if verr := Validate(total, count, intervalMonths); verr != nil {
		return nil, verr
	}

	share := total.Div(decimal.NewFromInt(int64(count))).Round(2)

	installments := make([]models.Installment, count)
	allocated := decimal.Zero
	for i := 0; i < count; i++ {
		amount := share
		if i == count-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		installments[i] = models.Installment{
			Number:  i + 1,
			Amount:  amount,
			DueDate: addMonthsClamped(start, i*intervalMonths),
			Status:  models.InstallmentStatusPending,
		}
	}
	return installments, nil
}

// addMonthsClamped advances t by the given number of calendar months,
// clamping the day-of-month to the target month's last day. Unlike
// time.AddDate, Jan 31 + 1 month is Feb 28 (or 29), not Mar 2/3.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}
