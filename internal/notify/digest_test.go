package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/astorino/app-ctrl/internal/models"
)

func testDebt(id, userID, name string) *models.Debt {
	debt := &models.Debt{UserID: userID, Name: name}
	debt.ID = id
	return debt
}

func testInstallment(debtID string, number int) models.Installment {
	inst := models.Installment{
		DebtID:  debtID,
		Number:  number,
		Amount:  decimal.RequireFromString("100.00"),
		DueDate: time.Date(2025, time.June, number, 0, 0, 0, 0, time.UTC),
	}
	return inst
}

func TestGroupByDebt(t *testing.T) {
	t.Run("groups_by_debt_preserving_order", func(t *testing.T) {
		debts := map[string]*models.Debt{
			"debt-a": testDebt("debt-a", "user-1", "Car loan"),
			"debt-b": testDebt("debt-b", "user-2", "Mortgage"),
		}
		resolve := func(debtID string) (*models.Debt, error) {
			return debts[debtID], nil
		}

		installments := []models.Installment{
			testInstallment("debt-a", 1),
			testInstallment("debt-b", 1),
			testInstallment("debt-a", 2),
			testInstallment("debt-a", 3),
		}

		groups, err := GroupByDebt(installments, resolve)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(groups))
		}

		if groups[0].Debt.ID != "debt-a" || groups[1].Debt.ID != "debt-b" {
			t.Errorf("expected first-appearance order [debt-a debt-b], got [%s %s]",
				groups[0].Debt.ID, groups[1].Debt.ID)
		}
		if len(groups[0].Installments) != 3 {
			t.Errorf("expected 3 installments for debt-a, got %d", len(groups[0].Installments))
		}
		for i, inst := range groups[0].Installments {
			if inst.Number != i+1 {
				t.Errorf("expected installment order preserved, got number %d at index %d", inst.Number, i)
			}
		}
	})

	t.Run("skips_unresolved_debts", func(t *testing.T) {
		resolve := func(debtID string) (*models.Debt, error) {
			if debtID == "gone" {
				return nil, nil
			}
			return testDebt(debtID, "user-1", "Loan"), nil
		}

		groups, err := GroupByDebt([]models.Installment{
			testInstallment("gone", 1),
			testInstallment("debt-a", 1),
		}, resolve)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 1 || groups[0].Debt.ID != "debt-a" {
			t.Errorf("expected only debt-a group, got %v", groups)
		}
	})

	t.Run("resolver_error_aborts", func(t *testing.T) {
		wantErr := errors.New("db down")
		resolve := func(string) (*models.Debt, error) { return nil, wantErr }

		_, err := GroupByDebt([]models.Installment{testInstallment("debt-a", 1)}, resolve)
		if !errors.Is(err, wantErr) {
			t.Errorf("expected resolver error to propagate, got %v", err)
		}
	})

	t.Run("empty_input_yields_no_groups", func(t *testing.T) {
		groups, err := GroupByDebt(nil, func(string) (*models.Debt, error) {
			t.Fatal("resolver must not be called")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(groups) != 0 {
			t.Errorf("expected no groups, got %d", len(groups))
		}
	})
}

func TestNewDigest(t *testing.T) {
	group := Group{
		Debt: testDebt("debt-a", "user-1", "Car loan"),
		Installments: []models.Installment{
			testInstallment("debt-a", 2),
			testInstallment("debt-a", 5),
		},
	}

	digest := NewDigest(group)
	if digest.UserID != "user-1" || digest.DebtID != "debt-a" || digest.DebtName != "Car loan" {
		t.Errorf("unexpected digest header: %+v", digest)
	}
	if len(digest.Installments) != 2 {
		t.Fatalf("expected 2 digest lines, got %d", len(digest.Installments))
	}
	if digest.Installments[0].Number != 2 || digest.Installments[1].Number != 5 {
		t.Errorf("expected installment numbers [2 5], got [%d %d]",
			digest.Installments[0].Number, digest.Installments[1].Number)
	}
}
