package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/astorino/app-ctrl/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     fmt.Sprintf("Test User %d", nextID()),
		Email:    fmt.Sprintf("user%d@test.com", nextID()),
		Password: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction of the given type and amount.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, categoryID string, txType models.TransactionType, amount decimal.Decimal, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget for the given category and month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, amount decimal.Decimal, month, year int, rules models.NotificationRules) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:            userID,
		CategoryID:        categoryID,
		Amount:            amount,
		Month:             month,
		Year:              year,
		NotificationRules: rules,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestDebt creates a debt without installments.
func CreateTestDebt(t *testing.T, db *gorm.DB, userID string, total decimal.Decimal, startDate time.Time) *models.Debt {
	t.Helper()

	debt := &models.Debt{
		UserID:      userID,
		Name:        fmt.Sprintf("Test Debt %d", nextID()),
		TotalAmount: total,
		Status:      models.DebtStatusPending,
		StartDate:   startDate,
	}
	if err := db.Create(debt).Error; err != nil {
		t.Fatalf("failed to create test debt: %v", err)
	}
	return debt
}

// CreateTestInstallment creates an installment for the given debt.
func CreateTestInstallment(t *testing.T, db *gorm.DB, debtID string, number int, amount decimal.Decimal, dueDate time.Time) *models.Installment {
	t.Helper()

	inst := &models.Installment{
		DebtID:  debtID,
		Number:  number,
		Amount:  amount,
		DueDate: dueDate,
		Status:  models.InstallmentStatusPending,
	}
	if err := db.Create(inst).Error; err != nil {
		t.Fatalf("failed to create test installment: %v", err)
	}
	return inst
}
