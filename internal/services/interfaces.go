package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/notify"
	"github.com/astorino/app-ctrl/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(name, email, password string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	UpdateLastLogin(userID string) error
	UpdatePassword(userID, newPassword string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, color, icon string) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, color, icon string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *string
}

// BalanceSummary totals income and expense transactions over a window.
type BalanceSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, categoryID string, transactionType models.TransactionType, amount decimal.Decimal, date time.Time, description, paymentMethod string, tags []string, recurring bool) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, amount *decimal.Decimal, date *time.Time, categoryID *string, description, paymentMethod *string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetBalanceSummary(userID string, from, to *time.Time) (*BalanceSummary, error)
}

// BudgetAlert is the result of evaluating a budget's notification rules
// against the amount already spent in its month. Triggered is nil when no
// rule fires.
type BudgetAlert struct {
	BudgetID  string                    `json:"budget_id"`
	Spent     decimal.Decimal           `json:"spent"`
	Percent   decimal.Decimal           `json:"percent"`
	Triggered []models.NotificationRule `json:"triggered"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID string, amount decimal.Decimal, month, year int, rules models.NotificationRules) (*models.Budget, error)
	GetUserBudgets(userID string, page pagination.PageRequest, month, year *int) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, amount *decimal.Decimal, rules *models.NotificationRules) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetSpentAmount(userID string, budget *models.Budget) (decimal.Decimal, error)
	CheckThresholds(userID, budgetID string) (*BudgetAlert, error)
}

// DebtFilter holds optional filter parameters for listing debts.
type DebtFilter struct {
	Status   *models.DebtStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// DebtServicer defines the contract for debt-related business logic.
type DebtServicer interface {
	CreateDebt(userID, name, description string, totalAmount decimal.Decimal, startDate time.Time, endDate *time.Time, installmentCount, intervalMonths int) (*models.Debt, error)
	GetUserDebts(userID string, page pagination.PageRequest, filter DebtFilter) (*pagination.PageResponse[models.Debt], error)
	GetUpcomingDebts(userID string, windowDays int) ([]models.Debt, error)
	GetOverdueDebts(userID string) ([]models.Debt, error)
	GetDebtByID(userID, debtID string) (*models.Debt, error)
	UpdateDebt(userID, debtID string, name, description *string, endDate *time.Time) (*models.Debt, error)
	CancelDebt(userID, debtID string) (*models.Debt, error)
	DeleteDebt(userID, debtID string) error
	GetInstallments(userID, debtID string) ([]models.Installment, error)
	GetInstallmentByID(userID, debtID, installmentID string) (*models.Installment, error)
	UpdateInstallment(userID, debtID, installmentID string, amount *decimal.Decimal, dueDate, paidDate *time.Time, note *string) (*models.Installment, error)
	PayInstallment(userID, debtID, installmentID string, paidDate *time.Time, note string) (*models.Installment, error)
	GetDebtSummary(userID string) (*models.DebtSummary, error)
}

// NotificationServicer selects and groups installments for digest
// notifications. Delivery is out of scope; digests are handed to the log.
type NotificationServicer interface {
	UpcomingDigests(windowDays int) ([]notify.Digest, error)
	OverdueDigests() ([]notify.Digest, error)
	CheckUpcomingInstallments(windowDays int)
	CheckOverdueInstallments()
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
