package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categoryService CategoryServicer) BudgetServicer {
	return &budgetService{db: db, categoryService: categoryService}
}

// validateBudgetPeriod enforces the month/year bounds shared by create and list.
func validateBudgetPeriod(month, year int) error {
	if month < 1 || month > 12 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if year < 2000 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be 2000 or later")
	}
	return nil
}

// CreateBudget creates a new monthly budget for a category.
func (s *budgetService) CreateBudget(userID, categoryID string, amount decimal.Decimal, month, year int, rules models.NotificationRules) (*models.Budget, error) {
	if amount.IsNegative() || amount.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if err := validateBudgetPeriod(month, year); err != nil {
		return nil, err
	}

	if _, err := s.categoryService.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		UserID:            userID,
		CategoryID:        categoryID,
		Amount:            amount,
		Month:             month,
		Year:              year,
		NotificationRules: rules,
	}
	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetUserBudgets returns a paginated list of budgets with optional month/year filters.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, month, year *int) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if month != nil {
		base = base.Where("month = ?", *month)
	}
	if year != nil {
		base = base.Where("year = ?", *year)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").Scopes(pagination.Paginate(page)).
		Order("year DESC, month DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates a budget's amount and notification rules.
func (s *budgetService) UpdateBudget(userID, budgetID string, amount *decimal.Decimal, rules *models.NotificationRules) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if amount != nil {
		if amount.IsNegative() || amount.IsZero() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = *amount
	}
	if rules != nil {
		updates["notification_rules"] = *rules
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return budget, nil
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetSpentAmount sums the user's expense transactions for the budget's
// category within its month.
func (s *budgetService) GetSpentAmount(userID string, budget *models.Budget) (decimal.Decimal, error) {
	periodStart := time.Date(budget.Year, time.Month(budget.Month), 1, 0, 0, 0, 0, time.UTC)
	periodEnd := periodStart.AddDate(0, 1, 0)

	var transactions []models.Transaction
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date < ?",
			userID, budget.CategoryID, models.TransactionTypeExpense, periodStart, periodEnd).
		Find(&transactions).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent := decimal.Zero
	for _, tx := range transactions {
		spent = spent.Add(tx.Amount)
	}
	return spent, nil
}

// CheckThresholds evaluates the budget's notification rules against the
// month's spending. Triggered is nil when no active rule fires.
func (s *budgetService) CheckThresholds(userID, budgetID string) (*BudgetAlert, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	spent, err := s.GetSpentAmount(userID, budget)
	if err != nil {
		return nil, err
	}

	percent := decimal.Zero
	if !budget.Amount.IsZero() {
		percent = spent.Div(budget.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &BudgetAlert{
		BudgetID:  budget.ID,
		Spent:     spent,
		Percent:   percent,
		Triggered: budget.EvaluateThresholds(spent),
	}, nil
}
