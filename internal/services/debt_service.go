package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/pagination"
	"github.com/astorino/app-ctrl/internal/schedule"
)

// debtService handles debt and installment business logic. Every
// installment mutation recomputes and persists the owning debt's status
// inside the same database transaction.
type debtService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDebtService creates a new DebtServicer.
func NewDebtService(db *gorm.DB) DebtServicer {
	return &debtService{db: db, now: time.Now}
}

// CreateDebt creates a debt together with its full amortization schedule.
// Schedule validation runs before anything is persisted; on any failure
// nothing is written.
func (s *debtService) CreateDebt(userID, name, description string, totalAmount decimal.Decimal, startDate time.Time, endDate *time.Time, installmentCount, intervalMonths int) (*models.Debt, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if startDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if endDate != nil && endDate.Before(startDate) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not precede start date")
	}

	installments, err := schedule.Generate(totalAmount, installmentCount, startDate, intervalMonths)
	if err != nil {
		var verr *schedule.ValidationError
		if errors.As(err, &verr) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, verr.Error())
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	debt := &models.Debt{
		UserID:      userID,
		Name:        name,
		Description: description,
		TotalAmount: totalAmount,
		Status:      models.DebtStatusPending,
		StartDate:   startDate,
		EndDate:     endDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(debt).Error; err != nil {
			return err
		}
		for i := range installments {
			installments[i].DebtID = debt.ID
		}
		if err := tx.Create(&installments).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	debt.Installments = installments
	return debt, nil
}

// applyDebtFilters narrows a debt query by the optional filter fields.
func applyDebtFilters(query *gorm.DB, filter DebtFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("start_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("start_date <= ?", *filter.ToDate)
	}
	return query
}

// GetUserDebts returns a paginated list of the user's debts with their
// installments ordered by number.
func (s *debtService) GetUserDebts(userID string, page pagination.PageRequest, filter DebtFilter) (*pagination.PageResponse[models.Debt], error) {
	page.Defaults()

	base := applyDebtFilters(s.db.Model(&models.Debt{}).Where("user_id = ?", userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var debts []models.Debt
	if err := base.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).Scopes(pagination.Paginate(page)).
		Order("start_date DESC").
		Find(&debts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(debts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetUpcomingDebts returns the user's open debts that have an unpaid
// installment due within the next windowDays, today included.
func (s *debtService) GetUpcomingDebts(userID string, windowDays int) ([]models.Debt, error) {
	today := models.DateOnly(s.now())
	windowEnd := today.AddDate(0, 0, windowDays+1)
	return s.debtsWithDueInstallments(userID, "due_date >= ? AND due_date < ?", today, windowEnd)
}

// GetOverdueDebts returns the user's open debts that have an unpaid
// installment past its due date.
func (s *debtService) GetOverdueDebts(userID string) ([]models.Debt, error) {
	today := models.DateOnly(s.now())
	return s.debtsWithDueInstallments(userID, "due_date < ?", today)
}

func (s *debtService) debtsWithDueInstallments(userID, dueCond string, dueArgs ...interface{}) ([]models.Debt, error) {
	due := s.db.Model(&models.Installment{}).
		Select("debt_id").
		Where("paid_date IS NULL AND status <> ?", models.InstallmentStatusCancelled).
		Where(dueCond, dueArgs...)

	var debts []models.Debt
	err := s.db.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).
		Where("user_id = ? AND status NOT IN ?", userID,
			[]models.DebtStatus{models.DebtStatusPaid, models.DebtStatusCancelled}).
		Where("id IN (?)", due).
		Order("start_date ASC").
		Find(&debts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	for i := range debts {
		for j := range debts[i].Installments {
			debts[i].Installments[j].Status = debts[i].Installments[j].DeriveStatus(now)
		}
		debts[i].Status = debts[i].DeriveStatus(now)
	}
	return debts, nil
}

// GetDebtByID returns a debt with its installments if it belongs to the user.
func (s *debtService) GetDebtByID(userID, debtID string) (*models.Debt, error) {
	return s.getDebt(s.db, userID, debtID)
}

func (s *debtService) getDebt(db *gorm.DB, userID, debtID string) (*models.Debt, error) {
	var debt models.Debt
	err := db.Preload("Installments", func(db *gorm.DB) *gorm.DB {
		return db.Order("number ASC")
	}).Where("id = ? AND user_id = ?", debtID, userID).First(&debt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrDebtNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Statuses depend on the calendar, so a freshly loaded debt can carry
	// values persisted before a due date passed. Rederive for the caller;
	// persistence happens on the next mutation.
	today := s.now()
	for i := range debt.Installments {
		debt.Installments[i].Status = debt.Installments[i].DeriveStatus(today)
	}
	debt.Status = debt.DeriveStatus(today)
	return &debt, nil
}

// UpdateDebt updates a debt's descriptive fields. The amount and schedule
// are immutable after creation; installments are edited individually.
func (s *debtService) UpdateDebt(userID, debtID string, name, description *string, endDate *time.Time) (*models.Debt, error) {
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil {
		if *name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name must not be empty")
		}
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if endDate != nil {
		if endDate.Before(debt.StartDate) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "end date must not precede start date")
		}
		updates["end_date"] = *endDate
	}

	if len(updates) > 0 {
		if err := s.db.Model(debt).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return debt, nil
}

// CancelDebt marks a debt and its unpaid installments as cancelled.
// Cancelled is terminal: the status is never recomputed afterwards. Paid
// installments keep their payment record.
func (s *debtService) CancelDebt(userID, debtID string) (*models.Debt, error) {
	var debt *models.Debt
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		debt, err = s.getDebt(tx, userID, debtID)
		if err != nil {
			return err
		}

		if err := tx.Model(&models.Installment{}).
			Where("debt_id = ? AND paid_date IS NULL AND status <> ?", debt.ID, models.InstallmentStatusCancelled).
			Update("status", models.InstallmentStatusCancelled).Error; err != nil {
			return err
		}
		if err := tx.Model(debt).Update("status", models.DebtStatusCancelled).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetDebtByID(userID, debtID)
}

// DeleteDebt soft-deletes a debt and its installments.
func (s *debtService) DeleteDebt(userID, debtID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		debt, err := s.getDebt(tx, userID, debtID)
		if err != nil {
			return err
		}
		if err := tx.Where("debt_id = ?", debt.ID).Delete(&models.Installment{}).Error; err != nil {
			return err
		}
		return tx.Delete(debt).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetInstallments returns a debt's installments ordered by number.
func (s *debtService) GetInstallments(userID, debtID string) ([]models.Installment, error) {
	debt, err := s.GetDebtByID(userID, debtID)
	if err != nil {
		return nil, err
	}
	return debt.Installments, nil
}

// GetInstallmentByID returns a single installment, checking debt ownership.
func (s *debtService) GetInstallmentByID(userID, debtID, installmentID string) (*models.Installment, error) {
	if _, err := s.GetDebtByID(userID, debtID); err != nil {
		return nil, err
	}

	var installment models.Installment
	err := s.db.Where("id = ? AND debt_id = ?", installmentID, debtID).First(&installment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInstallmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &installment, nil
}

// UpdateInstallment edits an installment's amount, due date, paid date or
// note, then rederives the installment and debt statuses in the same
// transaction. Setting paidDate to a zero time clears the payment.
func (s *debtService) UpdateInstallment(userID, debtID, installmentID string, amount *decimal.Decimal, dueDate, paidDate *time.Time, note *string) (*models.Installment, error) {
	if amount != nil && amount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}

	var installment *models.Installment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		debt, err := s.getDebt(tx, userID, debtID)
		if err != nil {
			return err
		}

		var target *models.Installment
		for i := range debt.Installments {
			if debt.Installments[i].ID == installmentID {
				target = &debt.Installments[i]
				break
			}
		}
		if target == nil {
			return apperrors.ErrInstallmentNotFound
		}
		if target.Status == models.InstallmentStatusCancelled {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "cancelled installments cannot be edited")
		}

		if amount != nil {
			target.Amount = *amount
		}
		if dueDate != nil {
			target.DueDate = *dueDate
		}
		if paidDate != nil {
			if paidDate.IsZero() {
				target.PaidDate = nil
			} else {
				d := *paidDate
				target.PaidDate = &d
			}
		}
		if note != nil {
			target.Note = *note
		}
		target.Status = target.DeriveStatus(s.now())

		if err := tx.Save(target).Error; err != nil {
			return err
		}
		if err := tx.Model(debt).Update("status", debt.DeriveStatus(s.now())).Error; err != nil {
			return err
		}
		installment = target
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return installment, nil
}

// PayInstallment records a payment on an installment and recomputes the
// debt status in the same transaction. Paying an already-paid installment
// fails; payments are corrected through UpdateInstallment.
func (s *debtService) PayInstallment(userID, debtID, installmentID string, paidDate *time.Time, note string) (*models.Installment, error) {
	var installment *models.Installment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		debt, err := s.getDebt(tx, userID, debtID)
		if err != nil {
			return err
		}

		var target *models.Installment
		for i := range debt.Installments {
			if debt.Installments[i].ID == installmentID {
				target = &debt.Installments[i]
				break
			}
		}
		if target == nil {
			return apperrors.ErrInstallmentNotFound
		}
		if target.PaidDate != nil {
			return apperrors.ErrInstallmentPaid
		}
		if target.Status == models.InstallmentStatusCancelled {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "cancelled installments cannot be paid")
		}

		when := s.now()
		if paidDate != nil && !paidDate.IsZero() {
			when = *paidDate
		}
		target.PaidDate = &when
		target.Status = models.InstallmentStatusPaid
		if note != "" {
			target.Note = note
		}

		if err := tx.Save(target).Error; err != nil {
			return err
		}
		if err := tx.Model(debt).Update("status", debt.DeriveStatus(s.now())).Error; err != nil {
			return err
		}
		installment = target
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return installment, nil
}

// GetDebtSummary aggregates counts and amounts over all of the user's
// non-cancelled debts.
func (s *debtService) GetDebtSummary(userID string) (*models.DebtSummary, error) {
	var debts []models.Debt
	err := s.db.Preload("Installments").
		Where("user_id = ? AND status <> ?", userID, models.DebtStatusCancelled).
		Find(&debts).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Stored statuses can lag behind the calendar (an installment goes
	// overdue without any mutation), so rederive before summarizing.
	today := s.now()
	for i := range debts {
		debts[i].Status = debts[i].DeriveStatus(today)
	}

	summary := models.SummarizeDebts(debts)
	return &summary, nil
}
