package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/logger"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/notify"
)

// notificationService selects due-soon and overdue installments and groups
// them into per-debt digests. Delivery is the log for now; the digest
// payloads are shaped for a future mail or push channel.
type notificationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNotificationService creates a new NotificationServicer.
func NewNotificationService(db *gorm.DB) NotificationServicer {
	return &notificationService{db: db, now: time.Now}
}

// resolveDebt loads the owning debt for grouping. Debts that are deleted
// or cancelled drop out of the digest without failing the whole run.
func (s *notificationService) resolveDebt(cache map[string]*models.Debt) notify.DebtResolver {
	return func(debtID string) (*models.Debt, error) {
		if debt, ok := cache[debtID]; ok {
			return debt, nil
		}

		var debt models.Debt
		err := s.db.Where("id = ? AND status <> ?", debtID, models.DebtStatusCancelled).First(&debt).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				cache[debtID] = nil
				return nil, nil
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		cache[debtID] = &debt
		return &debt, nil
	}
}

func (s *notificationService) digests(installments []models.Installment) ([]notify.Digest, error) {
	groups, err := notify.GroupByDebt(installments, s.resolveDebt(make(map[string]*models.Debt)))
	if err != nil {
		return nil, err
	}

	digests := make([]notify.Digest, len(groups))
	for i, g := range groups {
		digests[i] = notify.NewDigest(g)
	}
	return digests, nil
}

// UpcomingDigests groups unpaid installments due within the next
// windowDays, today included, one digest per debt.
func (s *notificationService) UpcomingDigests(windowDays int) ([]notify.Digest, error) {
	today := models.DateOnly(s.now())
	windowEnd := today.AddDate(0, 0, windowDays+1)

	var installments []models.Installment
	err := s.db.
		Where("paid_date IS NULL AND status <> ? AND due_date >= ? AND due_date < ?",
			models.InstallmentStatusCancelled, today, windowEnd).
		Order("due_date ASC, number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.digests(installments)
}

// OverdueDigests groups unpaid installments whose due date has passed,
// one digest per debt.
func (s *notificationService) OverdueDigests() ([]notify.Digest, error) {
	today := models.DateOnly(s.now())

	var installments []models.Installment
	err := s.db.
		Where("paid_date IS NULL AND status <> ? AND due_date < ?",
			models.InstallmentStatusCancelled, today).
		Order("due_date ASC, number ASC").
		Find(&installments).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.digests(installments)
}

// CheckUpcomingInstallments is the scheduled entry point for the daily
// due-soon scan.
func (s *notificationService) CheckUpcomingInstallments(windowDays int) {
	digests, err := s.UpcomingDigests(windowDays)
	if err != nil {
		logger.Get().Errorw("upcoming installment scan failed", "error", err)
		return
	}

	for _, d := range digests {
		logger.Get().Infow("upcoming installments digest",
			"user_id", d.UserID,
			"debt_id", d.DebtID,
			"debt_name", d.DebtName,
			"installments", len(d.Installments),
		)
	}
	logger.Get().Infow("upcoming installment scan finished", "digests", len(digests), "window_days", windowDays)
}

// CheckOverdueInstallments is the scheduled entry point for the daily
// overdue scan.
func (s *notificationService) CheckOverdueInstallments() {
	digests, err := s.OverdueDigests()
	if err != nil {
		logger.Get().Errorw("overdue installment scan failed", "error", err)
		return
	}

	for _, d := range digests {
		logger.Get().Infow("overdue installments digest",
			"user_id", d.UserID,
			"debt_id", d.DebtID,
			"debt_name", d.DebtName,
			"installments", len(d.Installments),
		)
	}
	logger.Get().Infow("overdue installment scan finished", "digests", len(digests))
}
