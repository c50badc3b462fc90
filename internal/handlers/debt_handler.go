package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/pagination"
	"github.com/astorino/app-ctrl/internal/services"
)

// DebtHandler handles debt and installment requests.
type DebtHandler struct {
	debtService  services.DebtServicer
	auditService services.AuditServicer
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtService services.DebtServicer, auditService services.AuditServicer) *DebtHandler {
	return &DebtHandler{debtService: debtService, auditService: auditService}
}

// CreateDebtRequest represents the request payload for creating a debt.
type CreateDebtRequest struct {
	Name             string          `json:"name" binding:"required,min=1,max=100"`
	Description      string          `json:"description" binding:"omitempty,max=500"`
	TotalAmount      decimal.Decimal `json:"total_amount" binding:"required"`
	StartDate        time.Time       `json:"start_date" binding:"required"`
	EndDate          *time.Time      `json:"end_date"`
	InstallmentCount int             `json:"installment_count" binding:"required,min=1,max=360"`
	IntervalMonths   int             `json:"interval_months" binding:"omitempty,min=1,max=12"`
}

// UpdateDebtRequest represents the request payload for updating a debt.
type UpdateDebtRequest struct {
	Name        *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	EndDate     *time.Time `json:"end_date"`
}

// UpdateInstallmentRequest represents the request payload for editing an installment.
type UpdateInstallmentRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	DueDate  *time.Time       `json:"due_date"`
	PaidDate *time.Time       `json:"paid_date"`
	Note     *string          `json:"note" binding:"omitempty,max=500"`
}

// PayInstallmentRequest represents the request payload for paying an installment.
type PayInstallmentRequest struct {
	PaidDate *time.Time `json:"paid_date"`
	Note     string     `json:"note" binding:"omitempty,max=500"`
}

// debtResponse wraps a debt with its derived progress.
type debtResponse struct {
	*models.Debt
	Progress models.DebtProgress `json:"progress"`
}

func newDebtResponse(debt *models.Debt) debtResponse {
	return debtResponse{Debt: debt, Progress: debt.Progress()}
}

// CreateDebt creates a debt with its amortization schedule.
// @Summary     Create a debt
// @Description Create a debt and generate its full installment schedule
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDebtRequest true "Debt details"
// @Success     201 {object} models.Debt "Debt created with installments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /debts [post]
func (h *DebtHandler) CreateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	intervalMonths := req.IntervalMonths
	if intervalMonths == 0 {
		intervalMonths = 1
	}

	debt, err := h.debtService.CreateDebt(userID, req.Name, req.Description, req.TotalAmount,
		req.StartDate, req.EndDate, req.InstallmentCount, intervalMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "create", "debt", debt.ID, c.ClientIP(), map[string]interface{}{
		"total_amount": debt.TotalAmount.String(),
		"installments": len(debt.Installments),
	})
	c.JSON(http.StatusCreated, newDebtResponse(debt))
}

// GetDebts lists the user's debts.
// @Summary     List debts
// @Description Get a paginated list of debts with optional status and date filters
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Param       status query string false "Debt status" Enums(pending, in_progress, overdue, paid, cancelled)
// @Param       from query string false "Earliest start date (YYYY-MM-DD)"
// @Param       to query string false "Latest start date (YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Debt] "Debts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /debts [get]
func (h *DebtHandler) GetDebts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		pagination.PageRequest
		Status *string    `form:"status" binding:"omitempty,debt_status"`
		From   *time.Time `form:"from" time_format:"2006-01-02"`
		To     *time.Time `form:"to" time_format:"2006-01-02"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.DebtFilter{FromDate: query.From, ToDate: query.To}
	if query.Status != nil {
		s := models.DebtStatus(*query.Status)
		filter.Status = &s
	}

	result, err := h.debtService.GetUserDebts(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDebtSummary aggregates the user's debts.
// @Summary     Get debt summary
// @Description Totals and status counts across all non-cancelled debts
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.DebtSummary "Debt summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /debts/summary [get]
func (h *DebtHandler) GetDebtSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.debtService.GetDebtSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func newDebtResponses(debts []models.Debt) []debtResponse {
	responses := make([]debtResponse, len(debts))
	for i := range debts {
		responses[i] = newDebtResponse(&debts[i])
	}
	return responses
}

// GetUpcomingDebts lists debts with installments due soon.
// @Summary     List upcoming debts
// @Description Debts with an unpaid installment due within the given window
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       days query int false "Window in days" default(3)
// @Success     200 {array} models.Debt "Debts with upcoming installments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /debts/upcoming [get]
func (h *DebtHandler) GetUpcomingDebts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		Days int `form:"days" binding:"omitempty,min=1,max=365"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if query.Days == 0 {
		query.Days = 3
	}

	debts, err := h.debtService.GetUpcomingDebts(userID, query.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDebtResponses(debts))
}

// GetOverdueDebts lists debts with installments past their due date.
// @Summary     List overdue debts
// @Description Debts with an unpaid installment past its due date
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Debt "Debts with overdue installments"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /debts/overdue [get]
func (h *DebtHandler) GetOverdueDebts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debts, err := h.debtService.GetOverdueDebts(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDebtResponses(debts))
}

// GetDebt returns a single debt with its installments and progress.
// @Summary     Get a debt
// @Description Get a debt by ID with its installment schedule and progress
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} models.Debt "Debt with installments"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [get]
func (h *DebtHandler) GetDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.GetDebtByID(userID, debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newDebtResponse(debt))
}

// UpdateDebt updates a debt's descriptive fields.
// @Summary     Update a debt
// @Description Update a debt's name, description, or end date
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Param       request body UpdateDebtRequest true "Fields to update"
// @Success     200 {object} models.Debt "Debt updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [put]
func (h *DebtHandler) UpdateDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	debt, err := h.debtService.UpdateDebt(userID, debtID, req.Name, req.Description, req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "update", "debt", debt.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, newDebtResponse(debt))
}

// CancelDebt cancels a debt and its unpaid installments.
// @Summary     Cancel a debt
// @Description Mark a debt and its unpaid installments as cancelled
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {object} models.Debt "Debt cancelled"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id}/cancel [post]
func (h *DebtHandler) CancelDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	debt, err := h.debtService.CancelDebt(userID, debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "cancel", "debt", debt.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, newDebtResponse(debt))
}

// DeleteDebt deletes a debt and its installments.
// @Summary     Delete a debt
// @Description Delete a debt and its installment schedule
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     204 "Debt deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id} [delete]
func (h *DebtHandler) DeleteDebt(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.debtService.DeleteDebt(userID, debtID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "delete", "debt", debtID, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}

// GetInstallments lists a debt's installments.
// @Summary     List installments
// @Description Get a debt's installment schedule ordered by number
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Success     200 {array} models.Installment "Installments"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Debt not found"
// @Router      /debts/{id}/installments [get]
func (h *DebtHandler) GetInstallments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	installments, err := h.debtService.GetInstallments(userID, debtID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, installments)
}

// GetInstallment returns a single installment.
// @Summary     Get an installment
// @Description Get one installment of a debt
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Param       installmentId path string true "Installment ID"
// @Success     200 {object} models.Installment "Installment"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Installment not found"
// @Router      /debts/{id}/installments/{installmentId} [get]
func (h *DebtHandler) GetInstallment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	installmentID, err := parsePathID(c, "installmentId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	installment, err := h.debtService.GetInstallmentByID(userID, debtID, installmentID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, installment)
}

// UpdateInstallment edits an installment.
// @Summary     Update an installment
// @Description Edit an installment's amount, due date, paid date, or note
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Param       installmentId path string true "Installment ID"
// @Param       request body UpdateInstallmentRequest true "Fields to update"
// @Success     200 {object} models.Installment "Installment updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Installment not found"
// @Router      /debts/{id}/installments/{installmentId} [put]
func (h *DebtHandler) UpdateInstallment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	installmentID, err := parsePathID(c, "installmentId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	installment, err := h.debtService.UpdateInstallment(userID, debtID, installmentID,
		req.Amount, req.DueDate, req.PaidDate, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "update", "installment", installment.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, installment)
}

// PayInstallment records a payment on an installment.
// @Summary     Pay an installment
// @Description Mark an installment as paid and recompute the debt status
// @Tags        debts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Debt ID"
// @Param       installmentId path string true "Installment ID"
// @Param       request body PayInstallmentRequest false "Payment details"
// @Success     200 {object} models.Installment "Installment paid"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Installment not found"
// @Failure     409 {object} ErrorResponse "Installment already paid"
// @Router      /debts/{id}/installments/{installmentId}/pay [post]
func (h *DebtHandler) PayInstallment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	debtID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	installmentID, err := parsePathID(c, "installmentId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PayInstallmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	installment, err := h.debtService.PayInstallment(userID, debtID, installmentID, req.PaidDate, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "pay", "installment", installment.ID, c.ClientIP(), map[string]interface{}{
		"amount": installment.Amount.String(),
	})
	c.JSON(http.StatusOK, installment)
}
