package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/astorino/app-ctrl/internal/errors"
	"github.com/astorino/app-ctrl/internal/models"
	"github.com/astorino/app-ctrl/internal/pagination"
	"github.com/astorino/app-ctrl/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// NotificationRuleRequest represents a single threshold rule in a budget payload.
type NotificationRuleRequest struct {
	Kind             string  `json:"kind" binding:"required,max=30"`
	ThresholdPercent float64 `json:"threshold_percent" binding:"required,gt=0"`
	Active           bool    `json:"active"`
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	CategoryID        string                    `json:"category_id" binding:"required,uuid"`
	Amount            decimal.Decimal           `json:"amount" binding:"required"`
	Month             int                       `json:"month" binding:"required,min=1,max=12"`
	Year              int                       `json:"year" binding:"required,min=2000"`
	NotificationRules []NotificationRuleRequest `json:"notification_rules" binding:"omitempty,max=10,dive"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	Amount            *decimal.Decimal           `json:"amount"`
	NotificationRules *[]NotificationRuleRequest `json:"notification_rules" binding:"omitempty,max=10,dive"`
}

func toNotificationRules(reqs []NotificationRuleRequest) models.NotificationRules {
	if reqs == nil {
		return nil
	}
	rules := make(models.NotificationRules, len(reqs))
	for i, r := range reqs {
		rules[i] = models.NotificationRule{
			Kind:             r.Kind,
			ThresholdPercent: r.ThresholdPercent,
			Active:           r.Active,
		}
	}
	return rules
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a monthly spending limit for a category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Budget already exists for this month"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.CategoryID, req.Amount,
		req.Month, req.Year, toNotificationRules(req.NotificationRules))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "create", "budget", budget.ID, c.ClientIP(), map[string]interface{}{
		"amount": budget.Amount.String(),
		"month":  budget.Month,
		"year":   budget.Year,
	})
	c.JSON(http.StatusCreated, budget)
}

// GetBudgets lists the user's budgets.
// @Summary     List budgets
// @Description Get a paginated list of budgets with optional month/year filters
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Param       month query int false "Month (1-12)"
// @Param       year query int false "Year"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		pagination.PageRequest
		Month *int `form:"month" binding:"omitempty,min=1,max=12"`
		Year  *int `form:"year" binding:"omitempty,min=2000"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetService.GetUserBudgets(userID, query.PageRequest, query.Month, query.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBudget returns a single budget.
// @Summary     Get a budget
// @Description Get a budget by ID
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} models.Budget "Budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// GetBudgetAlerts evaluates a budget's notification thresholds.
// @Summary     Check budget thresholds
// @Description Evaluate the budget's notification rules against the month's spending
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetAlert "Threshold evaluation"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/alerts [get]
func (h *BudgetHandler) GetBudgetAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	alert, err := h.budgetService.CheckThresholds(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// UpdateBudget updates a budget.
// @Summary     Update a budget
// @Description Update a budget's amount or notification rules
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to update"
// @Success     200 {object} models.Budget "Budget updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var rules *models.NotificationRules
	if req.NotificationRules != nil {
		converted := toNotificationRules(*req.NotificationRules)
		rules = &converted
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, req.Amount, rules)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "update", "budget", budget.ID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, budget)
}

// DeleteBudget deletes a budget.
// @Summary     Delete a budget
// @Description Delete a budget by ID
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "delete", "budget", budgetID, c.ClientIP(), nil)
	c.Status(http.StatusNoContent)
}
