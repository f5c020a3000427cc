package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/services"
)

type InstallmentHandler struct {
	installmentService *services.InstallmentService
}

func NewInstallmentHandler(installmentService *services.InstallmentService) *InstallmentHandler {
	return &InstallmentHandler{installmentService: installmentService}
}

// @Summary List Installments
// @Description Get a paginated list of installments
// @Tags Installments
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param plan_id query int false "Filter by payment plan"
// @Param due_from query string false "Student due date lower bound (YYYY-MM-DD)"
// @Param due_to query string false "Student due date upper bound (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /installments [get]
func (h *InstallmentHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Filters["status"] = c.Query("status")
	query.Filters["plan_id"] = c.Query("plan_id")
	query.Filters["due_from"] = c.Query("due_from")
	query.Filters["due_to"] = c.Query("due_to")

	installments, total, err := h.installmentService.ListInstallments(c.Request.Context(), middleware.GetAgencyID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range installments {
		responses = append(responses, installments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"installments": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Installment
// @Description Get an installment by ID
// @Tags Installments
// @Accept json
// @Produce json
// @Param installment_id path int true "Installment ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{installment_id} [get]
func (h *InstallmentHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)
	installment, err := h.installmentService.GetInstallment(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installment": installment.ToResponse()})
}

type RecordPaymentRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	PaidDate string          `json:"paid_date" binding:"required"`
	Notes    *string         `json:"notes"`
}

// @Summary Record Payment
// @Description Record a full or partial payment against an installment
// @Tags Installments
// @Accept json
// @Produce json
// @Param installment_id path int true "Installment ID"
// @Param request body RecordPaymentRequest true "Payment details"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{installment_id}/payments [post]
func (h *InstallmentHandler) RecordPayment(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)
	var req RecordPaymentRequest
	if err := BindNestedOrFlat(c, "payment", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paidDate, err := parseDate(req.PaidDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid_date must be YYYY-MM-DD"})
		return
	}

	userID := middleware.GetUserID(c)
	installment, err := h.installmentService.RecordPayment(c.Request.Context(), middleware.GetAgencyID(c), uint(id), services.RecordPaymentInput{
		Amount:   req.Amount,
		PaidDate: paidDate,
		Notes:    req.Notes,
		UserID:   &userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"installment": installment.ToResponse()})
}

// @Summary Cancel Installment
// @Description Cancel a non-terminal installment
// @Tags Installments
// @Accept json
// @Produce json
// @Param installment_id path int true "Installment ID"
// @Param request body CancelRequest false "Cancellation reason"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /installments/{installment_id}/cancel [post]
func (h *InstallmentHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("installment_id"), 10, 32)
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	userID := middleware.GetUserID(c)
	installment, err := h.installmentService.CancelInstallment(c.Request.Context(), middleware.GetAgencyID(c), uint(id), &userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"installment": installment.ToResponse()})
}
