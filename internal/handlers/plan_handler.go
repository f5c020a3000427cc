package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/repository"
	"github.com/edupay/edupay-api/internal/services"
)

type PlanHandler struct {
	planService *services.PlanService
}

func NewPlanHandler(planService *services.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type CreatePlanRequest struct {
	EnrollmentID          uint            `json:"enrollment_id" binding:"required"`
	TotalCourseValue      decimal.Decimal `json:"total_course_value" binding:"required"`
	Currency              string          `json:"currency"`
	CommissionRatePercent decimal.Decimal `json:"commission_rate_percent" binding:"required"`
	GSTInclusive          *bool           `json:"gst_inclusive"`
	MaterialsCost         decimal.Decimal `json:"materials_cost"`
	AdminFees             decimal.Decimal `json:"admin_fees"`
	OtherFees             decimal.Decimal `json:"other_fees"`

	InitialPaymentAmount  decimal.Decimal `json:"initial_payment_amount" binding:"required"`
	InitialPaymentDueDate string          `json:"initial_payment_due_date" binding:"required"`
	InitialPaymentPaid    bool            `json:"initial_payment_paid"`
	NumberOfInstallments  int             `json:"number_of_installments"`
	PaymentFrequency      string          `json:"payment_frequency"`
	FirstCollegeDueDate   string          `json:"first_college_due_date"`
	StudentLeadTimeDays   int             `json:"student_lead_time_days"`

	NonCommissionInstallments []int `json:"non_commission_installments"`
}

// @Summary Create Payment Plan
// @Description Create a draft payment plan with its generated installment schedule
// @Tags PaymentPlans
// @Accept json
// @Produce json
// @Param request body CreatePlanRequest true "Plan inputs"
// @Success 201 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payment-plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	var req CreatePlanRequest
	if err := BindNestedOrFlat(c, "payment_plan", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	initialDue, err := parseDate(req.InitialPaymentDueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial_payment_due_date must be YYYY-MM-DD"})
		return
	}
	var firstCollegeDue time.Time
	if req.FirstCollegeDueDate != "" {
		firstCollegeDue, err = parseDate(req.FirstCollegeDueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "first_college_due_date must be YYYY-MM-DD"})
			return
		}
	}

	gstInclusive := true
	if req.GSTInclusive != nil {
		gstInclusive = *req.GSTInclusive
	}

	nonCommission := make(map[int]bool, len(req.NonCommissionInstallments))
	for _, n := range req.NonCommissionInstallments {
		nonCommission[n] = true
	}

	userID := middleware.GetUserID(c)
	result, err := h.planService.CreatePlan(c.Request.Context(), middleware.GetAgencyID(c), services.CreatePlanInput{
		EnrollmentID:              req.EnrollmentID,
		TotalCourseValue:          req.TotalCourseValue,
		Currency:                  req.Currency,
		CommissionRatePercent:     req.CommissionRatePercent,
		GSTInclusive:              gstInclusive,
		MaterialsCost:             req.MaterialsCost,
		AdminFees:                 req.AdminFees,
		OtherFees:                 req.OtherFees,
		InitialPaymentAmount:      req.InitialPaymentAmount,
		InitialPaymentDueDate:     initialDue,
		InitialPaymentPaid:        req.InitialPaymentPaid,
		NumberOfInstallments:      req.NumberOfInstallments,
		PaymentFrequency:          req.PaymentFrequency,
		FirstCollegeDueDate:       firstCollegeDue,
		StudentLeadTimeDays:       req.StudentLeadTimeDays,
		NonCommissionInstallments: nonCommission,
		UserID:                    &userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment_plan": result.Plan.ToResponse(),
		"warnings":     result.Warnings,
	})
}

// @Summary List Payment Plans
// @Description Get a paginated list of payment plans
// @Tags PaymentPlans
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param status query string false "Filter by status"
// @Param search query string false "Search by student, college or plan GUID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /payment-plans [get]
func (h *PlanHandler) Index(c *gin.Context) {
	query := repository.NewListQuery()
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.PerPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	query.Search = c.Query("search")
	query.Filters["status"] = c.Query("status")
	query.Filters["status_in"] = c.Query("status_in")
	query.Filters["enrollment_id"] = c.Query("enrollment_id")

	// Parse sort parameter (format: field-direction)
	if sort := c.Query("sort"); sort != "" {
		parts := strings.Split(sort, "-")
		query.SortBy = parts[0]
		if len(parts) > 1 {
			query.SortDir = parts[1]
		}
	}

	plans, total, err := h.planService.ListPlans(c.Request.Context(), middleware.GetAgencyID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []interface{}
	for i := range plans {
		responses = append(responses, plans[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_plans": responses,
		"pagination": gin.H{
			"page":        query.Page,
			"per_page":    query.PerPage,
			"total":       total,
			"total_pages": (total + int64(query.PerPage) - 1) / int64(query.PerPage),
		},
	})
}

// @Summary Get Payment Plan
// @Description Get a payment plan by ID with its installments
// @Tags PaymentPlans
// @Accept json
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /payment-plans/{plan_id} [get]
func (h *PlanHandler) Show(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("plan_id"), 10, 32)
	plan, err := h.planService.GetPlan(c.Request.Context(), middleware.GetAgencyID(c), uint(id))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_plan": plan.ToResponse()})
}

// @Summary Confirm Payment Plan
// @Description Activate a draft plan; all draft installments move to pending
// @Tags PaymentPlans
// @Accept json
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payment-plans/{plan_id}/confirm [post]
func (h *PlanHandler) Confirm(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("plan_id"), 10, 32)
	userID := middleware.GetUserID(c)
	plan, err := h.planService.ConfirmPlan(c.Request.Context(), middleware.GetAgencyID(c), uint(id), &userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_plan": plan.ToResponse()})
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

// @Summary Cancel Payment Plan
// @Description Cancel a draft or active plan along with its open installments
// @Tags PaymentPlans
// @Accept json
// @Produce json
// @Param plan_id path int true "Plan ID"
// @Param request body CancelRequest false "Cancellation reason"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /payment-plans/{plan_id}/cancel [post]
func (h *PlanHandler) Cancel(c *gin.Context) {
	id, _ := strconv.ParseUint(c.Param("plan_id"), 10, 32)
	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	userID := middleware.GetUserID(c)
	plan, err := h.planService.CancelPlan(c.Request.Context(), middleware.GetAgencyID(c), uint(id), &userID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment_plan": plan.ToResponse()})
}

// parseDate parses a YYYY-MM-DD date string
func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
