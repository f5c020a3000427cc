package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/edupay/edupay-api/internal/services"
)

type CommissionHandler struct {
	commissionService *services.CommissionService
}

func NewCommissionHandler(commissionService *services.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

type CommissionEstimateRequest struct {
	TotalCourseValue      decimal.Decimal `json:"total_course_value" binding:"required"`
	MaterialsCost         decimal.Decimal `json:"materials_cost"`
	AdminFees             decimal.Decimal `json:"admin_fees"`
	OtherFees             decimal.Decimal `json:"other_fees"`
	CommissionRatePercent decimal.Decimal `json:"commission_rate_percent" binding:"required"`
	GSTInclusive          *bool           `json:"gst_inclusive"`
}

// @Summary Estimate Commission
// @Description Calculate commissionable value and expected commission for the given figures without persisting anything
// @Tags Commission
// @Accept json
// @Produce json
// @Param request body CommissionEstimateRequest true "Commission inputs"
// @Success 200 {object} services.CommissionResult
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /commission/estimate [post]
func (h *CommissionHandler) Estimate(c *gin.Context) {
	var req CommissionEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// GST-inclusive rates are the common case for Australian agencies
	gstInclusive := true
	if req.GSTInclusive != nil {
		gstInclusive = *req.GSTInclusive
	}

	result, err := h.commissionService.Calculate(services.CommissionInput{
		TotalCourseValue:      req.TotalCourseValue,
		MaterialsCost:         req.MaterialsCost,
		AdminFees:             req.AdminFees,
		OtherFees:             req.OtherFees,
		CommissionRatePercent: req.CommissionRatePercent,
		GSTInclusive:          gstInclusive,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
