package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/services"
)

type AgencyHandler struct {
	agencyService *services.AgencyService
}

func NewAgencyHandler(agencyService *services.AgencyService) *AgencyHandler {
	return &AgencyHandler{agencyService: agencyService}
}

// @Summary Get Agency Settings
// @Description Get the authenticated agency's configuration
// @Tags Agency
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /agency/settings [get]
func (h *AgencyHandler) Show(c *gin.Context) {
	agency, err := h.agencyService.GetAgency(c.Request.Context(), middleware.GetAgencyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agency": agency})
}

type UpdateAgencySettingsRequest struct {
	Name                 *string `json:"name"`
	Timezone             *string `json:"timezone"`
	OverdueCutoffTime    *string `json:"overdue_cutoff_time"`
	DueSoonThresholdDays *int    `json:"due_soon_threshold_days"`
	Currency             *string `json:"currency"`
}

// @Summary Update Agency Settings
// @Description Update the agency's timezone, overdue cutoff and due-soon window (Admin)
// @Tags Agency
// @Accept json
// @Produce json
// @Param request body UpdateAgencySettingsRequest true "Settings"
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /agency/settings [put]
func (h *AgencyHandler) Update(c *gin.Context) {
	var req UpdateAgencySettingsRequest
	if err := BindNestedOrFlat(c, "agency", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	agency, err := h.agencyService.UpdateSettings(c.Request.Context(), middleware.GetAgencyID(c), services.UpdateAgencySettingsInput{
		Name:                 req.Name,
		Timezone:             req.Timezone,
		OverdueCutoffTime:    req.OverdueCutoffTime,
		DueSoonThresholdDays: req.DueSoonThresholdDays,
		Currency:             req.Currency,
		UserID:               &userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"agency": agency})
}
