package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/services"
	"github.com/edupay/edupay-api/pkg/logger"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Commission  *CommissionHandler
	Plan        *PlanHandler
	Installment *InstallmentHandler
	Student     *StudentHandler
	Agency      *AgencyHandler
	Audit       *AuditHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(),
		Commission:  NewCommissionHandler(svcs.Commission),
		Plan:        NewPlanHandler(svcs.Plan),
		Installment: NewInstallmentHandler(svcs.Installment),
		Student:     NewStudentHandler(svcs.Student),
		Agency:      NewAgencyHandler(svcs.Agency),
		Audit:       NewAuditHandler(svcs.Audit),
		Job:         NewJobHandler(svcs.Job, svcs.Sweep),
	}
}

// respondError maps service errors onto HTTP responses. Validation problems
// and rejected transitions come back as 422 with a field-level message so
// the wizard can show them inline; lost optimistic-lock races come back as
// 409 so the client can reload and retry.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": ve.Message,
			"field": ve.Field,
		})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Record was modified by another request, please retry"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		// Unexpected errors carry driver detail; log it, never return it
		logger.Error(fmt.Sprintf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
