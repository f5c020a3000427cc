package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupay/edupay-api/internal/middleware"
	"github.com/edupay/edupay-api/internal/services"
)

type JobHandler struct {
	jobService   *services.JobService
	sweepService *services.SweepService
}

func NewJobHandler(jobService *services.JobService, sweepService *services.SweepService) *JobHandler {
	return &JobHandler{jobService: jobService, sweepService: sweepService}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Get statistics about background jobs (active, completed, failed, queue length)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} jobs.WorkerStats
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.jobService.WorkerStats())
}

// @Summary Sweep Health
// @Description Check whether the daily status sweep is running on schedule
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.SweepHealth
// @Router /jobs/health [get]
func (h *JobHandler) Health(c *gin.Context) {
	health, err := h.jobService.SweepHealth(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

// @Summary List Job Runs
// @Description Get recent job executions
// @Tags Jobs
// @Produce json
// @Param job_name query string false "Filter by job name"
// @Param limit query int false "Maximum runs to return" default(20)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/runs [get]
func (h *JobHandler) Runs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.jobService.ListRuns(c.Request.Context(), c.Query("job_name"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// @Summary Trigger Status Sweep
// @Description Run the installment status sweep for the authenticated agency immediately (Admin)
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.SweepSummary
// @Router /jobs/status-sweep [post]
func (h *JobHandler) TriggerSweep(c *gin.Context) {
	agencyID := middleware.GetAgencyID(c)
	summary, err := h.sweepService.RunDailySweep(c.Request.Context(), &agencyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
