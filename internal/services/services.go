package services

import (
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/jobs"
	"github.com/edupay/edupay-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Agency      *AgencyService
	Student     *StudentService
	Commission  *CommissionService
	Schedule    *ScheduleService
	Plan        *PlanService
	Installment *InstallmentService
	Sweep       *SweepService
	Job         *JobService
	Audit       *AuditService
}

// NewServices wires all services. staleAfterHours bounds sweep staleness
// for the health check.
func NewServices(db *gorm.DB, repos *repository.Repositories, worker *jobs.Worker, staleAfterHours int) *Services {
	audit := NewAuditService(db)
	commission := NewCommissionService()
	schedule := NewScheduleService()

	return &Services{
		Agency:      NewAgencyService(repos, audit),
		Student:     NewStudentService(repos, audit),
		Commission:  commission,
		Schedule:    schedule,
		Plan:        NewPlanService(db, repos, commission, schedule, audit),
		Installment: NewInstallmentService(db, repos, audit),
		Sweep:       NewSweepService(db, repos, audit),
		Job:         NewJobService(repos, worker, staleAfterHours),
		Audit:       audit,
	}
}
