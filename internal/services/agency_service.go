package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
)

// UpdateAgencySettingsInput carries the sweep configuration an agency may change
type UpdateAgencySettingsInput struct {
	Name                 *string
	Timezone             *string
	OverdueCutoffTime    *string
	DueSoonThresholdDays *int
	Currency             *string
	UserID               *uint
}

// AgencyService handles agency settings. Timezone and cutoff changes are
// validated up front so the nightly sweep never hits an unloadable zone.
type AgencyService struct {
	repos *repository.Repositories
	audit *AuditService
}

// NewAgencyService creates a new agency service
func NewAgencyService(repos *repository.Repositories, audit *AuditService) *AgencyService {
	return &AgencyService{repos: repos, audit: audit}
}

// GetAgency retrieves an agency by ID
func (s *AgencyService) GetAgency(ctx context.Context, id uint) (*models.Agency, error) {
	agency, err := s.repos.Agency.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return agency, err
}

// UpdateSettings applies partial updates to an agency's configuration
func (s *AgencyService) UpdateSettings(ctx context.Context, id uint, in UpdateAgencySettingsInput) (*models.Agency, error) {
	agency, err := s.GetAgency(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := models.FieldChanges{}

	if in.Name != nil && *in.Name != agency.Name {
		if *in.Name == "" {
			return nil, NewValidationError("name", "cannot be empty")
		}
		changes["name"] = models.FieldChange{Old: agency.Name, New: *in.Name}
		agency.Name = *in.Name
	}
	if in.Timezone != nil && *in.Timezone != agency.Timezone {
		if _, err := time.LoadLocation(*in.Timezone); err != nil {
			return nil, NewValidationError("timezone", "is not a valid IANA timezone")
		}
		changes["timezone"] = models.FieldChange{Old: agency.Timezone, New: *in.Timezone}
		agency.Timezone = *in.Timezone
	}
	if in.OverdueCutoffTime != nil && *in.OverdueCutoffTime != agency.OverdueCutoffTime {
		probe := models.Agency{OverdueCutoffTime: *in.OverdueCutoffTime}
		if _, err := probe.CutoffClock(); err != nil {
			return nil, NewValidationError("overdue_cutoff_time", "must be HH:MM or HH:MM:SS")
		}
		changes["overdue_cutoff_time"] = models.FieldChange{Old: agency.OverdueCutoffTime, New: *in.OverdueCutoffTime}
		agency.OverdueCutoffTime = *in.OverdueCutoffTime
	}
	if in.DueSoonThresholdDays != nil && *in.DueSoonThresholdDays != agency.DueSoonThresholdDays {
		if *in.DueSoonThresholdDays < 1 || *in.DueSoonThresholdDays > 60 {
			return nil, NewValidationError("due_soon_threshold_days", "must be between 1 and 60")
		}
		changes["due_soon_threshold_days"] = models.FieldChange{Old: agency.DueSoonThresholdDays, New: *in.DueSoonThresholdDays}
		agency.DueSoonThresholdDays = *in.DueSoonThresholdDays
	}
	if in.Currency != nil && *in.Currency != agency.Currency {
		if len(*in.Currency) != 3 {
			return nil, NewValidationError("currency", "must be a 3-letter code")
		}
		changes["currency"] = models.FieldChange{Old: agency.Currency, New: *in.Currency}
		agency.Currency = *in.Currency
	}

	if len(changes) == 0 {
		return agency, nil
	}

	if err := s.repos.Agency.Update(ctx, agency); err != nil {
		return nil, err
	}

	if err := s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   agency.ID,
		EntityType: "agency",
		EntityID:   agency.ID,
		Action:     models.AuditActionUpdate,
		UserID:     in.UserID,
		Changes:    changes,
	}); err != nil {
		return nil, err
	}

	return agency, nil
}
