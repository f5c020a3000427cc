package repository

import (
	"context"

	"github.com/edupay/edupay-api/internal/models"
	"gorm.io/gorm"
)

// AgencyRepository defines the interface for agency data access
type AgencyRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Agency, error)
	FindAll(ctx context.Context) ([]models.Agency, error)
	Create(ctx context.Context, agency *models.Agency) error
	Update(ctx context.Context, agency *models.Agency) error
}

type agencyRepository struct {
	db *gorm.DB
}

// NewAgencyRepository creates a new agency repository
func NewAgencyRepository(db *gorm.DB) AgencyRepository {
	return &agencyRepository{db: db}
}

func (r *agencyRepository) FindByID(ctx context.Context, id uint) (*models.Agency, error) {
	var agency models.Agency
	err := r.db.WithContext(ctx).First(&agency, id).Error
	if err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *agencyRepository) FindAll(ctx context.Context) ([]models.Agency, error) {
	var agencies []models.Agency
	err := r.db.WithContext(ctx).Order("id ASC").Find(&agencies).Error
	return agencies, err
}

func (r *agencyRepository) Create(ctx context.Context, agency *models.Agency) error {
	return r.db.WithContext(ctx).Create(agency).Error
}

func (r *agencyRepository) Update(ctx context.Context, agency *models.Agency) error {
	return r.db.WithContext(ctx).Save(agency).Error
}
