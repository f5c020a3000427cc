package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
)

// StudentRepository defines the interface for student data access
type StudentRepository interface {
	FindByID(ctx context.Context, agencyID, id uint) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Student, int64, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(ctx context.Context, agencyID, id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Preload("Enrollments").
		First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	if err := r.db.WithContext(ctx).Create(student).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: student external_ref", gorm.ErrDuplicatedKey)
		}
		return err
	}
	return nil
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Student, int64, error) {
	var students []models.Student
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Student{}).Where("agency_id = ?", agencyID)

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("last_name ASC, first_name ASC").
		Offset(query.offset()).Limit(query.PerPage).
		Find(&students).Error
	return students, total, err
}

// isUniqueViolation reports whether err is a Postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// EnrollmentRepository defines the interface for enrollment data access
type EnrollmentRepository interface {
	FindByID(ctx context.Context, agencyID, id uint) (*models.Enrollment, error)
	FindByStudent(ctx context.Context, agencyID, studentID uint) ([]models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Enrollment, int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository creates a new enrollment repository
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) FindByID(ctx context.Context, agencyID, id uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.db.WithContext(ctx).
		Where("agency_id = ?", agencyID).
		Preload("Student").
		First(&enrollment, id).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) FindByStudent(ctx context.Context, agencyID, studentID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Where("agency_id = ? AND student_id = ?", agencyID, studentID).
		Order("course_start_date DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) List(ctx context.Context, agencyID uint, query *ListQuery) ([]models.Enrollment, int64, error) {
	var enrollments []models.Enrollment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Enrollment{}).Where("enrollments.agency_id = ?", agencyID)

	if status := query.Filters["status"]; status != "" {
		db = db.Where("enrollments.status = ?", status)
	}

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Joins("LEFT JOIN students ON students.id = enrollments.student_id").
			Where("students.first_name ILIKE ? OR students.last_name ILIKE ? OR enrollments.college_name ILIKE ? OR enrollments.course_name ILIKE ?",
				search, search, search, search)
	}

	countDB := db.Session(&gorm.Session{})
	if err := countDB.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("enrollments.created_at DESC").
		Offset(query.offset()).Limit(query.PerPage).
		Preload("Student").
		Find(&enrollments).Error
	return enrollments, total, err
}
