package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
)

// StudentService handles student and enrollment management
type StudentService struct {
	repos *repository.Repositories
	audit *AuditService
}

// NewStudentService creates a new student service
func NewStudentService(repos *repository.Repositories, audit *AuditService) *StudentService {
	return &StudentService{repos: repos, audit: audit}
}

// GetStudent retrieves a student with enrollments, scoped to the agency
func (s *StudentService) GetStudent(ctx context.Context, agencyID, id uint) (*models.Student, error) {
	student, err := s.repos.Student.FindByID(ctx, agencyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return student, err
}

// ListStudents retrieves students for an agency
func (s *StudentService) ListStudents(ctx context.Context, agencyID uint, query *repository.ListQuery) ([]models.Student, int64, error) {
	return s.repos.Student.List(ctx, agencyID, query)
}

// CreateStudent persists a new student for the agency
func (s *StudentService) CreateStudent(ctx context.Context, student *models.Student, userID *uint) error {
	if student.FirstName == "" {
		return NewValidationError("first_name", "is required")
	}
	if student.LastName == "" {
		return NewValidationError("last_name", "is required")
	}
	if err := s.repos.Student.Create(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return NewValidationError("external_ref", "already taken by another student")
		}
		return err
	}
	return s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   student.AgencyID,
		EntityType: "student",
		EntityID:   student.ID,
		Action:     models.AuditActionCreate,
		UserID:     userID,
	})
}

// UpdateStudent saves changes to an existing student
func (s *StudentService) UpdateStudent(ctx context.Context, student *models.Student, userID *uint) error {
	if err := s.repos.Student.Update(ctx, student); err != nil {
		return err
	}
	return s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   student.AgencyID,
		EntityType: "student",
		EntityID:   student.ID,
		Action:     models.AuditActionUpdate,
		UserID:     userID,
	})
}

// GetEnrollment retrieves an enrollment with its student, scoped to the agency
func (s *StudentService) GetEnrollment(ctx context.Context, agencyID, id uint) (*models.Enrollment, error) {
	enrollment, err := s.repos.Enrollment.FindByID(ctx, agencyID, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return enrollment, err
}

// ListEnrollments retrieves enrollments for an agency
func (s *StudentService) ListEnrollments(ctx context.Context, agencyID uint, query *repository.ListQuery) ([]models.Enrollment, int64, error) {
	return s.repos.Enrollment.List(ctx, agencyID, query)
}

// CreateEnrollment persists a new enrollment after validating the course window
func (s *StudentService) CreateEnrollment(ctx context.Context, enrollment *models.Enrollment, userID *uint) error {
	if _, err := s.GetStudent(ctx, enrollment.AgencyID, enrollment.StudentID); err != nil {
		return err
	}
	if enrollment.CollegeName == "" {
		return NewValidationError("college_name", "is required")
	}
	if enrollment.CourseName == "" {
		return NewValidationError("course_name", "is required")
	}
	if enrollment.CourseStartDate.IsZero() || enrollment.CourseEndDate.IsZero() {
		return NewValidationError("course_start_date", "course start and end dates are required")
	}
	if enrollment.CourseEndDate.Before(enrollment.CourseStartDate) {
		return NewValidationError("course_end_date", "cannot be before the course start date")
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	if err := s.repos.Enrollment.Create(ctx, enrollment); err != nil {
		return err
	}
	return s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   enrollment.AgencyID,
		EntityType: "enrollment",
		EntityID:   enrollment.ID,
		Action:     models.AuditActionCreate,
		UserID:     userID,
	})
}

// UpdateEnrollment saves changes to an existing enrollment
func (s *StudentService) UpdateEnrollment(ctx context.Context, enrollment *models.Enrollment, userID *uint) error {
	if enrollment.CourseEndDate.Before(enrollment.CourseStartDate) {
		return NewValidationError("course_end_date", "cannot be before the course start date")
	}
	if err := s.repos.Enrollment.Update(ctx, enrollment); err != nil {
		return err
	}
	return s.audit.Log(ctx, &models.AuditLog{
		AgencyID:   enrollment.AgencyID,
		EntityType: "enrollment",
		EntityID:   enrollment.ID,
		Action:     models.AuditActionUpdate,
		UserID:     userID,
	})
}
