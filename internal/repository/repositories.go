package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Agency      AgencyRepository
	Student     StudentRepository
	Enrollment  EnrollmentRepository
	Plan        PlanRepository
	Installment InstallmentRepository
	JobRun      JobRunRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Agency:      NewAgencyRepository(db),
		Student:     NewStudentRepository(db),
		Enrollment:  NewEnrollmentRepository(db),
		Plan:        NewPlanRepository(db),
		Installment: NewInstallmentRepository(db),
		JobRun:      NewJobRunRepository(db),
	}
}

// ListQuery carries pagination, filtering and sorting parameters
type ListQuery struct {
	Page    int
	PerPage int
	Search  string
	SortBy  string
	SortDir string
	Filters map[string]string
}

// NewListQuery returns a ListQuery with sane defaults
func NewListQuery() *ListQuery {
	return &ListQuery{
		Page:    1,
		PerPage: 20,
		Filters: make(map[string]string),
	}
}

func (q *ListQuery) offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.PerPage
}
