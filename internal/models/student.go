package models

import "time"

// Student represents a student managed by an agency
type Student struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AgencyID    uint      `gorm:"not null;index;uniqueIndex:idx_students_agency_external_ref" json:"agency_id"`
	FirstName   string    `gorm:"not null" json:"first_name"`
	LastName    string    `gorm:"not null" json:"last_name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	ExternalRef *string   `gorm:"size:64;uniqueIndex:idx_students_agency_external_ref" json:"external_ref"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Associations
	Agency      Agency       `gorm:"foreignKey:AgencyID" json:"-"`
	Enrollments []Enrollment `gorm:"foreignKey:StudentID" json:"enrollments,omitempty"`
}

// TableName specifies the table name for Student
func (Student) TableName() string {
	return "students"
}

// FullName returns the student's display name
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Enrollment status constants
const (
	EnrollmentStatusActive    = "active"
	EnrollmentStatusCompleted = "completed"
	EnrollmentStatusWithdrawn = "withdrawn"
)

// Enrollment represents a student's enrollment in a course at a college.
// A payment plan always belongs to exactly one enrollment.
type Enrollment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	AgencyID        uint      `gorm:"not null;index" json:"agency_id"`
	StudentID       uint      `gorm:"not null;index" json:"student_id"`
	CollegeName     string    `gorm:"not null" json:"college_name"`
	CourseName      string    `gorm:"not null" json:"course_name"`
	CourseStartDate time.Time `gorm:"type:date;not null" json:"course_start_date"`
	CourseEndDate   time.Time `gorm:"type:date;not null" json:"course_end_date"`
	Status          string    `gorm:"size:20;not null;default:'active';index" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Associations
	Student      Student       `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	PaymentPlans []PaymentPlan `gorm:"foreignKey:EnrollmentID" json:"payment_plans,omitempty"`
}

// TableName specifies the table name for Enrollment
func (Enrollment) TableName() string {
	return "enrollments"
}
