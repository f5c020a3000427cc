package models

import "time"

// User represents an agency staff member. Credentials and sessions live in
// the external identity provider; this row exists so audit entries and JWT
// subjects resolve to a name.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AgencyID  uint      `gorm:"not null;index" json:"agency_id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"not null" json:"full_name"`
	Role      string    `gorm:"size:20;not null;default:'agent'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Agency Agency `gorm:"foreignKey:AgencyID" json:"-"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// User role constants
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
