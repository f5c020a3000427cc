package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Audit action constants
const (
	AuditActionCreate       = "create"
	AuditActionUpdate       = "update"
	AuditActionStatusChange = "status_change"
	AuditActionPayment      = "payment_recorded"
)

// FieldChange captures one field's before/after values in an audit entry
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// FieldChanges is a typed diff (field name → old/new pair) persisted as jsonb
type FieldChanges map[string]FieldChange

// Value implements driver.Valuer for jsonb persistence
func (fc FieldChanges) Value() (driver.Value, error) {
	if fc == nil {
		return nil, nil
	}
	return json.Marshal(fc)
}

// Scan implements sql.Scanner
func (fc *FieldChanges) Scan(value any) error {
	if value == nil {
		*fc = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into FieldChanges", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, fc)
}

// Metadata is a free-form jsonb payload for audit context (IP, job name, etc.)
type Metadata map[string]any

// Value implements driver.Valuer for jsonb persistence
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("cannot scan %T into Metadata", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, m)
}

// AuditLog is an append-only record of every mutation to an audited entity.
// UserID is nil for system actions (the daily sweep).
type AuditLog struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	AgencyID   uint         `gorm:"not null;index" json:"agency_id"`
	EntityType string       `gorm:"size:50;not null;index" json:"entity_type"`
	EntityID   uint         `gorm:"not null;index" json:"entity_id"`
	Action     string       `gorm:"size:50;not null" json:"action"`
	UserID     *uint        `gorm:"index" json:"user_id"`
	Changes    FieldChanges `gorm:"type:jsonb" json:"changes"`
	Metadata   Metadata     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
