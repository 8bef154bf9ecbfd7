package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Bin audit session states
const (
	AuditStateActive   = "active"
	AuditStateFinished = "finished"
)

// BinAuditSession groups the location visits of one cycle-count round
type BinAuditSession struct {
	ID        string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	State     string     `gorm:"default:'active';index" json:"state"`
	StartedBy string     `gorm:"index" json:"started_by"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Visits []BinAuditVisit `gorm:"foreignKey:SessionID" json:"visits,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (BinAuditSession) TableName() string { return "bin_audit_sessions" }

// Bin audit visit results
const (
	VisitResultOK          = "ok"
	VisitResultDiscrepancy = "discrepancy"
)

// BinAuditVisit records the outcome of auditing one location within a session.
// Expected is the snapshot served to the terminal; Lines holds the reported
// discrepancy rows (empty for a confirm-OK visit).
type BinAuditVisit struct {
	ID         int64          `gorm:"primaryKey" json:"id"`
	SessionID  string         `gorm:"type:uuid;not null;index" json:"session_id"`
	LocationID int64          `gorm:"not null;index" json:"location_id"`
	Result     string         `gorm:"not null" json:"result"`
	Expected   QtyMap         `gorm:"type:jsonb" json:"expected"`
	Lines      datatypes.JSON `gorm:"type:jsonb" json:"lines,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (BinAuditVisit) TableName() string { return "bin_audit_visits" }
