package models

import "time"

// PaperStateRecord is the single-row durable store for the paper engine.
// State holds the JSON-encoded PaperState document.
type PaperStateRecord struct {
	ID        uint      `gorm:"primaryKey"`
	State     string    `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName sets the table name for PaperStateRecord.
func (PaperStateRecord) TableName() string {
	return "paper_state"
}
