package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SkillExecution is one audited skill invocation. Credentials are never
// stored; InputJSON holds only the skill arguments.
type SkillExecution struct {
	ID           uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	RequestID    string         `gorm:"type:varchar(36);uniqueIndex" json:"request_id"`
	SessionID    string         `gorm:"type:varchar(64);index" json:"session_id,omitempty"`
	TenantID     string         `gorm:"type:varchar(128);index" json:"tenant_id,omitempty"`
	SkillName    string         `gorm:"type:varchar(255);index;not null" json:"skill_name"`
	InputJSON    string         `gorm:"type:text" json:"input_json"`
	OutputJSON   string         `gorm:"type:text" json:"output_json,omitempty"`
	ErrorCode    string         `gorm:"type:varchar(32);index" json:"error_code,omitempty"`
	ErrorMessage string         `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
	Success      bool           `gorm:"index" json:"success"`
}

// BeforeCreate assigns a request id when the caller did not.
func (e *SkillExecution) BeforeCreate(_ *gorm.DB) error {
	if e.RequestID == "" {
		e.RequestID = uuid.NewString()
	}
	return nil
}
