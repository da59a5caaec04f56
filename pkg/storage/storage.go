package storage

import (
	"context"

	"github.com/tb0hdan/odoo-query-mcp/pkg/models"
)

// ExecutionFilter narrows execution listings. Zero fields match everything.
type ExecutionFilter struct {
	SkillName string
	TenantID  string
	SessionID string
	// Success filters by outcome when non-nil.
	Success *bool
}

type Storage interface {
	// Skill execution operations
	CreateSkillExecution(ctx context.Context, exec *models.SkillExecution) error
	GetSkillExecution(ctx context.Context, id uint) (*models.SkillExecution, error)
	GetSkillExecutions(ctx context.Context, filter ExecutionFilter, limit, offset int) ([]models.SkillExecution, int64, error)
	DeleteSkillExecution(ctx context.Context, id uint) error
	DeleteAllSkillExecutions(ctx context.Context) error

	// Lifecycle
	Close() error
}
