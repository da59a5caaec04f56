package storage

import (
	"context"
	"fmt"

	"github.com/tb0hdan/odoo-query-mcp/pkg/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SQLiteStorage struct {
	db *gorm.DB
}

var _ Storage = (*SQLiteStorage)(nil)

type Config struct {
	DatabasePath string
	Debug        bool
}

func NewSQLiteStorage(cfg Config) (*SQLiteStorage, error) {
	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	database, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// Auto-migrate schema
	if err := database.AutoMigrate(&models.SkillExecution{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: database}, nil
}

func (s *SQLiteStorage) CreateSkillExecution(ctx context.Context, exec *models.SkillExecution) error {
	return s.db.WithContext(ctx).Create(exec).Error
}

func (s *SQLiteStorage) GetSkillExecution(ctx context.Context, id uint) (*models.SkillExecution, error) {
	var exec models.SkillExecution
	err := s.db.WithContext(ctx).First(&exec, id).Error
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *SQLiteStorage) filtered(ctx context.Context, filter ExecutionFilter) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.SkillExecution{})
	if filter.SkillName != "" {
		query = query.Where("skill_name = ?", filter.SkillName)
	}
	if filter.TenantID != "" {
		query = query.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.SessionID != "" {
		query = query.Where("session_id = ?", filter.SessionID)
	}
	if filter.Success != nil {
		query = query.Where("success = ?", *filter.Success)
	}
	return query
}

func (s *SQLiteStorage) GetSkillExecutions(ctx context.Context, filter ExecutionFilter, limit, offset int) ([]models.SkillExecution, int64, error) {
	var executions []models.SkillExecution
	var total int64

	if err := s.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.filtered(ctx, filter).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&executions).Error
	return executions, total, err
}

func (s *SQLiteStorage) DeleteSkillExecution(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.SkillExecution{}, id).Error
}

func (s *SQLiteStorage) DeleteAllSkillExecutions(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&models.SkillExecution{}).Error
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
