package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
	"gorm.io/gorm"
)

type ContentPostgreSQL struct {
	db *gorm.DB
}

func NewContentPostgreSQL(db *gorm.DB) repositories.ContentRepository {
	return &ContentPostgreSQL{db: db}
}

// ===== BASIC OPERATIONS =====

func (c *ContentPostgreSQL) Create(ctx context.Context, record *models.ContentRecord) error {
	if err := c.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create content record: %w", err)
	}
	return nil
}

// CreateBatch inserts all records in one statement batch. GORM writes the
// generated primary keys back into the slice elements, which the import
// pipeline relies on to build its ordinal map.
func (c *ContentPostgreSQL) CreateBatch(ctx context.Context, records []*models.ContentRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).CreateInBatches(records, 100).Error; err != nil {
		return fmt.Errorf("failed to create content records batch: %w", err)
	}
	return nil
}

func (c *ContentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.ContentRecord, error) {
	var record models.ContentRecord
	if err := c.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content record %d: %w", id, repositories.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get content record: %w", err)
	}
	return &record, nil
}

func (c *ContentPostgreSQL) Update(ctx context.Context, record *models.ContentRecord) error {
	if err := c.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to update content record: %w", err)
	}
	return nil
}

func (c *ContentPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := c.db.WithContext(ctx).Delete(&models.ContentRecord{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete content record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("content record %d: %w", id, repositories.ErrRecordNotFound)
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (c *ContentPostgreSQL) GetByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	var records []*models.ContentRecord
	if err := c.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("\"order\" ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get content records for test %d: %w", testID, err)
	}
	return records, nil
}

func (c *ContentPostgreSQL) GetQuestionsByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	var records []*models.ContentRecord
	if err := c.db.WithContext(ctx).
		Where("test_id = ? AND parent_id <> 0", testID).
		Order("\"order\" ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions for test %d: %w", testID, err)
	}
	return records, nil
}

func (c *ContentPostgreSQL) CountQuestions(ctx context.Context, testID uint) (int, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&models.ContentRecord{}).
		Where("test_id = ? AND parent_id <> 0", testID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count questions for test %d: %w", testID, err)
	}
	return int(count), nil
}

func (c *ContentPostgreSQL) HasChildren(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&models.ContentRecord{}).
		Where("parent_id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check children of content record %d: %w", id, err)
	}
	return count > 0, nil
}
