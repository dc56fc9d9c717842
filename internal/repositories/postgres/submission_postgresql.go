package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
	"gorm.io/gorm"
)

type SubmissionPostgreSQL struct {
	db *gorm.DB
}

func NewSubmissionPostgreSQL(db *gorm.DB) repositories.SubmissionRepository {
	return &SubmissionPostgreSQL{db: db}
}

// ===== BASIC OPERATIONS =====

func (s *SubmissionPostgreSQL) Create(ctx context.Context, submission *models.TestSubmission) error {
	if err := s.db.WithContext(ctx).Create(submission).Error; err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) Update(ctx context.Context, submission *models.TestSubmission) error {
	if err := s.db.WithContext(ctx).Save(submission).Error; err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.TestSubmission, error) {
	var submission models.TestSubmission
	if err := s.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("submission %d: %w", id, repositories.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &submission, nil
}

func (s *SubmissionPostgreSQL) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.TestSubmission{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete submission: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("submission %d: %w", id, repositories.ErrRecordNotFound)
	}
	return nil
}

// ===== QUERY OPERATIONS =====

func (s *SubmissionPostgreSQL) GetByUser(ctx context.Context, userID uint) ([]*models.TestSubmission, error) {
	var submissions []*models.TestSubmission
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&submissions).Error; err != nil {
		return nil, fmt.Errorf("failed to get submissions for user %d: %w", userID, err)
	}
	return submissions, nil
}

func (s *SubmissionPostgreSQL) CreateDetail(ctx context.Context, detail *models.TestSubmissionDetail) error {
	if err := s.db.WithContext(ctx).Create(detail).Error; err != nil {
		return fmt.Errorf("failed to create submission detail: %w", err)
	}
	return nil
}

func (s *SubmissionPostgreSQL) GetDetailBySubmission(ctx context.Context, submissionID uint) (*models.TestSubmissionDetail, error) {
	var detail models.TestSubmissionDetail
	if err := s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&detail).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("detail for submission %d: %w", submissionID, repositories.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to get submission detail: %w", err)
	}
	return &detail, nil
}

// ===== DASHBOARD QUERIES =====

func (s *SubmissionPostgreSQL) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.TestSubmission{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.TestSubmission{}).
		Where("submitted_at >= ? AND submitted_at < ?", from, to).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count submissions in range: %w", err)
	}
	return count, nil
}

func (s *SubmissionPostgreSQL) MostPopularTest(ctx context.Context) (*repositories.TestPopularity, error) {
	var result repositories.TestPopularity
	err := s.db.WithContext(ctx).
		Model(&models.TestSubmission{}).
		Select("test_id, COUNT(*) as submissions").
		Group("test_id").
		Order("submissions DESC").
		Limit(1).
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get most popular test: %w", err)
	}
	if result.TestID == 0 && result.Submissions == 0 {
		return nil, fmt.Errorf("most popular test: %w", repositories.ErrRecordNotFound)
	}
	return &result, nil
}
