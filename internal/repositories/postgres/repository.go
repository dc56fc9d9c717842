package postgres

import (
	"context"
	"fmt"

	"github.com/ielts-practice/testprep-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db         *gorm.DB
	content    repositories.ContentRepository
	submission repositories.SubmissionRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:         db,
		content:    NewContentPostgreSQL(db),
		submission: NewSubmissionPostgreSQL(db),
	}
}

func (r *gormRepository) Content() repositories.ContentRepository {
	return r.content
}

func (r *gormRepository) Submission() repositories.SubmissionRepository {
	return r.submission
}

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// LockTest takes a Postgres advisory lock scoped to the current transaction.
// Two imports of the same test queue up behind each other instead of
// interleaving their ordinal maps; the lock is released on commit/rollback.
func (r *gormRepository) LockTest(ctx context.Context, testID uint) error {
	if err := r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", int64(testID)).Error; err != nil {
		return fmt.Errorf("failed to lock test %d: %w", testID, err)
	}
	return nil
}

func (r *gormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *gormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
