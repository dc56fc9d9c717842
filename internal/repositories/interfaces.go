package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ielts-practice/testprep-service/internal/models"
)

var ErrRecordNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents a missing row, regardless
// of which repository produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// ContentRepository persists the unified content-record table (structural
// content and questions, discriminated by parent_id == 0).
type ContentRepository interface {
	Create(ctx context.Context, record *models.ContentRecord) error
	// CreateBatch inserts all records and populates their generated IDs;
	// the import pipeline depends on the IDs being visible afterwards.
	CreateBatch(ctx context.Context, records []*models.ContentRecord) error
	GetByID(ctx context.Context, id uint) (*models.ContentRecord, error)
	Update(ctx context.Context, record *models.ContentRecord) error
	Delete(ctx context.Context, id uint) error

	// GetByTest returns every record of a test, structural and question
	// alike, ordered by "order" then id so repeated calls are bit-identical.
	GetByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error)
	// GetQuestionsByTest returns only gradable records (parent_id != 0),
	// same ordering guarantee.
	GetQuestionsByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error)
	CountQuestions(ctx context.Context, testID uint) (int, error)
	HasChildren(ctx context.Context, id uint) (bool, error)
}

// SubmissionRepository persists submissions and their 1:1 detail records.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.TestSubmission) error
	Update(ctx context.Context, submission *models.TestSubmission) error
	GetByID(ctx context.Context, id uint) (*models.TestSubmission, error)
	Delete(ctx context.Context, id uint) error

	GetByUser(ctx context.Context, userID uint) ([]*models.TestSubmission, error)
	CreateDetail(ctx context.Context, detail *models.TestSubmissionDetail) error
	GetDetailBySubmission(ctx context.Context, submissionID uint) (*models.TestSubmissionDetail, error)

	// Dashboard queries
	CountAll(ctx context.Context) (int64, error)
	CountInRange(ctx context.Context, from, to time.Time) (int64, error)
	MostPopularTest(ctx context.Context) (*TestPopularity, error)
}

type TestPopularity struct {
	TestID      uint  `json:"test_id"`
	Submissions int64 `json:"submissions"`
}

// Repository is the root persistence contract. WithTransaction runs fn
// against a Repository bound to one database transaction; returning an
// error rolls back everything written inside fn.
type Repository interface {
	Content() ContentRepository
	Submission() SubmissionRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	// LockTest serializes writers of one test for the duration of the
	// current transaction. Must be called inside WithTransaction.
	LockTest(ctx context.Context, testID uint) error

	Ping(ctx context.Context) error
	Close() error
}
