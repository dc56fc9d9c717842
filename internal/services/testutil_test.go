package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRepository is an in-memory repositories.Repository. WithTransaction
// snapshots the stores and restores them when fn fails, so rollback
// behavior is observable in tests.
type fakeRepository struct {
	mu sync.Mutex

	nextContentID    uint
	nextSubmissionID uint
	nextDetailID     uint

	records     map[uint]*models.ContentRecord
	submissions map[uint]*models.TestSubmission
	details     map[uint]*models.TestSubmissionDetail // keyed by submission ID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		records:     make(map[uint]*models.ContentRecord),
		submissions: make(map[uint]*models.TestSubmission),
		details:     make(map[uint]*models.TestSubmissionDetail),
	}
}

func (f *fakeRepository) Content() repositories.ContentRepository {
	return &fakeContentRepo{f}
}

func (f *fakeRepository) Submission() repositories.SubmissionRepository {
	return &fakeSubmissionRepo{f}
}

func (f *fakeRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	f.mu.Lock()
	recordsSnap := make(map[uint]*models.ContentRecord, len(f.records))
	for id, r := range f.records {
		clone := *r
		recordsSnap[id] = &clone
	}
	submissionsSnap := make(map[uint]*models.TestSubmission, len(f.submissions))
	for id, s := range f.submissions {
		clone := *s
		submissionsSnap[id] = &clone
	}
	detailsSnap := make(map[uint]*models.TestSubmissionDetail, len(f.details))
	for id, d := range f.details {
		clone := *d
		detailsSnap[id] = &clone
	}
	contentID, submissionID, detailID := f.nextContentID, f.nextSubmissionID, f.nextDetailID
	f.mu.Unlock()

	if err := fn(f); err != nil {
		f.mu.Lock()
		f.records = recordsSnap
		f.submissions = submissionsSnap
		f.details = detailsSnap
		f.nextContentID, f.nextSubmissionID, f.nextDetailID = contentID, submissionID, detailID
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeRepository) LockTest(ctx context.Context, testID uint) error { return nil }
func (f *fakeRepository) Ping(ctx context.Context) error                  { return nil }
func (f *fakeRepository) Close() error                                    { return nil }

// ===== CONTENT =====

type fakeContentRepo struct {
	f *fakeRepository
}

func (r *fakeContentRepo) Create(ctx context.Context, record *models.ContentRecord) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.nextContentID++
	record.ID = r.f.nextContentID
	clone := *record
	r.f.records[record.ID] = &clone
	return nil
}

func (r *fakeContentRepo) CreateBatch(ctx context.Context, records []*models.ContentRecord) error {
	for _, record := range records {
		if err := r.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeContentRepo) GetByID(ctx context.Context, id uint) (*models.ContentRecord, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	record, ok := r.f.records[id]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *fakeContentRepo) Update(ctx context.Context, record *models.ContentRecord) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.records[record.ID]; !ok {
		return repositories.ErrRecordNotFound
	}
	clone := *record
	r.f.records[record.ID] = &clone
	return nil
}

func (r *fakeContentRepo) Delete(ctx context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.records[id]; !ok {
		return repositories.ErrRecordNotFound
	}
	delete(r.f.records, id)
	return nil
}

func (r *fakeContentRepo) GetByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	return r.list(testID, false), nil
}

func (r *fakeContentRepo) GetQuestionsByTest(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	return r.list(testID, true), nil
}

func (r *fakeContentRepo) list(testID uint, questionsOnly bool) []*models.ContentRecord {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.ContentRecord
	for _, record := range r.f.records {
		if record.TestID != testID {
			continue
		}
		if questionsOnly && record.ParentID == 0 {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *fakeContentRepo) CountQuestions(ctx context.Context, testID uint) (int, error) {
	return len(r.list(testID, true)), nil
}

func (r *fakeContentRepo) HasChildren(ctx context.Context, id uint) (bool, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	for _, record := range r.f.records {
		if record.ParentID == id {
			return true, nil
		}
	}
	return false, nil
}

// ===== SUBMISSIONS =====

type fakeSubmissionRepo struct {
	f *fakeRepository
}

func (r *fakeSubmissionRepo) Create(ctx context.Context, submission *models.TestSubmission) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.nextSubmissionID++
	submission.ID = r.f.nextSubmissionID
	clone := *submission
	r.f.submissions[submission.ID] = &clone
	return nil
}

func (r *fakeSubmissionRepo) Update(ctx context.Context, submission *models.TestSubmission) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.submissions[submission.ID]; !ok {
		return repositories.ErrRecordNotFound
	}
	clone := *submission
	r.f.submissions[submission.ID] = &clone
	return nil
}

func (r *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (*models.TestSubmission, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	submission, ok := r.f.submissions[id]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	clone := *submission
	return &clone, nil
}

func (r *fakeSubmissionRepo) Delete(ctx context.Context, id uint) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if _, ok := r.f.submissions[id]; !ok {
		return repositories.ErrRecordNotFound
	}
	delete(r.f.submissions, id)
	return nil
}

func (r *fakeSubmissionRepo) GetByUser(ctx context.Context, userID uint) ([]*models.TestSubmission, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*models.TestSubmission
	for _, submission := range r.f.submissions {
		if submission.UserID == userID {
			clone := *submission
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *fakeSubmissionRepo) CreateDetail(ctx context.Context, detail *models.TestSubmissionDetail) error {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.nextDetailID++
	detail.ID = r.f.nextDetailID
	clone := *detail
	r.f.details[detail.SubmissionID] = &clone
	return nil
}

func (r *fakeSubmissionRepo) GetDetailBySubmission(ctx context.Context, submissionID uint) (*models.TestSubmissionDetail, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	detail, ok := r.f.details[submissionID]
	if !ok {
		return nil, repositories.ErrRecordNotFound
	}
	clone := *detail
	return &clone, nil
}

func (r *fakeSubmissionRepo) CountAll(ctx context.Context) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	return int64(len(r.f.submissions)), nil
}

func (r *fakeSubmissionRepo) CountInRange(ctx context.Context, from, to time.Time) (int64, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var count int64
	for _, submission := range r.f.submissions {
		if !submission.SubmittedAt.Before(from) && submission.SubmittedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSubmissionRepo) MostPopularTest(ctx context.Context) (*repositories.TestPopularity, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	counts := make(map[uint]int64)
	for _, submission := range r.f.submissions {
		counts[submission.TestID]++
	}
	if len(counts) == 0 {
		return nil, repositories.ErrRecordNotFound
	}
	var best *repositories.TestPopularity
	for testID, count := range counts {
		if best == nil || count > best.Submissions {
			best = &repositories.TestPopularity{TestID: testID, Submissions: count}
		}
	}
	return best, nil
}
