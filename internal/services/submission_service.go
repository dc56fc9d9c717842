package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ielts-practice/testprep-service/internal/cache"
	apperrors "github.com/ielts-practice/testprep-service/internal/errors"
	"github.com/ielts-practice/testprep-service/internal/events"
	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
	"github.com/ielts-practice/testprep-service/internal/validator"
)

// Feedback generation is not part of the scoring core; every detail row
// carries this placeholder until a feedback pipeline exists. The literal
// string is kept for compatibility with existing rows.
const placeholderFeedback = "this is good feedback"

const (
	popularTestCacheKey = "stats:popular_test"
	statsCacheTTL       = 5 * time.Minute
)

// SubmissionService grades raw answer maps and owns the submission records.
type SubmissionService interface {
	// Submit grades the answer map against the test's stored questions and
	// persists the submission plus its answer detail atomically. Treat it
	// as all-or-nothing: any error means nothing was written.
	Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error)

	GetByID(ctx context.Context, id uint) (*models.TestSubmission, error)
	GetDetail(ctx context.Context, submissionID uint) (*models.TestSubmissionDetail, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.TestSubmission, error)

	// Dashboard
	CountByPeriod(ctx context.Context, start time.Time, period string) (int64, error)
	MostPopularTest(ctx context.Context) (*repositories.TestPopularity, error)
}

type SubmitRequest struct {
	UserID  uint            `json:"user_id" validate:"required"`
	TestID  uint            `json:"test_id" validate:"required"`
	Answers map[uint]string `json:"answers" validate:"required"`
}

type SubmitResponse struct {
	SubmissionID uint      `json:"submission_id"`
	UserID       uint      `json:"user_id"`
	TestID       uint      `json:"test_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Score        float64   `json:"score"`
	Correct      int       `json:"correct"`
	Incorrect    int       `json:"incorrect"`
}

type submissionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewSubmissionService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *validator.Validator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
) SubmissionService {
	return &submissionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheService,
	}
}

func (s *submissionService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	s.logger.Info("Grading submission",
		"user_id", req.UserID,
		"test_id", req.TestID,
		"answer_count", len(req.Answers))

	var response *SubmitResponse

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		submission := &models.TestSubmission{
			UserID:      req.UserID,
			TestID:      req.TestID,
			SubmittedAt: time.Now(),
		}
		if err := tx.Submission().Create(ctx, submission); err != nil {
			return err
		}

		// One bulk read of the answer key; per-answer queries would both
		// crawl and race concurrent imports.
		questions, err := tx.Content().GetQuestionsByTest(ctx, req.TestID)
		if err != nil {
			return err
		}
		answerKey := make(map[uint]string, len(questions))
		for _, q := range questions {
			answerKey[q.ID] = q.CorrectAnswer
		}

		correct := 0
		for questionID, answer := range req.Answers {
			// Unknown question ids contribute neither correct nor
			// incorrect.
			key, ok := answerKey[questionID]
			if !ok {
				continue
			}
			if strings.EqualFold(key, answer) {
				correct++
			}
		}

		score := BandScore(correct)
		submission.Score = &score
		if err := tx.Submission().Update(ctx, submission); err != nil {
			return err
		}

		rawAnswers, err := json.Marshal(req.Answers)
		if err != nil {
			return fmt.Errorf("failed to serialize answer map: %w", err)
		}
		detail := &models.TestSubmissionDetail{
			SubmissionID: submission.ID,
			Feedback:     placeholderFeedback,
			Answer:       rawAnswers,
		}
		if err := tx.Submission().CreateDetail(ctx, detail); err != nil {
			return err
		}

		response = &SubmitResponse{
			SubmissionID: submission.ID,
			UserID:       submission.UserID,
			TestID:       submission.TestID,
			SubmittedAt:  submission.SubmittedAt,
			Score:        score,
			Correct:      correct,
			Incorrect:    totalQuestions - correct,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grade submission: %w", err)
	}

	s.logger.Info("Submission graded",
		"submission_id", response.SubmissionID,
		"score", response.Score,
		"correct", response.Correct)

	s.publishGraded(ctx, response)

	return response, nil
}

func (s *submissionService) publishGraded(ctx context.Context, resp *SubmitResponse) {
	if s.publisher == nil {
		return
	}
	event := events.NewSubmissionGradedEvent(resp.SubmissionID, resp.UserID, resp.TestID, resp.Score, resp.Correct)
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Submission already committed; the event is best effort.
		s.logger.Error("Failed to publish graded event",
			"submission_id", resp.SubmissionID,
			"error", err)
	}
}

// ===== READS =====

func (s *submissionService) GetByID(ctx context.Context, id uint) (*models.TestSubmission, error) {
	submission, err := s.repo.Submission().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return submission, nil
}

func (s *submissionService) GetDetail(ctx context.Context, submissionID uint) (*models.TestSubmissionDetail, error) {
	detail, err := s.repo.Submission().GetDetailBySubmission(ctx, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission detail: %w", err)
	}
	return detail, nil
}

func (s *submissionService) ListByUser(ctx context.Context, userID uint) ([]*models.TestSubmission, error) {
	submissions, err := s.repo.Submission().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, nil
}

// ===== DASHBOARD =====

// CountByPeriod counts submissions in the day or Monday-based week
// containing start; any other period means all time. Counts are served
// stale up to statsCacheTTL.
func (s *submissionService) CountByPeriod(ctx context.Context, start time.Time, period string) (int64, error) {
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	cacheKey := fmt.Sprintf("stats:submissions:%s:%s", period, day.Format("2006-01-02"))

	if s.cache != nil {
		var cached int64
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	var count int64
	var err error
	switch period {
	case "day":
		count, err = s.repo.Submission().CountInRange(ctx, day, day.AddDate(0, 0, 1))
	case "week":
		offset := int(day.Weekday()) - int(time.Monday)
		if day.Weekday() == time.Sunday {
			offset = 6
		}
		weekStart := day.AddDate(0, 0, -offset)
		count, err = s.repo.Submission().CountInRange(ctx, weekStart, weekStart.AddDate(0, 0, 7))
	default:
		count, err = s.repo.Submission().CountAll(ctx)
	}
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, count, statsCacheTTL); err != nil {
			s.logger.Warn("Failed to cache submission count", "period", period, "error", err)
		}
	}
	return count, nil
}

func (s *submissionService) MostPopularTest(ctx context.Context) (*repositories.TestPopularity, error) {
	if s.cache != nil {
		var cached repositories.TestPopularity
		if err := s.cache.Get(ctx, popularTestCacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	popularity, err := s.repo.Submission().MostPopularTest(ctx)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get most popular test: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, popularTestCacheKey, popularity, statsCacheTTL); err != nil {
			s.logger.Warn("Failed to cache popular test", "error", err)
		}
	}
	return popularity, nil
}
