package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ielts-practice/testprep-service/internal/events"
	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTest loads one structural record with gradable questions and returns
// the question IDs keyed by their canonical answer.
func seedTest(t *testing.T, repo *fakeRepository, testID uint, answers []string) []uint {
	t.Helper()
	ctx := context.Background()

	section := &models.ContentRecord{
		QuestionType: models.Paragraph,
		Content:      "Passage",
		TestID:       testID,
		Order:        1,
	}
	require.NoError(t, repo.Content().Create(ctx, section))

	ids := make([]uint, 0, len(answers))
	for i, answer := range answers {
		question := &models.ContentRecord{
			QuestionType:  models.ShortAnswer,
			Content:       "Question",
			CorrectAnswer: answer,
			ParentID:      section.ID,
			TestID:        testID,
			Order:         i + 1,
		}
		require.NoError(t, repo.Content().Create(ctx, question))
		ids = append(ids, question.ID)
	}
	return ids
}

func newSubmissionService(repo *fakeRepository, publisher events.EventPublisher) SubmissionService {
	return NewSubmissionService(repo, testLogger(), validator.New(), publisher, nil)
}

func TestSubmit_GradesAgainstStoredAnswers(t *testing.T) {
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher()
	svc := newSubmissionService(repo, publisher)

	ids := seedTest(t, repo, 1, []string{"Paris", "library", "iii"})

	response, err := svc.Submit(context.Background(), &SubmitRequest{
		UserID: 10,
		TestID: 1,
		Answers: map[uint]string{
			ids[0]: "Paris",
			ids[1]: "museum",
			ids[2]: "iii",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, response.Correct)
	assert.Equal(t, 38, response.Incorrect)
	assert.Equal(t, BandScore(2), response.Score)
	assert.NotZero(t, response.SubmissionID)

	// The score must be persisted on the submission row.
	stored, err := repo.Submission().GetByID(context.Background(), response.SubmissionID)
	require.NoError(t, err)
	require.NotNil(t, stored.Score)
	assert.Equal(t, response.Score, *stored.Score)

	require.Len(t, publisher.Events, 1)
	assert.Equal(t, events.SubmissionGraded, publisher.Events[0].Type)
}

func TestSubmit_CaseInsensitiveComparison(t *testing.T) {
	repo := newFakeRepository()
	svc := newSubmissionService(repo, events.NopPublisher{})

	ids := seedTest(t, repo, 1, []string{"paris", "B"})

	response, err := svc.Submit(context.Background(), &SubmitRequest{
		UserID: 10,
		TestID: 1,
		Answers: map[uint]string{
			ids[0]: "Paris",
			ids[1]: "C",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, response.Correct)
	assert.Equal(t, 39, response.Incorrect)
	assert.Equal(t, 0.0, response.Score)
}

func TestSubmit_UnknownQuestionIDsIgnored(t *testing.T) {
	repo := newFakeRepository()
	svc := newSubmissionService(repo, events.NopPublisher{})

	ids := seedTest(t, repo, 1, []string{"Paris"})

	response, err := svc.Submit(context.Background(), &SubmitRequest{
		UserID: 10,
		TestID: 1,
		Answers: map[uint]string{
			ids[0]: "Paris",
			9999:   "Paris",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, response.Correct)
	assert.Equal(t, 39, response.Incorrect)
}

func TestSubmit_PersistsDetailWithRawAnswers(t *testing.T) {
	repo := newFakeRepository()
	svc := newSubmissionService(repo, events.NopPublisher{})

	ids := seedTest(t, repo, 1, []string{"Paris"})
	submitted := map[uint]string{ids[0]: "Lyon"}

	response, err := svc.Submit(context.Background(), &SubmitRequest{
		UserID:  10,
		TestID:  1,
		Answers: submitted,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, response.Correct)
	assert.Equal(t, 0.0, response.Score)

	detail, err := repo.Submission().GetDetailBySubmission(context.Background(), response.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, "this is good feedback", detail.Feedback)

	var stored map[uint]string
	require.NoError(t, json.Unmarshal(detail.Answer, &stored))
	assert.Equal(t, submitted, stored)
}

func TestSubmit_RejectsInvalidRequest(t *testing.T) {
	svc := newSubmissionService(newFakeRepository(), events.NopPublisher{})

	_, err := svc.Submit(context.Background(), &SubmitRequest{
		UserID: 0,
		TestID: 1,
		Answers: map[uint]string{
			1: "Paris",
		},
	})

	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGetDetail_NotFound(t *testing.T) {
	svc := newSubmissionService(newFakeRepository(), events.NopPublisher{})

	_, err := svc.GetDetail(context.Background(), 42)

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestCountByPeriod(t *testing.T) {
	repo := newFakeRepository()
	svc := newSubmissionService(repo, events.NopPublisher{})
	ctx := context.Background()

	// Wednesday noon as the anchor makes day/week boundaries unambiguous.
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	submittedAt := []time.Time{
		now.Add(-2 * time.Hour), // today
		now.AddDate(0, 0, -2),   // Monday, same week
		now.AddDate(0, 0, -7),   // previous week
		now.AddDate(0, -1, 0),   // previous month
	}
	for _, ts := range submittedAt {
		require.NoError(t, repo.Submission().Create(ctx, &models.TestSubmission{
			UserID:      1,
			TestID:      1,
			SubmittedAt: ts,
		}))
	}

	day, err := svc.CountByPeriod(ctx, now, "day")
	require.NoError(t, err)
	assert.Equal(t, int64(1), day)

	week, err := svc.CountByPeriod(ctx, now, "week")
	require.NoError(t, err)
	assert.Equal(t, int64(2), week)

	all, err := svc.CountByPeriod(ctx, now, "all")
	require.NoError(t, err)
	assert.Equal(t, int64(4), all)
}

func TestMostPopularTest(t *testing.T) {
	repo := newFakeRepository()
	svc := newSubmissionService(repo, events.NopPublisher{})
	ctx := context.Background()

	for _, testID := range []uint{1, 2, 2, 2, 3} {
		require.NoError(t, repo.Submission().Create(ctx, &models.TestSubmission{
			UserID:      1,
			TestID:      testID,
			SubmittedAt: time.Now(),
		}))
	}

	popularity, err := svc.MostPopularTest(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(2), popularity.TestID)
	assert.Equal(t, int64(3), popularity.Submissions)
}

func TestMostPopularTest_Empty(t *testing.T) {
	svc := newSubmissionService(newFakeRepository(), events.NopPublisher{})

	_, err := svc.MostPopularTest(context.Background())

	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
