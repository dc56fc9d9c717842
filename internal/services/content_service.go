package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	apperrors "github.com/ielts-practice/testprep-service/internal/errors"
	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
	"github.com/ielts-practice/testprep-service/internal/validator"
)

// ContentService is the assembly reader plus single-record CRUD for the
// unified content table.
type ContentService interface {
	// GetFullContent returns every record of a test, structural and
	// question alike, in stable order. Callers group them; see
	// GroupSections.
	GetFullContent(ctx context.Context, testID uint) ([]*models.ContentRecord, error)
	GetQuestionsOnly(ctx context.Context, testID uint) ([]*models.ContentRecord, error)
	CountQuestions(ctx context.Context, testID uint) (int, error)

	GetByID(ctx context.Context, id uint) (*models.ContentRecord, error)
	Create(ctx context.Context, req *CreateContentRequest) (*models.ContentRecord, error)
	Update(ctx context.Context, id uint, req *UpdateContentRequest) (*models.ContentRecord, error)
	Delete(ctx context.Context, id uint) error
}

type CreateContentRequest struct {
	QuestionType  models.QuestionType `json:"question_type" validate:"required,question_type"`
	Content       string              `json:"content"`
	CorrectAnswer string              `json:"correct_answer"`
	Choices       string              `json:"choices"`
	Explanation   string              `json:"explanation"`
	Link          string              `json:"link"`
	ParentID      uint                `json:"parent_id"`
	TestID        uint                `json:"test_id" validate:"required"`
	Order         int                 `json:"order"`
}

type UpdateContentRequest struct {
	QuestionType  models.QuestionType `json:"question_type" validate:"required,question_type"`
	Content       string              `json:"content"`
	CorrectAnswer string              `json:"correct_answer"`
	Choices       string              `json:"choices"`
	Explanation   string              `json:"explanation"`
	Link          string              `json:"link"`
	ParentID      uint                `json:"parent_id"`
	Order         int                 `json:"order"`
}

type contentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewContentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ContentService {
	return &contentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== ASSEMBLY READER =====

func (s *contentService) GetFullContent(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	records, err := s.repo.Content().GetByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test content: %w", err)
	}
	return records, nil
}

func (s *contentService) GetQuestionsOnly(ctx context.Context, testID uint) ([]*models.ContentRecord, error) {
	records, err := s.repo.Content().GetQuestionsByTest(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to load test questions: %w", err)
	}
	return records, nil
}

func (s *contentService) CountQuestions(ctx context.Context, testID uint) (int, error) {
	return s.repo.Content().CountQuestions(ctx, testID)
}

// ===== CRUD =====

func (s *contentService) GetByID(ctx context.Context, id uint) (*models.ContentRecord, error) {
	record, err := s.repo.Content().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content record: %w", err)
	}
	return record, nil
}

func (s *contentService) Create(ctx context.Context, req *CreateContentRequest) (*models.ContentRecord, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	record := &models.ContentRecord{
		QuestionType:  req.QuestionType,
		Content:       req.Content,
		CorrectAnswer: req.CorrectAnswer,
		Choices:       req.Choices,
		Explanation:   req.Explanation,
		Link:          req.Link,
		ParentID:      req.ParentID,
		TestID:        req.TestID,
		Order:         req.Order,
	}

	// Structural records never carry grading data.
	if record.IsStructural() {
		record.CorrectAnswer = ""
		record.Choices = ""
		record.Link = ""
	} else {
		// A question must hang off a persisted structural record of the
		// same test.
		parent, err := s.repo.Content().GetByID(ctx, req.ParentID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("%w: parent %d", ErrContentNotFound, req.ParentID)
			}
			return nil, fmt.Errorf("failed to check parent record: %w", err)
		}
		if parent.TestID != req.TestID {
			return nil, NewValidationError("parent_id", "parent belongs to a different test", req.ParentID)
		}
	}

	if err := s.repo.Content().Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create content record: %w", err)
	}

	s.logger.Info("Content record created",
		"record_id", record.ID,
		"test_id", record.TestID,
		"question_type", record.QuestionType)

	return record, nil
}

func (s *contentService) Update(ctx context.Context, id uint, req *UpdateContentRequest) (*models.ContentRecord, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	record, err := s.repo.Content().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to get content record: %w", err)
	}

	// Every field except ID and TestID is replaceable.
	record.QuestionType = req.QuestionType
	record.Content = req.Content
	record.CorrectAnswer = req.CorrectAnswer
	record.Choices = req.Choices
	record.Explanation = req.Explanation
	record.Link = req.Link
	record.ParentID = req.ParentID
	record.Order = req.Order

	if err := s.repo.Content().Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update content record: %w", err)
	}

	return record, nil
}

// Delete removes one record. A structural record that still owns questions
// is not deletable; orphaning children silently would break assembly.
func (s *contentService) Delete(ctx context.Context, id uint) error {
	hasChildren, err := s.repo.Content().HasChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check dependent questions: %w", err)
	}
	if hasChildren {
		return ErrContentHasChildren
	}

	if err := s.repo.Content().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrContentNotFound
		}
		return fmt.Errorf("failed to delete content record: %w", err)
	}

	s.logger.Info("Content record deleted", "record_id", id)
	return nil
}

// ===== GROUPING =====

// Section is one structural record together with its questions in display
// order.
type Section struct {
	Content   *models.ContentRecord   `json:"content"`
	Questions []*models.ContentRecord `json:"questions"`
}

// GroupSections arranges a flat content slice (as returned by
// GetFullContent) into sections. It is a pure function: fixed input yields
// identical output, with structural records ascending by order and each
// question list ascending by order. Questions whose parent is absent from
// the slice are dropped.
func GroupSections(records []*models.ContentRecord) []Section {
	byParent := make(map[uint][]*models.ContentRecord)
	var structural []*models.ContentRecord

	for _, record := range records {
		if record.IsStructural() {
			structural = append(structural, record)
		} else {
			byParent[record.ParentID] = append(byParent[record.ParentID], record)
		}
	}

	sort.SliceStable(structural, func(i, j int) bool {
		return structural[i].Order < structural[j].Order
	})

	sections := make([]Section, 0, len(structural))
	for _, content := range structural {
		questions := byParent[content.ID]
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].Order < questions[j].Order
		})
		sections = append(sections, Section{
			Content:   content,
			Questions: questions,
		})
	}
	return sections
}
