package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ielts-practice/testprep-service/internal/events"
	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/ielts-practice/testprep-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// questionSheet is the fixed worksheet name the spreadsheet contract uses.
const questionSheet = "Questions"

// Positional column contract of the question sheet (1-based in the file,
// 0-based here). Column 7 is reserved and skipped. This layout is the
// file-format boundary shared with existing author spreadsheets and must
// not change.
const (
	colKind = iota
	colContent
	colCorrectAnswer
	colChoices
	colExplanation
	colParentRef
	colReserved
	colLink
	colOrder
)

// ImportExportService handles spreadsheet import/export of test content.
type ImportExportService interface {
	// ImportQuestions parses one workbook and persists its structural
	// content and questions for testID atomically. Import-domain failures
	// (bad file, missing sheet, broken references) come back as an
	// unsuccessful ImportResult, not as an error.
	ImportQuestions(ctx context.Context, r io.Reader, filename string, testID uint, testType string) (*ImportResult, error)

	// ExportQuestions writes a test's records back into the same
	// positional sheet layout the importer reads.
	ExportQuestions(ctx context.Context, testID uint) ([]byte, error)
}

type ImportResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ImportedCount int    `json:"imported_count"`
	// WarningCount is the number of non-empty numeric cells that failed to
	// parse and were coerced to 0. The coercion itself is kept for
	// compatibility with existing author spreadsheets; the count makes
	// malformed files visible to operators.
	WarningCount int `json:"warning_count"`
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	publisher events.EventPublisher
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, publisher events.EventPublisher) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		publisher: publisher,
	}
}

// contentRowCount returns how many leading data rows hold structural
// content (paragraphs for reading, audio sections for listening).
func contentRowCount(testType string) int {
	switch strings.ToLower(testType) {
	case "reading":
		return 3
	case "listening":
		return 4
	default:
		return 0
	}
}

func failure(message string) *ImportResult {
	return &ImportResult{Success: false, Message: message}
}

func (s *importExportService) ImportQuestions(ctx context.Context, r io.Reader, filename string, testID uint, testType string) (*ImportResult, error) {
	s.logger.Info("Starting question import",
		"filename", filename,
		"test_id", testID,
		"test_type", testType)

	if r == nil {
		return failure("no file provided or file is empty"), nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xls" {
		return failure("invalid file format, only .xlsx and .xls files are allowed"), nil
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return failure(fmt.Sprintf("failed to open workbook: %v", err)), nil
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(questionSheet); idx < 0 {
		return failure(fmt.Sprintf("worksheet %q not found", questionSheet)), nil
	}

	rows, err := f.GetRows(questionSheet)
	if err != nil {
		return failure(fmt.Sprintf("failed to read worksheet rows: %v", err)), nil
	}
	if len(rows) < 2 {
		return failure("file must contain at least one data row"), nil
	}

	dataRows := rows[1:] // rows[0] is the header
	contentRows := contentRowCount(testType)
	if contentRows > len(dataRows) {
		return failure("file has fewer rows than the expected structural content"), nil
	}

	result := &ImportResult{}
	var importedCount int

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		// Concurrent imports of the same test would interleave their
		// ordinal maps and cross-wire parent references.
		if err := tx.LockTest(ctx, testID); err != nil {
			return err
		}

		// Pass 1: structural content. The order column is the ordinal key
		// later rows reference, not a display index.
		contents := make([]*models.ContentRecord, 0, contentRows)
		for _, row := range dataRows[:contentRows] {
			contents = append(contents, &models.ContentRecord{
				QuestionType: models.QuestionType(cellValue(row, colKind)),
				Content:      cellValue(row, colContent),
				ParentID:     0,
				TestID:       testID,
				Order:        s.intCellValue(row, colOrder, result),
			})
		}
		if err := tx.Content().CreateBatch(ctx, contents); err != nil {
			return err
		}

		ordinalToID := make(map[int]uint, len(contents))
		for _, content := range contents {
			if _, exists := ordinalToID[content.Order]; exists {
				return fmt.Errorf("%w: order %d", ErrDuplicateOrdinal, content.Order)
			}
			ordinalToID[content.Order] = content.ID
		}

		// Pass 2: questions, resolving parent references through the map
		// of identifiers assigned in pass 1.
		questions := make([]*models.ContentRecord, 0, len(dataRows)-contentRows)
		for _, row := range dataRows[contentRows:] {
			parentRef := s.intCellValue(row, colParentRef, result)
			parentID, ok := ordinalToID[parentRef]
			if !ok {
				return fmt.Errorf("%w: order %d", ErrParentRefNotFound, parentRef)
			}
			questions = append(questions, &models.ContentRecord{
				QuestionType:  models.QuestionType(cellValue(row, colKind)),
				Content:       cellValue(row, colContent),
				CorrectAnswer: cellValue(row, colCorrectAnswer),
				Choices:       cellValue(row, colChoices),
				Explanation:   cellValue(row, colExplanation),
				ParentID:      parentID,
				TestID:        testID,
				Link:          cellValue(row, colLink),
				Order:         s.intCellValue(row, colOrder, result),
			})
		}

		if len(questions) == 0 {
			return fmt.Errorf("no valid questions found in the file")
		}
		if err := tx.Content().CreateBatch(ctx, questions); err != nil {
			return err
		}

		importedCount = len(questions)
		return nil
	})
	if err != nil {
		s.logger.Error("Question import failed",
			"test_id", testID,
			"error", err)
		return failure(fmt.Sprintf("error importing questions: %v", err)), nil
	}

	result.Success = true
	result.ImportedCount = importedCount
	result.Message = fmt.Sprintf("successfully imported %d question(s)", importedCount)

	s.logger.Info("Question import completed",
		"test_id", testID,
		"imported_count", importedCount,
		"warning_count", result.WarningCount)

	s.publishImported(ctx, testID, importedCount)

	return result, nil
}

func (s *importExportService) publishImported(ctx context.Context, testID uint, count int) {
	if s.publisher == nil {
		return
	}
	event := events.NewQuestionsImportedEvent(testID, count)
	if err := s.publisher.Publish(ctx, event); err != nil {
		// Import already committed; the event is best effort.
		s.logger.Error("Failed to publish import event", "test_id", testID, "error", err)
	}
}

// ===== EXPORT =====

func (s *importExportService) ExportQuestions(ctx context.Context, testID uint) ([]byte, error) {
	records, err := s.repo.Content().GetByTest(ctx, testID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(questionSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Question Type", "Content", "Correct Answer", "Choices",
		"Explanation", "Parent Order", "", "Link", "Order",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(questionSheet, cell, header)
	}

	// Export resolves parent IDs back to the ordinal key of the owning
	// structural row so the output round-trips through the importer.
	idToOrdinal := make(map[uint]int)
	for _, record := range records {
		if record.IsStructural() {
			idToOrdinal[record.ID] = record.Order
		}
	}

	// The importer reads structural rows as a leading block, so they must
	// come first regardless of how orders interleave.
	ordered := make([]*models.ContentRecord, 0, len(records))
	for _, record := range records {
		if record.IsStructural() {
			ordered = append(ordered, record)
		}
	}
	for _, record := range records {
		if !record.IsStructural() {
			ordered = append(ordered, record)
		}
	}

	for rowIndex, record := range ordered {
		rowNum := rowIndex + 2
		values := make([]interface{}, 9)
		values[colKind] = string(record.QuestionType)
		values[colContent] = record.Content
		values[colCorrectAnswer] = record.CorrectAnswer
		values[colChoices] = record.Choices
		values[colExplanation] = record.Explanation
		if !record.IsStructural() {
			values[colParentRef] = idToOrdinal[record.ParentID]
		}
		values[colLink] = record.Link
		values[colOrder] = record.Order

		for colIndex, value := range values {
			if value == nil {
				continue
			}
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowNum)
			f.SetCellValue(questionSheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== CELL HELPERS =====

func cellValue(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// intCellValue coerces a cell to int, defaulting to 0 on any parse failure.
// Empty cells are a normal 0; non-empty garbage additionally bumps the
// warning counter so malformed spreadsheets do not pass silently.
func (s *importExportService) intCellValue(row []string, col int, result *ImportResult) int {
	raw := cellValue(row, col)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		result.WarningCount++
		return 0
	}
	return value
}
