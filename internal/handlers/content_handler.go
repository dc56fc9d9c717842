package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ielts-practice/testprep-service/internal/services"
	"github.com/ielts-practice/testprep-service/internal/validator"
)

type ContentHandler struct {
	BaseHandler
	contentService services.ContentService
	importService  services.ImportExportService
	validator      *validator.Validator
}

func NewContentHandler(
	contentService services.ContentService,
	importService services.ImportExportService,
	validator *validator.Validator,
	logger *slog.Logger,
) *ContentHandler {
	return &ContentHandler{
		BaseHandler:    NewBaseHandler(logger),
		contentService: contentService,
		importService:  importService,
		validator:      validator,
	}
}

// CreateContent creates a single content record
// @Summary Create content record
// @Description Creates a structural record or question for a test
// @Tags content
// @Accept json
// @Produce json
// @Param content body services.CreateContentRequest true "Content data"
// @Success 201 {object} models.ContentRecord
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /content [post]
func (h *ContentHandler) CreateContent(c *gin.Context) {
	h.LogRequest(c, "Creating content record")

	var req services.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	record, err := h.contentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// GetContent retrieves a content record by ID
// @Summary Get content record
// @Tags content
// @Produce json
// @Param id path uint true "Record ID"
// @Success 200 {object} models.ContentRecord
// @Failure 404 {object} ErrorResponse
// @Router /content/{id} [get]
func (h *ContentHandler) GetContent(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	record, err := h.contentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// UpdateContent updates an existing content record
// @Summary Update content record
// @Tags content
// @Accept json
// @Produce json
// @Param id path uint true "Record ID"
// @Param content body services.UpdateContentRequest true "Content update data"
// @Success 200 {object} models.ContentRecord
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /content/{id} [put]
func (h *ContentHandler) UpdateContent(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating content record", "record_id", id)

	var req services.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	record, err := h.contentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// DeleteContent deletes a content record
// @Summary Delete content record
// @Description Deletes one record. Structural records with dependent questions are rejected.
// @Tags content
// @Produce json
// @Param id path uint true "Record ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /content/{id} [delete]
func (h *ContentHandler) DeleteContent(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting content record", "record_id", id)

	if err := h.contentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Content record deleted successfully",
	})
}

// GetTestContent returns a test's full content grouped into sections
// @Summary Get test content
// @Description Returns the test's structural records with their questions in display order
// @Tags tests
// @Produce json
// @Param test_id path uint true "Test ID"
// @Success 200 {object} SuccessResponse{data=[]services.Section}
// @Failure 400 {object} ErrorResponse
// @Router /tests/{test_id}/content [get]
func (h *ContentHandler) GetTestContent(c *gin.Context) {
	testID := ParseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	records, err := h.contentService.GetFullContent(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Test content retrieved successfully",
		Data:    services.GroupSections(records),
	})
}

// GetTestQuestions returns only the gradable questions of a test
// @Summary Get test questions
// @Tags tests
// @Produce json
// @Param test_id path uint true "Test ID"
// @Success 200 {object} SuccessResponse{data=[]models.ContentRecord}
// @Failure 400 {object} ErrorResponse
// @Router /tests/{test_id}/questions [get]
func (h *ContentHandler) GetTestQuestions(c *gin.Context) {
	testID := ParseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	questions, err := h.contentService.GetQuestionsOnly(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Test questions retrieved successfully",
		Data:    questions,
	})
}

// CountTestQuestions returns the number of gradable questions in a test
// @Summary Count test questions
// @Tags tests
// @Produce json
// @Param test_id path uint true "Test ID"
// @Success 200 {object} SuccessResponse
// @Router /tests/{test_id}/questions/count [get]
func (h *ContentHandler) CountTestQuestions(c *gin.Context) {
	testID := ParseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	count, err := h.contentService.CountQuestions(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question count retrieved successfully",
		Data:    gin.H{"test_id": testID, "count": count},
	})
}

// ImportQuestions imports a test's content from a spreadsheet upload
// @Summary Import questions
// @Description Imports structural content and questions for a test from an uploaded workbook
// @Tags tests
// @Accept multipart/form-data
// @Produce json
// @Param test_id path uint true "Test ID"
// @Param test_type query string true "Test type (reading, listening)"
// @Param file formData file true "Workbook file (.xlsx or .xls)"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} services.ImportResult
// @Router /tests/{test_id}/import [post]
func (h *ContentHandler) ImportQuestions(c *gin.Context) {
	testID := ParseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	testType := c.Query("test_type")
	if testType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "test_type query parameter is required",
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "File upload is required",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Importing questions",
		"test_id", testID,
		"test_type", testType,
		"filename", fileHeader.Filename,
		"size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to open uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportQuestions(c.Request.Context(), file, fileHeader.Filename, testID, testType)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	// Domain failures come back as an unsuccessful result, not an error.
	if !result.Success {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportQuestions exports a test's content as a spreadsheet download
// @Summary Export questions
// @Description Exports the test's content in the same workbook layout the importer accepts
// @Tags tests
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param test_id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /tests/{test_id}/export [get]
func (h *ContentHandler) ExportQuestions(c *gin.Context) {
	testID := ParseIDParam(c, "test_id")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Exporting questions", "test_id", testID)

	data, err := h.importService.ExportQuestions(c.Request.Context(), testID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("test_%d_questions.xlsx", testID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
