package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ielts-practice/testprep-service/internal/services"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// SubmitTest grades a submitted answer map
// @Summary Submit test
// @Description Grades the submitted answers and persists the submission with its detail
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body services.SubmitRequest true "Submission data"
// @Success 201 {object} services.SubmitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) SubmitTest(c *gin.Context) {
	h.LogRequest(c, "Submitting test")

	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	response, err := h.submissionService.Submit(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetSubmission retrieves a submission by ID
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.TestSubmission
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetSubmissionDetail retrieves the answer detail of a submission
// @Summary Get submission detail
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.TestSubmissionDetail
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{id}/detail [get]
func (h *SubmissionHandler) GetSubmissionDetail(c *gin.Context) {
	id := ParseIDParam(c, "id")
	if id == 0 {
		return
	}

	detail, err := h.submissionService.GetDetail(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetUserSubmissions lists a user's submissions, most recent first
// @Summary Get user submissions
// @Tags submissions
// @Produce json
// @Param user_id path uint true "User ID"
// @Success 200 {object} SuccessResponse{data=[]models.TestSubmission}
// @Failure 400 {object} ErrorResponse
// @Router /submissions/user/{user_id} [get]
func (h *SubmissionHandler) GetUserSubmissions(c *gin.Context) {
	userID := ParseIDParam(c, "user_id")
	if userID == 0 {
		return
	}

	submissions, err := h.submissionService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submissions retrieved successfully",
		Data:    submissions,
	})
}

// GetSubmissionStats returns submission counts for the dashboard
// @Summary Get submission statistics
// @Description Counts submissions for today, the current week, or all time
// @Tags statistics
// @Produce json
// @Param period query string false "Counting period (day, week, all)" default(all)
// @Success 200 {object} SuccessResponse
// @Router /statistics/submissions [get]
func (h *SubmissionHandler) GetSubmissionStats(c *gin.Context) {
	period := c.DefaultQuery("period", "all")

	count, err := h.submissionService.CountByPeriod(c.Request.Context(), time.Now(), period)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Submission statistics retrieved successfully",
		Data:    gin.H{"period": period, "count": count},
	})
}

// GetMostPopularTest returns the test with the most submissions
// @Summary Get most popular test
// @Tags statistics
// @Produce json
// @Success 200 {object} SuccessResponse{data=repositories.TestPopularity}
// @Failure 404 {object} ErrorResponse
// @Router /statistics/popular-test [get]
func (h *SubmissionHandler) GetMostPopularTest(c *gin.Context) {
	popularity, err := h.submissionService.MostPopularTest(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Most popular test retrieved successfully",
		Data:    popularity,
	})
}
