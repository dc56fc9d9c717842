package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ielts-practice/testprep-service/internal/services"
	"github.com/ielts-practice/testprep-service/internal/validator"
)

type HandlerManager struct {
	contentHandler    *ContentHandler
	submissionHandler *SubmissionHandler
}

func NewHandlerManager(
	contentService services.ContentService,
	importService services.ImportExportService,
	submissionService services.SubmissionService,
	validator *validator.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		contentHandler:    NewContentHandler(contentService, importService, validator, logger),
		submissionHandler: NewSubmissionHandler(submissionService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Single record CRUD
		content := v1.Group("/content")
		{
			content.POST("", hm.contentHandler.CreateContent)
			content.GET("/:id", hm.contentHandler.GetContent)
			content.PUT("/:id", hm.contentHandler.UpdateContent)
			content.DELETE("/:id", hm.contentHandler.DeleteContent)
		}

		// Test level reads plus import/export
		tests := v1.Group("/tests")
		{
			tests.GET("/:test_id/content", hm.contentHandler.GetTestContent)
			tests.GET("/:test_id/questions", hm.contentHandler.GetTestQuestions)
			tests.GET("/:test_id/questions/count", hm.contentHandler.CountTestQuestions)
			tests.POST("/:test_id/import", hm.contentHandler.ImportQuestions)
			tests.GET("/:test_id/export", hm.contentHandler.ExportQuestions)
		}

		// Submission routes
		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.submissionHandler.SubmitTest)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.GET("/:id/detail", hm.submissionHandler.GetSubmissionDetail)
			submissions.GET("/user/:user_id", hm.submissionHandler.GetUserSubmissions)
		}

		// Dashboard statistics
		statistics := v1.Group("/statistics")
		{
			statistics.GET("/submissions", hm.submissionHandler.GetSubmissionStats)
			statistics.GET("/popular-test", hm.submissionHandler.GetMostPopularTest)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "testprep-service",
		})
	})
}
