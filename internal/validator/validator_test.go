package validator

import (
	"testing"

	"github.com/ielts-practice/testprep-service/internal/models"
	"github.com/stretchr/testify/assert"
)

type questionTypePayload struct {
	QuestionType models.QuestionType `json:"question_type" validate:"required,question_type"`
}

func TestValidateQuestionType(t *testing.T) {
	v := New()

	valid := []models.QuestionType{
		models.Paragraph,
		models.Audio,
		models.MultipleChoice,
		models.SingleChoice,
		models.FormCompletion,
		models.Matching,
		models.DiagramLabeling,
		models.ShortAnswer,
	}
	for _, kind := range valid {
		assert.NoError(t, v.ValidateStruct(&questionTypePayload{QuestionType: kind}), "kind %s", kind)
	}

	assert.Error(t, v.ValidateStruct(&questionTypePayload{QuestionType: "Essay"}))
	assert.Error(t, v.ValidateStruct(&questionTypePayload{}))
}
