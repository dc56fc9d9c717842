package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionTypeIsStructural(t *testing.T) {
	assert.True(t, Paragraph.IsStructural())
	assert.True(t, Audio.IsStructural())

	for _, kind := range []QuestionType{
		MultipleChoice, SingleChoice, FormCompletion,
		Matching, DiagramLabeling, ShortAnswer,
	} {
		assert.False(t, kind.IsStructural(), "kind %s", kind)
	}
}

func TestContentRecordIsStructural(t *testing.T) {
	// The zero parent is the discriminant, not the kind.
	structural := &ContentRecord{QuestionType: Paragraph, ParentID: 0}
	question := &ContentRecord{QuestionType: SingleChoice, ParentID: 1}

	assert.True(t, structural.IsStructural())
	assert.False(t, question.IsStructural())
}

func TestOptionsPipeDelimited(t *testing.T) {
	record := &ContentRecord{
		QuestionType: MultipleChoice,
		Choices:      "London|Paris| Berlin |",
	}

	assert.Equal(t, []string{"London", "Paris", "Berlin"}, record.Options())
}

func TestOptionsMatchingUsesNewlines(t *testing.T) {
	record := &ContentRecord{
		QuestionType: Matching,
		Choices:      "i. First heading\nii. Second heading\niii. Third heading",
	}

	assert.Equal(t, []string{
		"i. First heading",
		"ii. Second heading",
		"iii. Third heading",
	}, record.Options())
}

func TestAnswerKeys(t *testing.T) {
	record := &ContentRecord{
		QuestionType:  MultipleChoice,
		CorrectAnswer: "A|C",
	}

	assert.Equal(t, []string{"A", "C"}, record.AnswerKeys())
}

func TestAnswerKeysEmpty(t *testing.T) {
	record := &ContentRecord{QuestionType: ShortAnswer}

	assert.Nil(t, record.AnswerKeys())
}

func TestSetOptionsRoundTrip(t *testing.T) {
	record := &ContentRecord{QuestionType: SingleChoice}
	options := []string{"A", "B", "C"}

	record.SetOptions(options)

	assert.Equal(t, "A|B|C", record.Choices)
	assert.Equal(t, options, record.Options())
}
