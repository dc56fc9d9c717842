package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	QuestionsImported EventType = "questions.imported"
	SubmissionGraded  EventType = "submission.graded"
)

const eventSource = "testprep-service"

// Event is the envelope published to the broker. Consumers (notification
// and chat services) treat this as a thin broadcast; nothing in this
// service waits on them.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
}

func newEvent(eventType EventType, payload map[string]interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    eventSource,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

func NewQuestionsImportedEvent(testID uint, importedCount int) *Event {
	return newEvent(QuestionsImported, map[string]interface{}{
		"test_id":        testID,
		"imported_count": importedCount,
	})
}

func NewSubmissionGradedEvent(submissionID, userID, testID uint, score float64, correct int) *Event {
	return newEvent(SubmissionGraded, map[string]interface{}{
		"submission_id": submissionID,
		"user_id":       userID,
		"test_id":       testID,
		"score":         score,
		"correct":       correct,
	})
}
