package models

import (
	"time"

	"gorm.io/datatypes"
)

// TestSubmission is one graded sitting of a test. Score is nil until the
// scoring engine sets it, which happens inside the same transaction that
// creates the row; the record is immutable afterwards.
type TestSubmission struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;index"`
	TestID      uint      `json:"test_id" gorm:"not null;index"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"not null;index"`
	Score       *float64  `json:"score"`

	Detail *TestSubmissionDetail `json:"detail,omitempty" gorm:"foreignKey:SubmissionID"`
}

func (TestSubmission) TableName() string {
	return "test_submissions"
}

// TestSubmissionDetail is the append-only audit record for one submission:
// the raw answer map as submitted, serialized to JSON, plus reviewer
// feedback. Exactly one detail exists per submission.
type TestSubmissionDetail struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	SubmissionID uint           `json:"submission_id" gorm:"not null;uniqueIndex"`
	Feedback     string         `json:"feedback" gorm:"type:text"`
	Answer       datatypes.JSON `json:"answer" gorm:"type:jsonb"`
}

func (TestSubmissionDetail) TableName() string {
	return "test_submission_details"
}
