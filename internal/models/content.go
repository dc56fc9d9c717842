package models

import "strings"

type QuestionType string

const (
	// Structural kinds group questions and are never graded.
	Paragraph QuestionType = "Paragraph"
	Audio     QuestionType = "Audio"

	// Gradable kinds.
	MultipleChoice  QuestionType = "MultipleChoice"
	SingleChoice    QuestionType = "SingleChoice"
	FormCompletion  QuestionType = "FormCompletion"
	Matching        QuestionType = "Matching"
	DiagramLabeling QuestionType = "DiagramLabeling"
	ShortAnswer     QuestionType = "ShortAnswer"
)

// IsStructural reports whether records of this kind act as section headers
// (paragraph text, audio section) rather than gradable questions.
func (t QuestionType) IsStructural() bool {
	return t == Paragraph || t == Audio
}

// ContentRecord unifies structural content and gradable questions in one
// self-referential table. ParentID == 0 marks a structural record; a
// non-zero ParentID references the owning structural record of the same
// test.
//
// Order is overloaded on purpose: on structural records it is the ordinal
// key used during import to resolve parent references, on questions it is
// the display and grading sequence within their parent.
type ContentRecord struct {
	ID            uint         `json:"id" gorm:"primaryKey"`
	QuestionType  QuestionType `json:"question_type" gorm:"not null;size:50;index" validate:"required,question_type"`
	Content       string       `json:"content" gorm:"type:text"`
	CorrectAnswer string       `json:"correct_answer" gorm:"type:text"`
	Choices       string       `json:"choices" gorm:"type:text"`
	Explanation   string       `json:"explanation" gorm:"type:text"`
	Link          string       `json:"link" gorm:"size:500"`
	ParentID      uint         `json:"parent_id" gorm:"not null;default:0;index"`
	TestID        uint         `json:"test_id" gorm:"not null;index"`
	Order         int          `json:"order" gorm:"column:order;not null;default:0"`
}

func (ContentRecord) TableName() string {
	return "questions"
}

// IsStructural reports whether this record is a section header rather than
// a gradable question. The zero ParentID is the discriminant, not the kind:
// the kind only selects rendering semantics.
func (r *ContentRecord) IsStructural() bool {
	return r.ParentID == 0
}

// Multi-value fields are delimiter-encoded in storage: pipe-separated for
// discrete choice lists, newline-separated for matching option pools. The
// accessors below are the ordered-list view used at the API boundary; the
// raw string stays the persistence format for compatibility with existing
// rows and spreadsheets.

const (
	choiceDelimiter   = "|"
	matchingDelimiter = "\n"
)

// Options returns the decoded choice list, empty for structural records.
func (r *ContentRecord) Options() []string {
	return splitDelimited(r.Choices, r.delimiter())
}

// AnswerKeys returns the decoded canonical answer list, empty for
// structural records.
func (r *ContentRecord) AnswerKeys() []string {
	return splitDelimited(r.CorrectAnswer, r.delimiter())
}

// SetOptions encodes an ordered option list back into the stored form.
func (r *ContentRecord) SetOptions(options []string) {
	r.Choices = strings.Join(options, r.delimiter())
}

func (r *ContentRecord) delimiter() string {
	if r.QuestionType == Matching {
		return matchingDelimiter
	}
	return choiceDelimiter
}

func splitDelimited(raw, delimiter string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, delimiter)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
