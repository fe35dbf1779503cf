package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Assignment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	WeekID      uuid.UUID  `gorm:"type:uuid;not null;index;column:week_id" json:"week_id"`
	Name        string     `gorm:"not null;column:name" json:"name"`
	Description string     `gorm:"not null;column:description" json:"description"`
	DueDate     *time.Time `gorm:"column:due_date" json:"due_date,omitempty"`

	Questions []Question `gorm:"foreignKey:AssignmentID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignment" }

type Question struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID        uuid.UUID `gorm:"type:uuid;not null;index;column:assignment_id" json:"assignment_id"`
	QuestionDescription string    `gorm:"not null;column:question_description" json:"question_description"`
	Option1             string    `gorm:"not null;column:option1" json:"option1"`
	Option2             string    `gorm:"not null;column:option2" json:"option2"`
	Option3             string    `gorm:"not null;column:option3" json:"option3"`
	Option4             string    `gorm:"not null;column:option4" json:"option4"`
	CorrectOption       int       `gorm:"not null;column:correct_option" json:"correct_option"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) Options() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}

type Score struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_score_student_assignment,priority:1;column:student_id" json:"student_id"`
	AssignmentID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_score_student_assignment,priority:2;index;column:assignment_id" json:"assignment_id"`
	Score        int            `gorm:"not null;column:score" json:"score"`
	MaxScore     int            `gorm:"not null;column:max_score" json:"max_score"`
	Answers      datatypes.JSON `gorm:"column:answers" json:"answers,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"submitted_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Score) TableName() string { return "score" }

// Percentage is score/max_score*100 rounded to two decimals; zero when max is zero.
func (s *Score) Percentage() float64 {
	if s == nil || s.MaxScore <= 0 {
		return 0
	}
	return Round2(float64(s.Score) / float64(s.MaxScore) * 100)
}
