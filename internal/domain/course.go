package domain

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex;column:name" json:"name"`
	Description  string    `gorm:"not null;column:description" json:"description"`
	InstructorID uuid.UUID `gorm:"type:uuid;not null;index;column:instructor_id" json:"instructor_id"`
	Thumbnail    string    `gorm:"column:thumbnail" json:"thumbnail,omitempty"`
	ThumbnailKey string    `gorm:"column:thumbnail_key" json:"-"`

	Weeks []Week `gorm:"foreignKey:CourseID" json:"weeks,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "course" }

type Week struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_week_course_name,priority:1;column:course_id" json:"course_id"`
	Name        string    `gorm:"not null;uniqueIndex:idx_week_course_name,priority:2;column:name" json:"name"`
	Description string    `gorm:"column:description" json:"description"`

	Materials   []Material   `gorm:"foreignKey:WeekID" json:"materials,omitempty"`
	Assignments []Assignment `gorm:"foreignKey:WeekID" json:"assignments,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Week) TableName() string { return "week" }

type Enrollment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:1;column:student_id" json:"student_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:2;index;column:course_id" json:"course_id"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// EnrollmentRequest rows are unique per (student, course) while pending.
type EnrollmentRequest struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_enrollment_request_pending,priority:1,where:status = 'pending';column:student_id" json:"student_id"`
	CourseID  uuid.UUID        `gorm:"type:uuid;not null;index;uniqueIndex:idx_enrollment_request_pending,priority:2,where:status = 'pending';column:course_id" json:"course_id"`
	Message   string           `gorm:"column:message" json:"message"`
	Status    EnrollmentStatus `gorm:"not null;default:pending;index;column:status" json:"status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (EnrollmentRequest) TableName() string { return "enrollment_request" }
