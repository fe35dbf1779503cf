package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultUserImage = "/static/user_placeholder.png"

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password     string    `gorm:"not null;column:password" json:"-"`
	FirstName    string    `gorm:"not null;column:first_name" json:"fname"`
	LastName     string    `gorm:"not null;column:last_name" json:"lname"`
	Phone        string    `gorm:"column:phone" json:"phone,omitempty"`
	IsInstructor bool      `gorm:"not null;default:false;column:is_instructor" json:"is_instructor"`
	Image        string    `gorm:"column:image" json:"image"`
	ImageKey     string    `gorm:"column:image_key" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UserToken struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	AccessToken string    `gorm:"not null;uniqueIndex;column:access_token" json:"-"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserToken) TableName() string { return "user_token" }
