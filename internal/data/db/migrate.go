package db

import (
	"gorm.io/gorm"

	types "github.com/Sparkonix11/Knowtopia/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity + sessions
		&types.User{},
		&types.UserToken{},

		// Course structure
		&types.Course{},
		&types.Week{},
		&types.Material{},

		// Assessment
		&types.Assignment{},
		&types.Question{},
		&types.Score{},

		// Participation
		&types.Enrollment{},
		&types.EnrollmentRequest{},
		&types.Review{},
		&types.MaterialDoubt{},
	)
}
