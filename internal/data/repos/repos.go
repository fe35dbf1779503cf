package repos

import (
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos/assessment"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/auth"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/course"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/enrollment"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/material"
	"github.com/Sparkonix11/Knowtopia/internal/data/repos/user"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type CourseRepo = course.CourseRepo
type WeekRepo = course.WeekRepo
type SearchRepo = course.SearchRepo
type SearchHit = course.SearchHit

type MaterialRepo = material.MaterialRepo
type ReviewRepo = material.ReviewRepo
type DoubtRepo = material.DoubtRepo
type MaterialDoubtCount = material.MaterialDoubtCount

type AssignmentRepo = assessment.AssignmentRepo
type QuestionRepo = assessment.QuestionRepo
type ScoreRepo = assessment.ScoreRepo

type EnrollmentRepo = enrollment.EnrollmentRepo
type EnrollmentRequestRepo = enrollment.EnrollmentRequestRepo

var (
	NewUserRepo      = user.NewUserRepo
	NewUserTokenRepo = auth.NewUserTokenRepo

	NewCourseRepo = course.NewCourseRepo
	NewWeekRepo   = course.NewWeekRepo
	NewSearchRepo = course.NewSearchRepo

	NewMaterialRepo = material.NewMaterialRepo
	NewReviewRepo   = material.NewReviewRepo
	NewDoubtRepo    = material.NewDoubtRepo

	NewAssignmentRepo = assessment.NewAssignmentRepo
	NewQuestionRepo   = assessment.NewQuestionRepo
	NewScoreRepo      = assessment.NewScoreRepo

	NewEnrollmentRepo        = enrollment.NewEnrollmentRepo
	NewEnrollmentRequestRepo = enrollment.NewEnrollmentRequestRepo
)

// Set bundles every repository over one database handle.
type Set struct {
	User              UserRepo
	UserToken         UserTokenRepo
	Course            CourseRepo
	Week              WeekRepo
	Search            SearchRepo
	Material          MaterialRepo
	Review            ReviewRepo
	Doubt             DoubtRepo
	Assignment        AssignmentRepo
	Question          QuestionRepo
	Score             ScoreRepo
	Enrollment        EnrollmentRepo
	EnrollmentRequest EnrollmentRequestRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		User:              NewUserRepo(db, log),
		UserToken:         NewUserTokenRepo(db, log),
		Course:            NewCourseRepo(db, log),
		Week:              NewWeekRepo(db, log),
		Search:            NewSearchRepo(db, log),
		Material:          NewMaterialRepo(db, log),
		Review:            NewReviewRepo(db, log),
		Doubt:             NewDoubtRepo(db, log),
		Assignment:        NewAssignmentRepo(db, log),
		Question:          NewQuestionRepo(db, log),
		Score:             NewScoreRepo(db, log),
		Enrollment:        NewEnrollmentRepo(db, log),
		EnrollmentRequest: NewEnrollmentRequestRepo(db, log),
	}
}
