package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/pointers"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
)

const msgAssignmentNotFound = "Assignment not found"

type AssignmentInput struct {
	Name        string
	Description string
	DueDate     *time.Time
}

type QuestionInput struct {
	QuestionDescription string
	Option1             string
	Option2             string
	Option3             string
	Option4             string
	CorrectOption       string
}

// QuestionView hides the correct option from students.
type QuestionView struct {
	ID                  uuid.UUID `json:"id"`
	AssignmentID        uuid.UUID `json:"assignment_id"`
	QuestionDescription string    `json:"question_description"`
	Option1             string    `json:"option1"`
	Option2             string    `json:"option2"`
	Option3             string    `json:"option3"`
	Option4             string    `json:"option4"`
	CorrectOption       *int      `json:"correct_option,omitempty"`
}

type AssessmentService interface {
	CreateAssignment(ctx context.Context, weekID uuid.UUID, in AssignmentInput) (*types.Assignment, error)
	GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.Assignment, error)
	ListWeekAssignments(ctx context.Context, weekID uuid.UUID) ([]*types.Assignment, error)
	DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error

	CreateQuestion(ctx context.Context, assignmentID uuid.UUID, in QuestionInput) (*types.Question, error)
	ListQuestions(ctx context.Context, assignmentID uuid.UUID) ([]QuestionView, error)
	DeleteQuestion(ctx context.Context, questionID uuid.UUID) error
}

type assessmentService struct {
	db      *gorm.DB
	log     *logger.Logger
	repos   repos.Set
	owner   *ownership
	cascade *cascader
}

func NewAssessmentService(db *gorm.DB, log *logger.Logger, r repos.Set) AssessmentService {
	return &assessmentService{
		db:      db,
		log:     log.With("service", "AssessmentService"),
		repos:   r,
		owner:   newOwnership(r),
		cascade: newCascader(r),
	}
}

func (as *assessmentService) CreateAssignment(ctx context.Context, weekID uuid.UUID, in AssignmentInput) (*types.Assignment, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	desc := sanitize.Text(in.Description)

	a := &types.Assignment{WeekID: weekID, Name: name, Description: desc, DueDate: in.DueDate}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, _, err := as.owner.ownedWeek(dbc, weekID, rd.UserID, msgWeekNotFound); err != nil {
			return err
		}
		if blank(name, desc) {
			return apierr.BadRequest(msgMissingFields)
		}
		if _, err := as.repos.Assignment.Create(dbc, []*types.Assignment{a}); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (as *assessmentService) GetAssignment(ctx context.Context, assignmentID uuid.UUID) (*types.Assignment, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	return as.owner.assignment(dbctx.Context{Ctx: ctx}, assignmentID, msgAssignmentNotFound)
}

func (as *assessmentService) ListWeekAssignments(ctx context.Context, weekID uuid.UUID) ([]*types.Assignment, error) {
	if _, err := requestUser(ctx); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	w, err := as.repos.Week.GetByID(dbc, weekID)
	if err != nil {
		return nil, fmt.Errorf("load week: %w", err)
	}
	if w == nil {
		return nil, apierr.NotFound(msgWeekNotFound)
	}
	out, err := as.repos.Assignment.ListByWeekIDs(dbc, []uuid.UUID{weekID})
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return out, nil
}

func (as *assessmentService) DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return err
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, _, _, err := as.owner.ownedAssignment(dbc, assignmentID, rd.UserID, msgAssignmentNotFound); err != nil {
			return err
		}
		return as.cascade.deleteAssignments(dbc, []uuid.UUID{assignmentID})
	})
}

func parseCorrectOption(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > 4 {
		return 0, apierr.BadRequest("Correct option must be between 1 and 4")
	}
	return n, nil
}

func (as *assessmentService) CreateQuestion(ctx context.Context, assignmentID uuid.UUID, in QuestionInput) (*types.Question, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	q := &types.Question{
		AssignmentID:        assignmentID,
		QuestionDescription: sanitize.Text(in.QuestionDescription),
		Option1:             sanitize.Text(in.Option1),
		Option2:             sanitize.Text(in.Option2),
		Option3:             sanitize.Text(in.Option3),
		Option4:             sanitize.Text(in.Option4),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, _, _, err := as.owner.ownedAssignment(dbc, assignmentID, rd.UserID, "Invalid assignment_id"); err != nil {
			return err
		}
		if blank(q.QuestionDescription, q.Option1, q.Option2, q.Option3, q.Option4, in.CorrectOption) {
			return apierr.BadRequest(msgMissingFields)
		}
		correct, err := parseCorrectOption(in.CorrectOption)
		if err != nil {
			return err
		}
		q.CorrectOption = correct
		if _, err := as.repos.Question.Create(dbc, []*types.Question{q}); err != nil {
			return fmt.Errorf("create question: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (as *assessmentService) ListQuestions(ctx context.Context, assignmentID uuid.UUID) ([]QuestionView, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := as.owner.assignment(dbc, assignmentID, msgAssignmentNotFound); err != nil {
		return nil, err
	}
	qs, err := as.repos.Question.ListByAssignment(dbc, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]QuestionView, 0, len(qs))
	for _, q := range qs {
		v := QuestionView{
			ID:                  q.ID,
			AssignmentID:        q.AssignmentID,
			QuestionDescription: q.QuestionDescription,
			Option1:             q.Option1,
			Option2:             q.Option2,
			Option3:             q.Option3,
			Option4:             q.Option4,
		}
		if rd.IsInstructor {
			v.CorrectOption = pointers.Ptr(q.CorrectOption)
		}
		out = append(out, v)
	}
	return out, nil
}

func (as *assessmentService) DeleteQuestion(ctx context.Context, questionID uuid.UUID) error {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return err
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		q, err := as.repos.Question.GetByID(dbc, questionID)
		if err != nil {
			return fmt.Errorf("load question: %w", err)
		}
		if q == nil {
			return apierr.NotFound("Question not found")
		}
		if _, _, _, err := as.owner.ownedAssignment(dbc, q.AssignmentID, rd.UserID, msgAssignmentNotFound); err != nil {
			return err
		}
		if err := as.repos.Question.DeleteByIDs(dbc, []uuid.UUID{q.ID}); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		return nil
	})
}
