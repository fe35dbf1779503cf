package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

type SubmissionResult struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

type ScoreView struct {
	AssignmentID uuid.UUID      `json:"assignment_id"`
	Score        int            `json:"score"`
	MaxScore     int            `json:"max_score"`
	Percentage   float64        `json:"percentage"`
	Answers      datatypes.JSON `json:"answers,omitempty"`
	SubmittedAt  time.Time      `json:"submitted_at"`
}

type StudentScore struct {
	StudentID   uuid.UUID `json:"student_id"`
	StudentName string    `json:"student_name"`
	Score       int       `json:"score"`
	MaxScore    int       `json:"max_score"`
	Percentage  float64   `json:"percentage"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type AssignmentInfo struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	WeekID      uuid.UUID  `json:"week_id"`
	WeekName    string     `json:"week_name"`
	CourseID    uuid.UUID  `json:"course_id"`
	CourseName  string     `json:"course_name"`
}

type AssignmentScores struct {
	Assignment        AssignmentInfo `json:"assignment"`
	Scores            []StudentScore `json:"scores"`
	AveragePercentage float64        `json:"average_percentage"`
	TotalSubmissions  int            `json:"total_submissions"`
}

type AssignmentSummary struct {
	AssignmentInfo
	AveragePercentage float64 `json:"average_percentage"`
	SubmissionCount   int     `json:"submission_count"`
}

type ScoringService interface {
	Submit(ctx context.Context, assignmentID uuid.UUID, answers map[string]int) (*SubmissionResult, error)
	MyScore(ctx context.Context, assignmentID uuid.UUID) (*ScoreView, error)
	AssignmentScores(ctx context.Context, assignmentID uuid.UUID) (*AssignmentScores, error)
	InstructorSummary(ctx context.Context) ([]AssignmentSummary, error)
}

type scoringService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	owner *ownership
}

func NewScoringService(db *gorm.DB, log *logger.Logger, r repos.Set) ScoringService {
	return &scoringService{
		db:    db,
		log:   log.With("service", "ScoringService"),
		repos: r,
		owner: newOwnership(r),
	}
}

// grade counts answers equal to the question's correct option. Answers to unknown questions are ignored.
func grade(questions []*types.Question, answers map[string]int) SubmissionResult {
	res := SubmissionResult{Total: len(questions)}
	for _, q := range questions {
		if got, ok := answers[q.ID.String()]; ok && got == q.CorrectOption {
			res.Correct++
		}
	}
	if res.Total > 0 {
		res.Percentage = types.Round2(float64(res.Correct) / float64(res.Total) * 100)
	}
	return res
}

func (ss *scoringService) Submit(ctx context.Context, assignmentID uuid.UUID, answers map[string]int) (*SubmissionResult, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	var res SubmissionResult
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := ss.owner.assignment(dbc, assignmentID, msgAssignmentNotFound); err != nil {
			return err
		}
		if len(answers) == 0 {
			return apierr.BadRequest("No answers provided")
		}
		questions, err := ss.repos.Question.ListByAssignment(dbc, assignmentID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			return apierr.NotFound("No questions found for this assignment")
		}
		existing, err := ss.repos.Score.GetByStudentAndAssignment(dbc, rd.UserID, assignmentID)
		if err != nil {
			return fmt.Errorf("load score: %w", err)
		}
		if existing != nil {
			return apierr.BadRequest("You have already submitted this assignment")
		}

		res = grade(questions, answers)
		raw, err := json.Marshal(answers)
		if err != nil {
			return fmt.Errorf("encode answers: %w", err)
		}
		score := &types.Score{
			StudentID:    rd.UserID,
			AssignmentID: assignmentID,
			Score:        res.Correct,
			MaxScore:     res.Total,
			Answers:      datatypes.JSON(raw),
		}
		if _, err := ss.repos.Score.Create(dbc, []*types.Score{score}); err != nil {
			return uniqueOr(err, "You have already submitted this assignment", "create score")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("assignment submitted", "assignment_id", assignmentID, "user_id", rd.UserID, "correct", res.Correct, "total", res.Total)
	return &res, nil
}

func (ss *scoringService) MyScore(ctx context.Context, assignmentID uuid.UUID) (*ScoreView, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := ss.owner.assignment(dbc, assignmentID, msgAssignmentNotFound); err != nil {
		return nil, err
	}
	s, err := ss.repos.Score.GetByStudentAndAssignment(dbc, rd.UserID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("load score: %w", err)
	}
	if s == nil {
		return nil, apierr.NotFound("No submission found")
	}
	return &ScoreView{
		AssignmentID: s.AssignmentID,
		Score:        s.Score,
		MaxScore:     s.MaxScore,
		Percentage:   s.Percentage(),
		Answers:      s.Answers,
		SubmittedAt:  s.CreatedAt,
	}, nil
}

func (ss *scoringService) AssignmentScores(ctx context.Context, assignmentID uuid.UUID) (*AssignmentScores, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	a, w, c, err := ss.owner.ownedAssignment(dbc, assignmentID, rd.UserID, msgAssignmentNotFound)
	if err != nil {
		return nil, err
	}
	scores, err := ss.repos.Score.ListByAssignmentIDs(dbc, []uuid.UUID{a.ID})
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	names, err := ss.studentNames(dbc, scores)
	if err != nil {
		return nil, err
	}

	out := &AssignmentScores{
		Assignment: assignmentInfo(a, w, c),
		Scores:     make([]StudentScore, 0, len(scores)),
	}
	for _, s := range scores {
		out.Scores = append(out.Scores, StudentScore{
			StudentID:   s.StudentID,
			StudentName: names[s.StudentID],
			Score:       s.Score,
			MaxScore:    s.MaxScore,
			Percentage:  s.Percentage(),
			SubmittedAt: s.CreatedAt,
		})
	}
	out.TotalSubmissions = len(out.Scores)
	out.AveragePercentage = averagePercentage(scores)
	return out, nil
}

func (ss *scoringService) studentNames(dbc dbctx.Context, scores []*types.Score) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(scores))
	for _, s := range scores {
		ids = append(ids, s.StudentID)
	}
	users, err := ss.repos.User.GetByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	return names, nil
}

func averagePercentage(scores []*types.Score) float64 {
	if len(scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s.Percentage()
	}
	return types.Round2(sum / float64(len(scores)))
}

func assignmentInfo(a *types.Assignment, w *types.Week, c *types.Course) AssignmentInfo {
	return AssignmentInfo{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		DueDate:     a.DueDate,
		WeekID:      w.ID,
		WeekName:    w.Name,
		CourseID:    c.ID,
		CourseName:  c.Name,
	}
}

func (ss *scoringService) InstructorSummary(ctx context.Context) ([]AssignmentSummary, error) {
	rd, err := requireInstructor(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	courses, err := ss.repos.Course.ListByInstructor(dbc, rd.UserID, true)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	var ids []uuid.UUID
	out := []AssignmentSummary{}
	for _, c := range courses {
		for wi := range c.Weeks {
			w := &c.Weeks[wi]
			for ai := range w.Assignments {
				a := &w.Assignments[ai]
				ids = append(ids, a.ID)
				out = append(out, AssignmentSummary{AssignmentInfo: assignmentInfo(a, w, c)})
			}
		}
	}
	scores, err := ss.repos.Score.ListByAssignmentIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	byAssignment := map[uuid.UUID][]*types.Score{}
	for _, s := range scores {
		byAssignment[s.AssignmentID] = append(byAssignment[s.AssignmentID], s)
	}
	for i := range out {
		s := byAssignment[out[i].ID]
		out[i].SubmissionCount = len(s)
		out[i].AveragePercentage = averagePercentage(s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CourseName < out[j].CourseName })
	return out, nil
}
