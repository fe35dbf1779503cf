package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Sparkonix11/Knowtopia/internal/data/repos"
	types "github.com/Sparkonix11/Knowtopia/internal/domain"
	"github.com/Sparkonix11/Knowtopia/internal/pkg/dbctx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sanitize"
	"github.com/Sparkonix11/Knowtopia/internal/platform/sendgrid"
)

const (
	msgRequestPending   = "Enrollment request already pending"
	msgRequestProcessed = "Enrollment request has already been processed"
)

type StudentRequestView struct {
	ID         uuid.UUID              `json:"id"`
	CourseID   uuid.UUID              `json:"course_id"`
	CourseName string                 `json:"course_name"`
	Message    string                 `json:"message"`
	Status     types.EnrollmentStatus `json:"status"`
	CreatedAt  time.Time              `json:"created_at"`
}

type InstructorRequestView struct {
	ID           uuid.UUID              `json:"id"`
	StudentID    uuid.UUID              `json:"student_id"`
	StudentName  string                 `json:"student_name"`
	StudentEmail string                 `json:"email"`
	CourseID     uuid.UUID              `json:"course_id"`
	CourseName   string                 `json:"course_name"`
	Message      string                 `json:"message"`
	Status       types.EnrollmentStatus `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
}

type EnrollmentService interface {
	Request(ctx context.Context, courseID uuid.UUID, message string) (*types.EnrollmentRequest, error)
	ListForStudent(ctx context.Context) ([]StudentRequestView, error)
	ListForInstructor(ctx context.Context) ([]InstructorRequestView, error)
	// Action approves or rejects a pending request and returns the confirmation message.
	Action(ctx context.Context, requestID uuid.UUID, action string) (string, error)
}

type enrollmentService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	owner *ownership
	mail  sendgrid.Client
}

func NewEnrollmentService(db *gorm.DB, log *logger.Logger, r repos.Set, mail sendgrid.Client) EnrollmentService {
	return &enrollmentService{
		db:    db,
		log:   log.With("service", "EnrollmentService"),
		repos: r,
		owner: newOwnership(r),
		mail:  mail,
	}
}

func (es *enrollmentService) Request(ctx context.Context, courseID uuid.UUID, message string) (*types.EnrollmentRequest, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if rd.IsInstructor {
		return nil, apierr.Forbidden("Only students can request enrollment")
	}
	req := &types.EnrollmentRequest{
		StudentID: rd.UserID,
		CourseID:  courseID,
		Message:   sanitize.Text(message),
		Status:    types.EnrollmentPending,
	}
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := es.owner.course(dbc, courseID); err != nil {
			return err
		}
		enrolled, err := es.repos.Enrollment.Exists(dbc, rd.UserID, courseID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if enrolled {
			return apierr.BadRequest("Already enrolled in this course")
		}
		pending, err := es.repos.EnrollmentRequest.HasPending(dbc, rd.UserID, courseID)
		if err != nil {
			return fmt.Errorf("check pending request: %w", err)
		}
		if pending {
			return apierr.BadRequest(msgRequestPending)
		}
		if _, err := es.repos.EnrollmentRequest.Create(dbc, []*types.EnrollmentRequest{req}); err != nil {
			return uniqueOr(err, msgRequestPending, "create enrollment request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (es *enrollmentService) ListForStudent(ctx context.Context) ([]StudentRequestView, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	reqs, err := es.repos.EnrollmentRequest.ListByStudent(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list enrollment requests: %w", err)
	}
	courseNames, err := es.courseNames(dbc, reqs)
	if err != nil {
		return nil, err
	}
	out := make([]StudentRequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, StudentRequestView{
			ID:         r.ID,
			CourseID:   r.CourseID,
			CourseName: courseNames[r.CourseID],
			Message:    r.Message,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out, nil
}

func (es *enrollmentService) courseNames(dbc dbctx.Context, reqs []*types.EnrollmentRequest) (map[uuid.UUID]string, error) {
	ids := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.CourseID)
	}
	courses, err := es.repos.Course.ListByIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	names := make(map[uuid.UUID]string, len(courses))
	for _, c := range courses {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (es *enrollmentService) ListForInstructor(ctx context.Context) ([]InstructorRequestView, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	if !rd.IsInstructor {
		return nil, apierr.Forbidden("Only instructors can access this resource")
	}
	dbc := dbctx.Context{Ctx: ctx}
	courseIDs, err := es.repos.Course.IDsByInstructor(dbc, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	reqs, err := es.repos.EnrollmentRequest.ListByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("list enrollment requests: %w", err)
	}
	courseNames, err := es.courseNames(dbc, reqs)
	if err != nil {
		return nil, err
	}
	studentIDs := make([]uuid.UUID, 0, len(reqs))
	for _, r := range reqs {
		studentIDs = append(studentIDs, r.StudentID)
	}
	students, err := es.repos.User.GetByIDs(dbc, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	byID := make(map[uuid.UUID]*types.User, len(students))
	for _, u := range students {
		byID[u.ID] = u
	}

	out := make([]InstructorRequestView, 0, len(reqs))
	for _, r := range reqs {
		v := InstructorRequestView{
			ID:         r.ID,
			StudentID:  r.StudentID,
			CourseID:   r.CourseID,
			CourseName: courseNames[r.CourseID],
			Message:    r.Message,
			Status:     r.Status,
			CreatedAt:  r.CreatedAt,
		}
		if u := byID[r.StudentID]; u != nil {
			v.StudentName = u.FullName()
			v.StudentEmail = u.Email
		}
		out = append(out, v)
	}
	return out, nil
}

func (es *enrollmentService) Action(ctx context.Context, requestID uuid.UUID, action string) (string, error) {
	rd, err := requestUser(ctx)
	if err != nil {
		return "", err
	}
	if !rd.IsInstructor {
		return "", apierr.Forbidden("Only instructors can perform this action")
	}
	action = strings.ToLower(strings.TrimSpace(action))
	var status types.EnrollmentStatus
	switch action {
	case "approve":
		status = types.EnrollmentApproved
	case "reject":
		status = types.EnrollmentRejected
	default:
		return "", apierr.BadRequest("Invalid action. Must be 'approve' or 'reject'")
	}

	var (
		req     *types.EnrollmentRequest
		course  *types.Course
		student *types.User
	)
	err = es.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		var err error
		req, err = es.repos.EnrollmentRequest.GetByID(dbc, requestID)
		if err != nil {
			return fmt.Errorf("load enrollment request: %w", err)
		}
		if req == nil {
			return apierr.NotFound("Enrollment request not found")
		}
		course, err = es.repos.Course.GetByID(dbc, req.CourseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if course == nil || course.InstructorID != rd.UserID {
			return apierr.Forbidden("You don't have permission to manage this enrollment request")
		}
		if req.Status != types.EnrollmentPending {
			return apierr.BadRequest(msgRequestProcessed)
		}
		resolved, err := es.repos.EnrollmentRequest.ResolvePending(dbc, req.ID, status)
		if err != nil {
			return fmt.Errorf("update enrollment request: %w", err)
		}
		if !resolved {
			return apierr.BadRequest(msgRequestProcessed)
		}
		if status == types.EnrollmentApproved {
			enrolled, err := es.repos.Enrollment.Exists(dbc, req.StudentID, req.CourseID)
			if err != nil {
				return fmt.Errorf("check enrollment: %w", err)
			}
			if !enrolled {
				if _, err := es.repos.Enrollment.Create(dbc, []*types.Enrollment{{StudentID: req.StudentID, CourseID: req.CourseID}}); err != nil {
					return uniqueOr(err, "Already enrolled in this course", "create enrollment")
				}
			}
		}
		student, err = es.repos.User.GetByID(dbc, req.StudentID)
		if err != nil {
			return fmt.Errorf("load student: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	es.notify(ctx, student, course, status)
	if status == types.EnrollmentApproved {
		return "Enrollment request approved successfully", nil
	}
	return "Enrollment request rejected successfully", nil
}

// notify mails the decision to the student. Failures never undo the decision.
func (es *enrollmentService) notify(ctx context.Context, student *types.User, course *types.Course, status types.EnrollmentStatus) {
	if es.mail == nil || !es.mail.Enabled() || student == nil || course == nil {
		return
	}
	subject := fmt.Sprintf("Your enrollment request for %s was %s", course.Name, status)
	text := fmt.Sprintf("Hi %s,\n\nYour request to join %q has been %s.\n\nThe Knowtopia team", student.FirstName, course.Name, status)
	msg := sendgrid.Message{
		ToEmail: student.Email,
		ToName:  student.FullName(),
		Subject: subject,
		Text:    text,
	}
	if err := es.mail.Send(context.WithoutCancel(ctx), msg); err != nil {
		es.log.Warn("enrollment notification failed", "request_course_id", course.ID, "status", status, "error", err)
	}
}
