package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

const msgAssignmentNotFound = "Assignment not found"

type AssessmentHandler struct {
	assessmentService services.AssessmentService
	scoringService    services.ScoringService
}

func NewAssessmentHandler(assessmentService services.AssessmentService, scoringService services.ScoringService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService, scoringService: scoringService}
}

func (ah *AssessmentHandler) CreateAssignment(c *gin.Context) {
	weekID, ok := pathID(c, "week_id", msgWeekNotFound)
	if !ok {
		return
	}
	var req struct {
		Name        string     `json:"name" form:"name"`
		Description string     `json:"description" form:"description"`
		DueDate     *time.Time `json:"due_date" form:"due_date" time_format:"2006-01-02T15:04:05Z07:00"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	a, err := ah.assessmentService.CreateAssignment(c.Request.Context(), weekID, services.AssignmentInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Assignment created", gin.H{"assignment": a})
}

func (ah *AssessmentHandler) GetAssignment(c *gin.Context) {
	id, ok := pathID(c, "id", msgAssignmentNotFound)
	if !ok {
		return
	}
	a, err := ah.assessmentService.GetAssignment(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Assignment retrieved", gin.H{"assignment": a})
}

func (ah *AssessmentHandler) ListWeekAssignments(c *gin.Context) {
	weekID, ok := pathID(c, "week_id", msgWeekNotFound)
	if !ok {
		return
	}
	list, err := ah.assessmentService.ListWeekAssignments(c.Request.Context(), weekID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Assignments retrieved", gin.H{"assignments": list})
}

func (ah *AssessmentHandler) DeleteAssignment(c *gin.Context) {
	id, ok := pathID(c, "id", msgAssignmentNotFound)
	if !ok {
		return
	}
	if err := ah.assessmentService.DeleteAssignment(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Assignment deleted", nil)
}

func (ah *AssessmentHandler) CreateQuestion(c *gin.Context) {
	assignmentID, ok := pathID(c, "assignment_id", "Invalid assignment_id")
	if !ok {
		return
	}
	var req struct {
		QuestionDescription string       `json:"question_description" form:"question_description"`
		Option1             *looseString `json:"option1" form:"option1"`
		Option2             *looseString `json:"option2" form:"option2"`
		Option3             *looseString `json:"option3" form:"option3"`
		Option4             *looseString `json:"option4" form:"option4"`
		CorrectOption       *looseString `json:"correct_option" form:"correct_option"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	q, err := ah.assessmentService.CreateQuestion(c.Request.Context(), assignmentID, services.QuestionInput{
		QuestionDescription: req.QuestionDescription,
		Option1:             req.Option1.value(),
		Option2:             req.Option2.value(),
		Option3:             req.Option3.value(),
		Option4:             req.Option4.value(),
		CorrectOption:       req.CorrectOption.value(),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Question created", gin.H{"question": q})
}

func (ah *AssessmentHandler) ListQuestions(c *gin.Context) {
	assignmentID, ok := pathID(c, "assignment_id", "Invalid assignment_id")
	if !ok {
		return
	}
	qs, err := ah.assessmentService.ListQuestions(c.Request.Context(), assignmentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Questions retrieved", gin.H{"questions": qs})
}

func (ah *AssessmentHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c, "id", "Question not found")
	if !ok {
		return
	}
	if err := ah.assessmentService.DeleteQuestion(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Question deleted", nil)
}

func (ah *AssessmentHandler) Submit(c *gin.Context) {
	id, ok := pathID(c, "id", msgAssignmentNotFound)
	if !ok {
		return
	}
	var req struct {
		Answers map[string]looseString `json:"answers"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	// unparseable options stay in the map as 0 so they are graded wrong
	answers := make(map[string]int, len(req.Answers))
	for qid, opt := range req.Answers {
		n, _ := strconv.Atoi(strings.TrimSpace(string(opt)))
		answers[answerKey(qid)] = n
	}
	res, err := ah.scoringService.Submit(c.Request.Context(), id, answers)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Assignment submitted successfully", gin.H{"score": res})
}

func (ah *AssessmentHandler) MyScore(c *gin.Context) {
	id, ok := pathID(c, "id", msgAssignmentNotFound)
	if !ok {
		return
	}
	score, err := ah.scoringService.MyScore(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Score retrieved", gin.H{"score": score})
}

func (ah *AssessmentHandler) AssignmentScores(c *gin.Context) {
	id, ok := pathID(c, "id", msgAssignmentNotFound)
	if !ok {
		return
	}
	scores, err := ah.scoringService.AssignmentScores(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Scores retrieved", gin.H{
		"assignment":         scores.Assignment,
		"scores":             scores.Scores,
		"average_percentage": scores.AveragePercentage,
		"total_submissions":  scores.TotalSubmissions,
	})
}

func (ah *AssessmentHandler) InstructorSummary(c *gin.Context) {
	list, err := ah.scoringService.InstructorSummary(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Assignments retrieved", gin.H{"assignments": list})
}
