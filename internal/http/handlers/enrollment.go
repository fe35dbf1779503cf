package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/platform/apierr"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

func (eh *EnrollmentHandler) Request(c *gin.Context) {
	var req struct {
		CourseID string `json:"course_id" form:"course_id" binding:"required"`
		Message  string `json:"message" form:"message"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	courseID, err := uuid.Parse(strings.TrimSpace(req.CourseID))
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound(msgCourseNotFound))
		return
	}
	er, err := eh.enrollmentService.Request(c.Request.Context(), courseID, req.Message)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Enrollment request submitted successfully", gin.H{"request": er})
}

func (eh *EnrollmentHandler) ListForStudent(c *gin.Context) {
	list, err := eh.enrollmentService.ListForStudent(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Enrollment requests retrieved", gin.H{"requests": list})
}

func (eh *EnrollmentHandler) ListForInstructor(c *gin.Context) {
	list, err := eh.enrollmentService.ListForInstructor(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Enrollment requests retrieved", gin.H{"requests": list})
}

func (eh *EnrollmentHandler) Action(c *gin.Context) {
	id, ok := pathID(c, "id", "Enrollment request not found")
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" form:"action"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	msg, err := eh.enrollmentService.Action(c.Request.Context(), id, req.Action)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, msg, nil)
}
