package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

const msgCourseNotFound = "Course not found"

type CourseHandler struct {
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func (ch *CourseHandler) List(c *gin.Context) {
	courses, err := ch.courseService.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Courses retrieved", gin.H{"courses": courses})
}

func (ch *CourseHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", msgCourseNotFound)
	if !ok {
		return
	}
	course, err := ch.courseService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Course retrieved", gin.H{"course": course})
}

func (ch *CourseHandler) Create(c *gin.Context) {
	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	thumb, err := files.get(c, "thumbnail")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	course, err := ch.courseService.Create(c.Request.Context(), services.CourseInput{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   thumb,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Course created", gin.H{"course": course})
}

func (ch *CourseHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", msgCourseNotFound)
	if !ok {
		return
	}
	var req struct {
		Name        *string `json:"name" form:"name"`
		Description *string `json:"description" form:"description"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	thumb, err := files.get(c, "thumbnail")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	course, err := ch.courseService.Update(c.Request.Context(), id, services.CourseUpdate{
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   thumb,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Course updated", gin.H{"course": course})
}

func (ch *CourseHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", msgCourseNotFound)
	if !ok {
		return
	}
	if err := ch.courseService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Course deleted", nil)
}

func (ch *CourseHandler) ListInstructor(c *gin.Context) {
	courses, err := ch.courseService.ListInstructor(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Courses retrieved", gin.H{"courses": courses})
}

func (ch *CourseHandler) ListEnrolled(c *gin.Context) {
	courses, err := ch.courseService.ListEnrolled(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Courses retrieved", gin.H{"courses": courses})
}

func (ch *CourseHandler) EnrollStudent(c *gin.Context) {
	courseID, ok := pathID(c, "course_id", msgCourseNotFound)
	if !ok {
		return
	}
	studentID, ok := pathID(c, "student_id", "Student not found")
	if !ok {
		return
	}
	enrollment, err := ch.courseService.EnrollStudent(c.Request.Context(), courseID, studentID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Student enrolled", gin.H{"enrollment": enrollment})
}
