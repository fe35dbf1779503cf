package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

const msgWeekNotFound = "Week not found"

type WeekHandler struct {
	weekService services.WeekService
}

func NewWeekHandler(weekService services.WeekService) *WeekHandler {
	return &WeekHandler{weekService: weekService}
}

type weekRequest struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

func (wh *WeekHandler) Create(c *gin.Context) {
	courseID, ok := pathID(c, "course_id", msgCourseNotFound)
	if !ok {
		return
	}
	var req weekRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	name, desc := "", ""
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		desc = *req.Description
	}
	week, err := wh.weekService.Create(c.Request.Context(), courseID, name, desc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Week created", gin.H{"week": week})
}

func (wh *WeekHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", msgWeekNotFound)
	if !ok {
		return
	}
	var req weekRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	week, err := wh.weekService.Update(c.Request.Context(), id, req.Name, req.Description)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Week updated", gin.H{"week": week})
}

func (wh *WeekHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", msgWeekNotFound)
	if !ok {
		return
	}
	if err := wh.weekService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Week deleted", nil)
}
