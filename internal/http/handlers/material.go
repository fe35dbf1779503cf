package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

const msgMaterialNotFound = "Material not found"

type MaterialHandler struct {
	materialService   services.MaterialService
	transcriptService services.TranscriptService
}

func NewMaterialHandler(materialService services.MaterialService, transcriptService services.TranscriptService) *MaterialHandler {
	return &MaterialHandler{materialService: materialService, transcriptService: transcriptService}
}

type materialRequest struct {
	Name        *string      `json:"name" form:"name"`
	Description *string      `json:"description" form:"description"`
	Duration    *looseString `json:"duration" form:"duration"`
}

func (mh *MaterialHandler) Create(c *gin.Context) {
	weekID, ok := pathID(c, "week_id", "Invalid week_id")
	if !ok {
		return
	}
	var req materialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	file, err := files.get(c, "file")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	transcript, err := files.get(c, "transcript")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	in := services.MaterialInput{Duration: req.Duration.value(), File: file, Transcript: transcript}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	material, err := mh.materialService.Create(c.Request.Context(), weekID, in)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Material created", gin.H{"material": material})
}

func (mh *MaterialHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	material, err := mh.materialService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Material retrieved", gin.H{"material": material})
}

func (mh *MaterialHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	var req materialRequest
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	files := &uploads{}
	defer files.Close()
	file, err := files.get(c, "file")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	transcript, err := files.get(c, "transcript")
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	material, err := mh.materialService.Update(c.Request.Context(), id, services.MaterialUpdate{
		Name:        req.Name,
		Description: req.Description,
		Duration:    req.Duration.ptr(),
		File:        file,
		Transcript:  transcript,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Material updated", gin.H{"material": material})
}

func (mh *MaterialHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	if err := mh.materialService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Material deleted", nil)
}

func (mh *MaterialHandler) GenerateTranscript(c *gin.Context) {
	id, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	material, text, err := mh.transcriptService.Generate(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Transcript generated", gin.H{
		"material":   material,
		"transcript": text,
	})
}

func (mh *MaterialHandler) GetTranscript(c *gin.Context) {
	id, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	text, err := mh.transcriptService.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Transcript retrieved", gin.H{
		"material_id": id,
		"transcript":  text,
	})
}
