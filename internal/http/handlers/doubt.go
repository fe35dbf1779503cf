package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type DoubtHandler struct {
	doubtService services.DoubtService
}

func NewDoubtHandler(doubtService services.DoubtService) *DoubtHandler {
	return &DoubtHandler{doubtService: doubtService}
}

func (dh *DoubtHandler) Create(c *gin.Context) {
	materialID, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	var req struct {
		DoubtText string `json:"doubt_text" form:"doubt_text"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	d, err := dh.doubtService.Create(c.Request.Context(), materialID, req.DoubtText)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Doubt submitted", gin.H{"doubt_id": d.ID})
}

func (dh *DoubtHandler) ListForMaterial(c *gin.Context) {
	materialID, ok := pathID(c, "id", msgMaterialNotFound)
	if !ok {
		return
	}
	list, err := dh.doubtService.ListForMaterial(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Doubts retrieved", gin.H{"doubts": list})
}

func (dh *DoubtHandler) MaterialsWithDoubts(c *gin.Context) {
	list, err := dh.doubtService.MaterialsWithDoubts(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Materials retrieved", gin.H{"materials": list})
}

func (dh *DoubtHandler) StudentDaily(c *gin.Context) {
	days, err := dh.doubtService.StudentDaily(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Doubt counts retrieved", gin.H{"daily_counts": days})
}
