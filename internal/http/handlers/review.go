package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Sparkonix11/Knowtopia/internal/http/response"
	"github.com/Sparkonix11/Knowtopia/internal/services"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) Create(c *gin.Context) {
	materialID, ok := pathID(c, "material_id", msgMaterialNotFound)
	if !ok {
		return
	}
	var req struct {
		Rating  *looseString `json:"rating" form:"rating"`
		Comment string       `json:"comment" form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	var rating *int
	if req.Rating != nil && strings.TrimSpace(req.Rating.value()) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(req.Rating.value()))
		if err != nil {
			n = 0
		}
		rating = &n
	}
	review, err := rh.reviewService.Create(c.Request.Context(), materialID, rating, req.Comment)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusCreated, "Review created", gin.H{"review": review})
}

func (rh *ReviewHandler) List(c *gin.Context) {
	materialID, ok := pathID(c, "material_id", msgMaterialNotFound)
	if !ok {
		return
	}
	list, err := rh.reviewService.List(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Reviews retrieved", gin.H{
		"material_id":    list.MaterialID,
		"reviews":        list.Reviews,
		"average_rating": list.AverageRating,
		"count":          list.Count,
	})
}

func (rh *ReviewHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "Review not found")
	if !ok {
		return
	}
	if err := rh.reviewService.Delete(c.Request.Context(), id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Review deleted", nil)
}
