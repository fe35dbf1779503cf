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

type AIHandler struct {
	aiService services.AIService
}

func NewAIHandler(aiService services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

func parseIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func parseOptionalID(raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (ah *AIHandler) Ask(c *gin.Context) {
	var req struct {
		Question    string   `json:"question"`
		MaterialIDs []string `json:"material_ids"`
		WeekID      string   `json:"week_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	materialIDs, err := parseIDs(req.MaterialIDs)
	if err != nil {
		response.RespondAPIError(c, apierr.BadRequest("Invalid material_ids"))
		return
	}
	weekID, err := parseOptionalID(req.WeekID)
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound(msgWeekNotFound))
		return
	}
	res, err := ah.aiService.Ask(c.Request.Context(), services.AskInput{
		Question:    req.Question,
		MaterialIDs: materialIDs,
		WeekID:      weekID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Answer generated", gin.H{"topic": res.Topic, "answer": res.Answer})
}

func (ah *AIHandler) QuestionHint(c *gin.Context) {
	var req struct {
		QuestionID string   `json:"question_id"`
		Question   string   `json:"question"`
		Options    []string `json:"options"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	questionID, err := parseOptionalID(req.QuestionID)
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound("Question not found"))
		return
	}
	hint, err := ah.aiService.QuestionHint(c.Request.Context(), services.HintInput{
		QuestionID: questionID,
		Question:   req.Question,
		Options:    req.Options,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Hint generated", gin.H{"hint": hint})
}

func (ah *AIHandler) Summarize(c *gin.Context) {
	var req struct {
		MaterialID string `json:"material_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBindError(c, err)
		return
	}
	materialID, err := uuid.Parse(strings.TrimSpace(req.MaterialID))
	if err != nil {
		response.RespondAPIError(c, apierr.NotFound(msgMaterialNotFound))
		return
	}
	summary, err := ah.aiService.Summarize(c.Request.Context(), materialID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondMessage(c, http.StatusOK, "Summary generated", gin.H{"material_id": materialID, "summary": summary})
}
