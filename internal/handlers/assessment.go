package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellbeam/burnout-backend/internal/services"
)

type AssessmentHandler struct {
	assessmentService services.AssessmentService
}

func NewAssessmentHandler(assessmentService services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessmentService: assessmentService}
}

// Submit handles POST /assessments. Score fields are pointers so that a
// missing field fails binding instead of defaulting to zero.
func (ah *AssessmentHandler) Submit(c *gin.Context) {
	var req struct {
		TiredScore      *int `json:"tired_score" binding:"required"`
		CapableScore    *int `json:"capable_score" binding:"required"`
		MeaningfulScore *int `json:"meaningful_score" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusUnprocessableEntity, "invalid_body", err)
		return
	}
	result, err := ah.assessmentService.Submit(c.Request.Context(), *req.TiredScore, *req.CapableScore, *req.MeaningfulScore)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
