package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aurora-planner/aurora/internal/ai"
	"github.com/aurora-planner/aurora/internal/planner"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// maxPlanRequestBytes caps the generate request body.
const maxPlanRequestBytes = 64 << 10

// GenerateHandler serves study plan generation.
type GenerateHandler struct {
	svc *planner.Service
}

// NewGenerateHandler constructs a GenerateHandler.
func NewGenerateHandler(svc *planner.Service) *GenerateHandler {
	return &GenerateHandler{svc: svc}
}

// Generate creates a study plan and replies with its ID.
func (h *GenerateHandler) Generate(c *gin.Context) {
	if !h.svc.Configured() {
		log.Error("generate plan: gemini api key is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server configuration error"})
		return
	}

	body, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxPlanRequestBytes))
	if errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req, errParse := planner.ParseRequest(body)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": requestErrorMessage(errParse)})
		return
	}

	id, errGen := h.svc.Generate(c.Request.Context(), req)
	if errGen != nil {
		status, message := generateErrorResponse(errGen)
		log.WithError(errGen).WithField("status", status).Error("generate plan failed")
		c.JSON(status, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func generateErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return http.StatusTooManyRequests, "Daily AI limit reached. Please try again later."
	case errors.Is(err, planner.ErrMissingAPIKey):
		return http.StatusInternalServerError, "Server configuration error"
	case errors.Is(err, planner.ErrInvalidAIResponse):
		return http.StatusInternalServerError, "Invalid AI response"
	case errors.Is(err, planner.ErrInvalidRequest):
		return http.StatusBadRequest, requestErrorMessage(err)
	default:
		return http.StatusInternalServerError, "Failed to generate study plan"
	}
}

func requestErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimPrefix(err.Error(), "planner: ")
}
