package handlers

import (
	"errors"
	"math/rand/v2"
	"net/http"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/store"
	"github.com/aurora-planner/aurora/internal/timetable"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// PlanHandler serves stored study plans.
type PlanHandler struct {
	docs  DocumentStore
	quote func() string
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(docs DocumentStore) *PlanHandler {
	return &PlanHandler{docs: docs, quote: randomQuote}
}

func randomQuote() string {
	quotes := settings.MotivationalQuotes
	if len(quotes) == 0 {
		return ""
	}
	return quotes[rand.IntN(len(quotes))]
}

// Get returns the stored plan document.
func (h *PlanHandler) Get(c *gin.Context) {
	plan, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, plan)
}

// View returns the plan as ordered, grouped days with tips and a quote.
func (h *PlanHandler) View(c *gin.Context) {
	plan, ok := h.load(c)
	if !ok {
		return
	}
	tips := plan.Plan.Tips
	if tips == nil {
		tips = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        plan.ID,
		"examDate":  plan.Meta.ExamDate,
		"days":      timetable.BuildDays(plan),
		"tips":      tips,
		"quote":     h.quote(),
		"createdAt": plan.CreatedAt,
	})
}

func (h *PlanHandler) load(c *gin.Context) (models.StudyPlan, bool) {
	id := c.Param("id")
	snap, errGet := h.docs.Get(c.Request.Context(), settings.StudyPlansCollection, id)
	if errGet != nil {
		if errors.Is(errGet, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return models.StudyPlan{}, false
		}
		log.WithError(errGet).WithField("plan_id", id).Error("load plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load plan failed"})
		return models.StudyPlan{}, false
	}
	var plan models.StudyPlan
	if errDecode := snap.Decode(&plan); errDecode != nil {
		log.WithError(errDecode).WithField("plan_id", id).Error("decode plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load plan failed"})
		return models.StudyPlan{}, false
	}
	plan.ID = snap.ID
	return plan, true
}
