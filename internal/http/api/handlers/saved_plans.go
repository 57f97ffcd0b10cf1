package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/store"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// SavedPlanHandler manages the signed-in user's saved plans.
type SavedPlanHandler struct {
	docs DocumentStore
}

// NewSavedPlanHandler constructs a SavedPlanHandler.
func NewSavedPlanHandler(docs DocumentStore) *SavedPlanHandler {
	return &SavedPlanHandler{docs: docs}
}

// savePlanRequest defines the request body for saving a plan.
type savePlanRequest struct {
	Name           string `json:"name"`
	OriginalPlanID string `json:"originalPlanId"`
}

// Create copies a stored plan into the user's collection under a name.
func (h *SavedPlanHandler) Create(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var body savePlanRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plan name is required"})
		return
	}
	originalID := strings.TrimSpace(body.OriginalPlanID)

	ctx := c.Request.Context()
	snap, errGet := h.docs.Get(ctx, settings.StudyPlansCollection, originalID)
	if errGet != nil {
		if errors.Is(errGet, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		log.WithError(errGet).Error("save plan: load original failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save plan failed"})
		return
	}
	var original models.StudyPlan
	if errDecode := snap.Decode(&original); errDecode != nil {
		log.WithError(errDecode).Error("save plan: decode original failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save plan failed"})
		return
	}

	saved := models.SavedPlan{
		Name:            name,
		OriginalPlanID:  snap.ID,
		TimetableByDate: original.TimetableByDate,
		Tips:            original.Plan.Tips,
	}
	if saved.TimetableByDate == nil {
		saved.TimetableByDate = map[string][]string{}
	}
	collection := settings.UserPlansCollection(user.ID)
	id, errAdd := h.docs.Add(ctx, collection, saved)
	if errAdd != nil {
		log.WithError(errAdd).Error("save plan: write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save plan failed"})
		return
	}
	stored, errReload := h.docs.Get(ctx, collection, id)
	if errReload != nil {
		log.WithError(errReload).Error("save plan: reload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save plan failed"})
		return
	}
	out, errOut := savedPlanOf(stored)
	if errOut != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save plan failed"})
		return
	}
	c.JSON(http.StatusCreated, out)
}

// List returns the user's saved plans, newest first. The search query
// filters by name.
func (h *SavedPlanHandler) List(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	snaps, errList := h.docs.List(c.Request.Context(), settings.UserPlansCollection(user.ID), store.Query{
		Descending: true,
		MatchField: "name",
		MatchText:  strings.TrimSpace(c.Query("search")),
	})
	if errList != nil {
		log.WithError(errList).Error("list saved plans failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list plans failed"})
		return
	}
	out := make([]models.SavedPlan, 0, len(snaps))
	for _, snap := range snaps {
		plan, errDecode := savedPlanOf(snap)
		if errDecode != nil {
			log.WithError(errDecode).WithField("plan_id", snap.ID).Warn("skip undecodable saved plan")
			continue
		}
		out = append(out, plan)
	}
	c.JSON(http.StatusOK, gin.H{"plans": out})
}

// Delete removes one of the user's saved plans.
func (h *SavedPlanHandler) Delete(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	errDelete := h.docs.Delete(c.Request.Context(), settings.UserPlansCollection(user.ID), c.Param("id"))
	if errDelete != nil {
		if errors.Is(errDelete, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
			return
		}
		log.WithError(errDelete).Error("delete saved plan failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete plan failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func savedPlanOf(snap store.Snapshot) (models.SavedPlan, error) {
	var plan models.SavedPlan
	if errDecode := snap.Decode(&plan); errDecode != nil {
		return models.SavedPlan{}, errDecode
	}
	plan.ID = snap.ID
	return plan, nil
}
