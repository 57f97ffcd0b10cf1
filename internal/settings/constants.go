package settings

import (
	"strings"
	"time"
)

// Document collections and defaults shared by the server and the terminal client.
const (
	// StudyPlansCollection holds generated plans.
	StudyPlansCollection = "studyPlans"
	// usersCollection is the parent of per-user collections.
	usersCollection = "users"
	// savedPlansSubcollection holds a user's saved plans.
	savedPlansSubcollection = "plans"
	// DefaultSavedPlanName is suggested when saving a plan.
	DefaultSavedPlanName = "My Study Plan"
	// DefaultDifficulty applies to subjects without an explicit difficulty.
	DefaultDifficulty = 3
	// MinDifficulty is the lowest accepted difficulty.
	MinDifficulty = 1
	// MaxDifficulty is the highest accepted difficulty.
	MaxDifficulty = 5
	// MaxPlanDays bounds the span from today through the exam date.
	MaxPlanDays = 366
	// ProgressKeyPrefix scopes persisted completion state to a plan.
	ProgressKeyPrefix = "aurora-progress-"
	// CelebrationDuration is how long a day-complete signal stays visible.
	CelebrationDuration = 3 * time.Second
	// AppName names the keyring service and config directories.
	AppName = "aurora"
)

// UserPlansCollection returns the saved-plans collection path for uid.
func UserPlansCollection(uid string) string {
	return usersCollection + "/" + strings.TrimSpace(uid) + "/" + savedPlansSubcollection
}

// ProgressKey returns the storage key for a plan's completion state.
func ProgressKey(planID string) string {
	return ProgressKeyPrefix + strings.TrimSpace(planID)
}

// MotivationalQuotes are shown alongside a rendered plan.
var MotivationalQuotes = []string{
	"Small steps every day forge the path to massive breakthroughs.",
	"Consistency creates the momentum that intensity can never match.",
	"Build a life today that your future self will be proud to inherit.",
	"Do not work until you are tired; work until you are finished.",
	"Do not let the fear of a long journey prevent you from taking the first step.",
}
