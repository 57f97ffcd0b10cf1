package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
)

func sampleDays() []timetable.DayView {
	return timetable.BuildDaysFromDates(map[string][]string{
		"2026-04-01": {"Math : Study (30 min)", "Physics : Practice (20 min)", "Math : Study (10 min)"},
		"2026-04-02": {"Rest"},
		"2026-04-03": {"Math : Revision (45 min)"},
	})
}

func TestPercent(t *testing.T) {
	if got := Percent(nil, map[string]bool{"x": true}); got != 0 {
		t.Fatalf("expected 0 for empty key set, got %d", got)
	}
	keys := []string{"a", "b", "c"}
	state := map[string]bool{}
	last := 0
	for _, k := range keys {
		state[k] = true
		got := Percent(keys, state)
		if got < last {
			t.Fatalf("expected monotone percentage, got %d after %d", got, last)
		}
		last = got
	}
	if last != 100 {
		t.Fatalf("expected 100 when all complete, got %d", last)
	}
	if got := Percent(keys, map[string]bool{"a": true}); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
	if got := Percent(keys, map[string]bool{"a": true, "b": true}); got != 67 {
		t.Fatalf("expected 67, got %d", got)
	}
}

func TestTracker_DayCompleteCelebratesOnce(t *testing.T) {
	store := NewFileStore(t.TempDir())
	tracker, err := NewTracker("plan-1", sampleDays(), store)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	completed, err := tracker.Toggle("2026-04-01", "Math", "Study")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if completed {
		t.Fatalf("expected day to stay incomplete after first task")
	}
	if _, ok := tracker.ActiveCelebration(); ok {
		t.Fatalf("expected no celebration yet")
	}

	completed, err = tracker.Toggle("2026-04-01", "Physics", "Practice")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !completed {
		t.Fatalf("expected day to complete with the last task")
	}
	celebration, ok := tracker.ActiveCelebration()
	if !ok || celebration.Day != "2026-04-01" {
		t.Fatalf("expected celebration for 2026-04-01, got %+v", celebration)
	}
	if !tracker.DayComplete("2026-04-01") {
		t.Fatalf("expected DayComplete to report true")
	}

	now = now.Add(settings.CelebrationDuration)
	if _, ok := tracker.ActiveCelebration(); ok {
		t.Fatalf("expected celebration to clear after %s", settings.CelebrationDuration)
	}
	if got := tracker.Percent(); got != 67 {
		t.Fatalf("expected 67%%, got %d", got)
	}
}

func TestTracker_PersistsAcrossInstances(t *testing.T) {
	store := NewFileStore(t.TempDir())
	first, err := NewTracker("plan-2", sampleDays(), store)
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if _, errToggle := first.Toggle("2026-04-03", "Math", "Revision"); errToggle != nil {
		t.Fatalf("toggle: %v", errToggle)
	}

	second, err := NewTracker("plan-2", sampleDays(), store)
	if err != nil {
		t.Fatalf("reload tracker: %v", err)
	}
	if !second.Done(timetable.CompositeKey("2026-04-03", "Math", "Revision")) {
		t.Fatalf("expected completion to survive reload")
	}

	other, err := NewTracker("plan-3", sampleDays(), store)
	if err != nil {
		t.Fatalf("other tracker: %v", err)
	}
	if other.Percent() != 0 {
		t.Fatalf("expected state to be scoped per plan")
	}
}

func TestTracker_ToggleUnknownTask(t *testing.T) {
	tracker, err := NewTracker("plan-4", sampleDays(), NewFileStore(t.TempDir()))
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if _, errToggle := tracker.Toggle("2026-04-02", "Rest", "Study"); errToggle == nil {
		t.Fatalf("expected error for task on a rest day")
	}
	if _, errToggle := tracker.Toggle("2030-01-01", "Math", "Study"); errToggle == nil {
		t.Fatalf("expected error for unknown day")
	}
	if tracker.DayComplete("2026-04-02") {
		t.Fatalf("expected a day without tasks to never be complete")
	}
}

type failingStore struct{}

func (failingStore) Load(string) (map[string]bool, error) { return map[string]bool{}, nil }
func (failingStore) Save(string, map[string]bool) error   { return errors.New("disk full") }

func TestTracker_ToggleRollsBackOnSaveError(t *testing.T) {
	tracker, err := NewTracker("plan-5", sampleDays(), failingStore{})
	if err != nil {
		t.Fatalf("new tracker: %v", err)
	}
	if _, errToggle := tracker.Toggle("2026-04-03", "Math", "Revision"); errToggle == nil {
		t.Fatalf("expected save error")
	}
	if tracker.Percent() != 0 {
		t.Fatalf("expected state rollback after failed save")
	}
}
