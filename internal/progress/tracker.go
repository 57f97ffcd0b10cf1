// Package progress tracks which grouped tasks of a plan are done.
package progress

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
)

// Celebration marks a day whose tasks just became all complete.
type Celebration struct {
	Day   string
	Until time.Time
}

// Tracker holds the completion map of one plan.
type Tracker struct {
	mu          sync.Mutex
	key         string
	days        []timetable.DayView
	state       map[string]bool
	store       Store
	now         func() time.Time
	celebration *Celebration
}

// NewTracker loads the persisted state for planID.
func NewTracker(planID string, days []timetable.DayView, store Store) (*Tracker, error) {
	key := settings.ProgressKey(planID)
	state, err := store.Load(key)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = map[string]bool{}
	}
	return &Tracker{
		key:   key,
		days:  days,
		state: state,
		store: store,
		now:   time.Now,
	}, nil
}

// Keys returns every completion key derivable from the plan, in display order.
func Keys(days []timetable.DayView) []string {
	var keys []string
	for _, day := range days {
		keys = append(keys, dayKeys(day)...)
	}
	return keys
}

func dayKeys(day timetable.DayView) []string {
	keys := make([]string, 0, len(day.Groups))
	for _, g := range day.Groups {
		keys = append(keys, timetable.CompositeKey(day.Key, g.Subject, g.Action))
	}
	return keys
}

// Percent is round(100 * completed / total) over keys; 0 when keys is empty.
func Percent(keys []string, state map[string]bool) int {
	if len(keys) == 0 {
		return 0
	}
	done := 0
	for _, k := range keys {
		if state[k] {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(keys))))
}

// Done reports whether a key is complete.
func (t *Tracker) Done(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state[key]
}

// Percent returns the completion percentage of the whole plan.
func (t *Tracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Percent(Keys(t.days), t.state)
}

// DayComplete reports whether every task of day is done. Days without tasks
// are never complete.
func (t *Tracker) DayComplete(day string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	view, ok := t.findDay(day)
	return ok && t.dayCompleteLocked(view)
}

func (t *Tracker) findDay(day string) (timetable.DayView, bool) {
	for _, d := range t.days {
		if d.Key == day {
			return d, true
		}
	}
	return timetable.DayView{}, false
}

func (t *Tracker) dayCompleteLocked(day timetable.DayView) bool {
	keys := dayKeys(day)
	if len(keys) == 0 {
		return false
	}
	for _, k := range keys {
		if !t.state[k] {
			return false
		}
	}
	return true
}

// Toggle flips one task, persists the whole map and reports whether its day
// became complete with this toggle. A completed day starts a celebration that
// expires after settings.CelebrationDuration.
func (t *Tracker) Toggle(day, subject, action string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	view, ok := t.findDay(day)
	if !ok {
		return false, fmt.Errorf("progress: unknown day %q", day)
	}
	key := timetable.CompositeKey(day, subject, action)
	known := false
	for _, k := range dayKeys(view) {
		if k == key {
			known = true
			break
		}
	}
	if !known {
		return false, fmt.Errorf("progress: unknown task %q", key)
	}

	wasComplete := t.dayCompleteLocked(view)
	t.state[key] = !t.state[key]
	if errSave := t.store.Save(t.key, t.state); errSave != nil {
		t.state[key] = !t.state[key]
		return false, errSave
	}

	completed := !wasComplete && t.dayCompleteLocked(view)
	if completed {
		t.celebration = &Celebration{Day: day, Until: t.now().Add(settings.CelebrationDuration)}
	}
	return completed, nil
}

// ActiveCelebration returns the current celebration, clearing it once expired.
func (t *Tracker) ActiveCelebration() (Celebration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.celebration == nil {
		return Celebration{}, false
	}
	if !t.now().Before(t.celebration.Until) {
		t.celebration = nil
		return Celebration{}, false
	}
	return *t.celebration, true
}
