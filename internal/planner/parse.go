package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/timetable"
	"github.com/tidwall/gjson"
)

// ErrInvalidAIResponse reports model output that does not match the plan schema.
var ErrInvalidAIResponse = errors.New("invalid AI response")

var dayLabelPattern = regexp.MustCompile(`(?i)^Day\s*\d+$`)

// StripCodeFence removes a leading ```json or ``` marker and a trailing ```.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// ParsePlan strips fences from model output and validates it as a plan:
// timetable must be an object of "Day N" keys mapping to string lists, and
// revisionDays, restDays and tips must be string lists when present.
func ParsePlan(text string) (models.GeneratedPlan, error) {
	raw := StripCodeFence(text)
	if !gjson.Valid(raw) {
		return models.GeneratedPlan{}, fmt.Errorf("%w: not valid json", ErrInvalidAIResponse)
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return models.GeneratedPlan{}, fmt.Errorf("%w: expected a json object", ErrInvalidAIResponse)
	}
	table := root.Get("timetable")
	if !table.Exists() || !table.IsObject() {
		return models.GeneratedPlan{}, fmt.Errorf("%w: missing timetable", ErrInvalidAIResponse)
	}

	var errLabel error
	seen := make(map[string]struct{})
	table.ForEach(func(key, _ gjson.Result) bool {
		if _, dup := seen[key.String()]; dup {
			errLabel = fmt.Errorf("%w: duplicate day label %q", ErrInvalidAIResponse, key.String())
			return false
		}
		seen[key.String()] = struct{}{}
		if !dayLabelPattern.MatchString(strings.TrimSpace(key.String())) {
			errLabel = fmt.Errorf("%w: unexpected day label %q", ErrInvalidAIResponse, key.String())
			return false
		}
		return true
	})
	if errLabel != nil {
		return models.GeneratedPlan{}, errLabel
	}

	for _, field := range []string{"revisionDays", "restDays", "tips"} {
		value := root.Get(field)
		if !value.Exists() || value.Type == gjson.Null {
			continue
		}
		if !value.IsArray() {
			return models.GeneratedPlan{}, fmt.Errorf("%w: %s must be a list", ErrInvalidAIResponse, field)
		}
		for _, item := range value.Array() {
			if item.Type != gjson.String {
				return models.GeneratedPlan{}, fmt.Errorf("%w: %s must contain text", ErrInvalidAIResponse, field)
			}
		}
	}

	var plan models.GeneratedPlan
	if errUnmarshal := json.Unmarshal([]byte(raw), &plan); errUnmarshal != nil {
		return models.GeneratedPlan{}, fmt.Errorf("%w: %v", ErrInvalidAIResponse, errUnmarshal)
	}
	if plan.RevisionDays == nil {
		plan.RevisionDays = []string{}
	}
	if plan.RestDays == nil {
		plan.RestDays = []string{}
	}
	if plan.Tips == nil {
		plan.Tips = []string{}
	}
	return plan, nil
}

// DatesBetween lists ISO dates from start through end inclusive, by UTC
// calendar day. It is empty when end is before start.
func DatesBetween(start, end time.Time) []string {
	from := calendarDay(start)
	to := calendarDay(end)
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(timetable.DateLayout))
	}
	return out
}

// DaySpan counts calendar days from start through end inclusive; 0 when end
// is before start.
func DaySpan(start, end time.Time) int {
	from := calendarDay(start)
	to := calendarDay(end)
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours()/24) + 1
}

func calendarDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// MapToDates orders days by their numeric label suffix (stable, so ties keep
// model order) and zips them with dates. Surplus days or dates are dropped.
// Structured sessions are returned alongside the raw strings for each date.
func MapToDates(table models.Timetable, dates []string) (map[string][]string, map[string][]models.Task) {
	ordered := append(models.Timetable(nil), table...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return timetable.DayNumber(ordered[i].Label) < timetable.DayNumber(ordered[j].Label)
	})

	n := len(ordered)
	if len(dates) < n {
		n = len(dates)
	}
	byDate := make(map[string][]string, n)
	sessions := make(map[string][]models.Task, n)
	for i := 0; i < n; i++ {
		tasks := ordered[i].Tasks
		if tasks == nil {
			tasks = []string{}
		}
		byDate[dates[i]] = tasks
		sessions[dates[i]] = timetable.ParseTasks(tasks)
	}
	return byDate, sessions
}
