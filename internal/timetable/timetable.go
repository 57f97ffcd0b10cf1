// Package timetable derives display structures from stored study plans.
package timetable

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/models"
)

// DateLayout is the ISO calendar date format used for timetable keys.
const DateLayout = "2006-01-02"

var (
	actionPattern    = regexp.MustCompile(`(?i)^(.*?)\s*\((\d+)\s*min[a-z]*\)\s*$`)
	dayNumberPattern = regexp.MustCompile(`(\d+)\s*$`)
)

// ParseTask parses "<Subject> : <Action> (<N> min)". Entries that do not match
// report false.
func ParseTask(raw string) (models.Task, bool) {
	subject, rest, found := strings.Cut(raw, ":")
	if !found {
		return models.Task{}, false
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return models.Task{}, false
	}
	match := actionPattern.FindStringSubmatch(strings.TrimSpace(rest))
	if match == nil {
		return models.Task{}, false
	}
	action := strings.TrimSpace(match[1])
	if action == "" {
		return models.Task{}, false
	}
	minutes, errAtoi := strconv.Atoi(match[2])
	if errAtoi != nil {
		return models.Task{}, false
	}
	return models.Task{Subject: subject, Action: action, Minutes: minutes}, true
}

// ParseTasks parses every well-formed entry and drops the rest.
func ParseTasks(raw []string) []models.Task {
	out := make([]models.Task, 0, len(raw))
	for _, entry := range raw {
		if task, ok := ParseTask(entry); ok {
			out = append(out, task)
		}
	}
	return out
}

// DayNumber returns the trailing integer of a day label, or 0 when there is none.
func DayNumber(label string) int {
	match := dayNumberPattern.FindStringSubmatch(label)
	if match == nil {
		return 0
	}
	n, errAtoi := strconv.Atoi(match[1])
	if errAtoi != nil {
		return 0
	}
	return n
}

// SortDays orders day keys. ISO dates sort chronologically and come before
// labels; labels sort by numeric suffix. Ties keep their input order.
func SortDays(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		di, errI := time.Parse(DateLayout, out[i])
		dj, errJ := time.Parse(DateLayout, out[j])
		switch {
		case errI == nil && errJ == nil:
			return di.Before(dj)
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return DayNumber(out[i]) < DayNumber(out[j])
		}
	})
	return out
}

// Group is the total time for one subject and action within a day.
type Group struct {
	Subject string `json:"subject"`
	Action  string `json:"action"`
	Minutes int    `json:"minutes"`
}

// GroupTasks sums minutes per (subject, action) in first-seen order.
func GroupTasks(tasks []models.Task) []Group {
	index := make(map[[2]string]int, len(tasks))
	out := make([]Group, 0, len(tasks))
	for _, task := range tasks {
		key := [2]string{task.Subject, task.Action}
		if i, ok := index[key]; ok {
			out[i].Minutes += task.Minutes
			continue
		}
		index[key] = len(out)
		out = append(out, Group{Subject: task.Subject, Action: task.Action, Minutes: task.Minutes})
	}
	return out
}

// GroupDay parses raw task strings and groups them.
func GroupDay(raw []string) []Group {
	return GroupTasks(ParseTasks(raw))
}

// TotalMinutes sums the minutes of all groups.
func TotalMinutes(groups []Group) int {
	total := 0
	for _, g := range groups {
		total += g.Minutes
	}
	return total
}

// FormatMinutes renders minutes as "Xh Ym", "Xh" or "Ym".
func FormatMinutes(minutes int) string {
	if minutes <= 0 {
		return "0m"
	}
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// CompositeKey identifies one grouped task within a plan.
func CompositeKey(day, subject, action string) string {
	return day + "|" + subject + "|" + action
}
