package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// DayEntry is one labelled day of a generated timetable.
type DayEntry struct {
	Label string
	Tasks []string
}

// Timetable holds day entries in the order the model emitted them.
// It encodes as a JSON object keyed by day label.
type Timetable []DayEntry

// MarshalJSON encodes the timetable as an ordered JSON object.
func (t Timetable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, errKey := json.Marshal(day.Label)
		if errKey != nil {
			return nil, errKey
		}
		tasks := day.Tasks
		if tasks == nil {
			tasks = []string{}
		}
		value, errValue := json.Marshal(tasks)
		if errValue != nil {
			return nil, errValue
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of string arrays, keeping key order.
// A repeated key keeps its first position and its last value.
func (t *Timetable) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("timetable: invalid json")
	}
	parsed := gjson.ParseBytes(data)
	if parsed.Type == gjson.Null {
		*t = nil
		return nil
	}
	if !parsed.IsObject() {
		return fmt.Errorf("timetable: expected object")
	}
	var out Timetable
	index := make(map[string]int)
	var errParse error
	parsed.ForEach(func(key, value gjson.Result) bool {
		if !value.IsArray() {
			errParse = fmt.Errorf("timetable: day %q is not a list", key.String())
			return false
		}
		tasks := make([]string, 0, len(value.Array()))
		for _, item := range value.Array() {
			if item.Type != gjson.String {
				errParse = fmt.Errorf("timetable: day %q has a non-text task", key.String())
				return false
			}
			tasks = append(tasks, item.String())
		}
		if i, ok := index[key.String()]; ok {
			out[i].Tasks = tasks
			return true
		}
		index[key.String()] = len(out)
		out = append(out, DayEntry{Label: key.String(), Tasks: tasks})
		return true
	})
	if errParse != nil {
		return errParse
	}
	*t = out
	return nil
}

// Labels returns the day labels in stored order.
func (t Timetable) Labels() []string {
	labels := make([]string, 0, len(t))
	for _, day := range t {
		labels = append(labels, day.Label)
	}
	return labels
}

// Task is a normalized study session.
type Task struct {
	Subject string `json:"subject"`
	Action  string `json:"action"`
	Minutes int    `json:"minutes"`
}

// GeneratedPlan is the plan object returned by the generative model.
type GeneratedPlan struct {
	Timetable    Timetable `json:"timetable"`
	RevisionDays []string  `json:"revisionDays"`
	RestDays     []string  `json:"restDays"`
	Tips         []string  `json:"tips"`
}

// PlanMeta records the request a plan was generated from.
type PlanMeta struct {
	Subjects     string   `json:"subjects"`
	SubjectList  []string `json:"subjectList"`
	ExamDate     string   `json:"examDate"`
	HoursPerDay  float64  `json:"hoursPerDay"`
	Difficulties []int    `json:"difficulties"`
	RevisionDays int      `json:"revisionDays"`
	Pomodoro     int      `json:"pomodoro"`
	RestDays     int      `json:"restDays"`
	Model        string   `json:"model,omitempty"`
}

// StudyPlan is a generated plan document in the studyPlans collection.
type StudyPlan struct {
	ID              string              `json:"id,omitempty"`
	Plan            GeneratedPlan       `json:"plan"`
	TimetableByDate map[string][]string `json:"timetableByDate"`
	SessionsByDate  map[string][]Task   `json:"sessionsByDate,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	Meta            PlanMeta            `json:"meta"`
}

// SavedPlan is a named copy of a study plan owned by a user.
type SavedPlan struct {
	ID              string              `json:"id,omitempty"`
	Name            string              `json:"name"`
	OriginalPlanID  string              `json:"originalPlanId"`
	TimetableByDate map[string][]string `json:"timetableByDate"`
	Tips            []string            `json:"tips,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}
