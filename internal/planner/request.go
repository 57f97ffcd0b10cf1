package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
	"github.com/tidwall/gjson"
)

// ErrInvalidRequest reports a plan request missing a required field.
var ErrInvalidRequest = errors.New("planner: invalid request")

// Request is a study plan request as submitted by a client.
type Request struct {
	SubjectsCount int     `json:"subjectsCount"`
	Subjects      string  `json:"subjects"`
	ExamDate      string  `json:"examDate"`
	HoursPerDay   float64 `json:"hoursPerDay"`
	Difficulties  []int   `json:"difficulties,omitempty"`
	Difficulty    *int    `json:"difficulty,omitempty"`
	RevisionDays  int     `json:"revisionDays"`
	Pomodoro      int     `json:"pomodoro"`
	RestDays      int     `json:"restDays"`
}

// ParseRequest decodes a request body. Numeric fields may be sent as numbers
// or numeric strings.
func ParseRequest(body []byte) (Request, error) {
	if !gjson.ValidBytes(body) {
		return Request{}, fmt.Errorf("%w: body is not valid json", ErrInvalidRequest)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return Request{}, fmt.Errorf("%w: body must be an object", ErrInvalidRequest)
	}

	req := Request{
		SubjectsCount: int(root.Get("subjectsCount").Int()),
		Subjects:      root.Get("subjects").String(),
		ExamDate:      strings.TrimSpace(root.Get("examDate").String()),
		HoursPerDay:   root.Get("hoursPerDay").Float(),
		RevisionDays:  int(root.Get("revisionDays").Int()),
		Pomodoro:      int(root.Get("pomodoro").Int()),
		RestDays:      int(root.Get("restDays").Int()),
	}
	if diffs := root.Get("difficulties"); diffs.IsArray() {
		for _, d := range diffs.Array() {
			req.Difficulties = append(req.Difficulties, int(d.Int()))
		}
	}
	if single := root.Get("difficulty"); single.Exists() && single.Type != gjson.Null {
		value := int(single.Int())
		req.Difficulty = &value
	}
	if errValidate := req.Validate(); errValidate != nil {
		return Request{}, errValidate
	}
	return req, nil
}

// Validate checks that the fields needed to build a prompt are present.
func (r Request) Validate() error {
	if len(NormalizeSubjects(r.Subjects)) == 0 {
		return fmt.Errorf("%w: subjects are required", ErrInvalidRequest)
	}
	if _, errParse := r.ExamDay(); errParse != nil {
		return fmt.Errorf("%w: examDate must be YYYY-MM-DD", ErrInvalidRequest)
	}
	return nil
}

// ExamDay parses the exam date as a UTC calendar day.
func (r Request) ExamDay() (time.Time, error) {
	return time.Parse(timetable.DateLayout, strings.TrimSpace(r.ExamDate))
}

// NormalizeSubjects splits a comma-delimited subject list, trimming entries and
// dropping empty ones.
func NormalizeSubjects(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// SubjectDifficulties returns one difficulty per subject. Per-subject values
// win over the single difficulty; missing values default to 3 and everything
// is clamped to 1..5.
func (r Request) SubjectDifficulties(subjects []string) []int {
	out := make([]int, len(subjects))
	for i := range subjects {
		value := settings.DefaultDifficulty
		switch {
		case i < len(r.Difficulties):
			value = r.Difficulties[i]
		case r.Difficulty != nil:
			value = *r.Difficulty
		}
		out[i] = clampDifficulty(value)
	}
	return out
}

func clampDifficulty(v int) int {
	if v < settings.MinDifficulty {
		return settings.MinDifficulty
	}
	if v > settings.MaxDifficulty {
		return settings.MaxDifficulty
	}
	return v
}
