package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
	log "github.com/sirupsen/logrus"
)

// ErrMissingAPIKey reports that no model credential is configured.
var ErrMissingAPIKey = errors.New("planner: missing model api key")

// Generator produces text from a prompt.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// DocumentAdder persists a new document and returns its ID.
type DocumentAdder interface {
	Add(ctx context.Context, collection string, data any) (string, error)
}

// Service turns plan requests into stored study plans.
type Service struct {
	gen   Generator
	docs  DocumentAdder
	model string
	now   func() time.Time
}

// NewService constructs a Service. A nil generator makes every call fail with
// ErrMissingAPIKey.
func NewService(gen Generator, docs DocumentAdder, model string) *Service {
	return &Service{gen: gen, docs: docs, model: model, now: time.Now}
}

// Configured reports whether the service has a model to call.
func (s *Service) Configured() bool {
	return s != nil && s.gen != nil
}

// Generate builds the prompt, calls the model once, validates the output, maps
// it onto calendar dates and stores the plan. It returns the new plan ID.
// Nothing is stored when any step fails.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if s == nil || s.gen == nil {
		return "", ErrMissingAPIKey
	}
	if errValidate := req.Validate(); errValidate != nil {
		return "", errValidate
	}

	subjects := NormalizeSubjects(req.Subjects)
	difficulties := req.SubjectDifficulties(subjects)
	examDay, _ := req.ExamDay()
	now := s.now()
	today := now.UTC().Format(timetable.DateLayout)
	if span := DaySpan(now, examDay); span > settings.MaxPlanDays {
		return "", fmt.Errorf("%w: examDate must be within %d days", ErrInvalidRequest, settings.MaxPlanDays)
	}
	dates := DatesBetween(now, examDay)

	prompt := BuildPrompt(PromptInput{
		Today:         today,
		Subjects:      subjects,
		SubjectsCount: req.SubjectsCount,
		ExamDate:      examDay.Format(timetable.DateLayout),
		HoursPerDay:   req.HoursPerDay,
		Difficulties:  difficulties,
		RevisionDays:  req.RevisionDays,
		Pomodoro:      req.Pomodoro,
		RestDays:      req.RestDays,
		DayCount:      len(dates),
	})

	text, errGen := s.gen.GenerateText(ctx, prompt)
	if errGen != nil {
		return "", fmt.Errorf("planner: generate: %w", errGen)
	}
	plan, errParse := ParsePlan(text)
	if errParse != nil {
		return "", errParse
	}

	byDate, sessions := MapToDates(plan.Timetable, dates)
	if len(plan.Timetable) != len(dates) {
		log.WithFields(log.Fields{
			"days":  len(plan.Timetable),
			"dates": len(dates),
		}).Warn("planner: day count does not match date range, surplus dropped")
	}

	doc := models.StudyPlan{
		Plan:            plan,
		TimetableByDate: byDate,
		SessionsByDate:  sessions,
		CreatedAt:       now.UTC(),
		Meta: models.PlanMeta{
			Subjects:     req.Subjects,
			SubjectList:  subjects,
			ExamDate:     examDay.Format(timetable.DateLayout),
			HoursPerDay:  req.HoursPerDay,
			Difficulties: difficulties,
			RevisionDays: req.RevisionDays,
			Pomodoro:     req.Pomodoro,
			RestDays:     req.RestDays,
			Model:        s.model,
		},
	}
	id, errAdd := s.docs.Add(ctx, settings.StudyPlansCollection, doc)
	if errAdd != nil {
		return "", fmt.Errorf("planner: store plan: %w", errAdd)
	}
	log.WithFields(log.Fields{
		"plan_id":  id,
		"subjects": len(subjects),
		"days":     len(byDate),
	}).Info("planner: study plan generated")
	return id, nil
}
