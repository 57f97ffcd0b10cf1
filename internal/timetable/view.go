package timetable

import "github.com/aurora-planner/aurora/internal/models"

// DayView is one rendered day of a plan.
type DayView struct {
	Key          string  `json:"key"`             // ISO date, or the day label when no date is mapped.
	Label        string  `json:"label,omitempty"` // Day label the date was mapped from.
	Groups       []Group `json:"groups"`
	TotalMinutes int     `json:"totalMinutes"`
	Total        string  `json:"total"`
	Light        bool    `json:"light"` // No parsable tasks.
	RevisionDay  bool    `json:"revisionDay"`
	RestDay      bool    `json:"restDay"`
}

// BuildDays derives the ordered day views of a stored plan. Structured
// sessions are preferred over the raw strings for a date when present.
// Plans without a date mapping fall back to the labelled timetable.
func BuildDays(plan models.StudyPlan) []DayView {
	labels := SortDays(plan.Plan.Timetable.Labels())
	revision := toSet(plan.Plan.RevisionDays)
	rest := toSet(plan.Plan.RestDays)

	if len(plan.TimetableByDate) == 0 {
		byLabel := make(map[string][]string, len(plan.Plan.Timetable))
		for _, day := range plan.Plan.Timetable {
			byLabel[day.Label] = append(byLabel[day.Label], day.Tasks...)
		}
		out := make([]DayView, 0, len(labels))
		for _, label := range labels {
			out = append(out, newDayView(label, label, GroupDay(byLabel[label]), revision, rest))
		}
		return out
	}

	dates := make([]string, 0, len(plan.TimetableByDate))
	for date := range plan.TimetableByDate {
		dates = append(dates, date)
	}
	dates = SortDays(dates)

	out := make([]DayView, 0, len(dates))
	for i, date := range dates {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		var groups []Group
		if sessions, ok := plan.SessionsByDate[date]; ok {
			groups = GroupTasks(sessions)
		} else {
			groups = GroupDay(plan.TimetableByDate[date])
		}
		out = append(out, newDayView(date, label, groups, revision, rest))
	}
	return out
}

// BuildDaysFromDates derives day views from a bare date-keyed timetable, as
// carried by saved plans.
func BuildDaysFromDates(byDate map[string][]string) []DayView {
	return BuildDays(models.StudyPlan{TimetableByDate: byDate})
}

func newDayView(key, label string, groups []Group, revision, rest map[string]struct{}) DayView {
	if groups == nil {
		groups = []Group{}
	}
	total := TotalMinutes(groups)
	_, isRevision := revision[label]
	_, isRest := rest[label]
	return DayView{
		Key:          key,
		Label:        label,
		Groups:       groups,
		TotalMinutes: total,
		Total:        FormatMinutes(total),
		Light:        len(groups) == 0,
		RevisionDay:  label != "" && isRevision,
		RestDay:      label != "" && isRest,
	}
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}
