package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/progress"
	"github.com/aurora-planner/aurora/internal/timetable"
)

const progressBarWidth = 20

// renderPlan writes the plan as grouped days with completion marks.
func renderPlan(w io.Writer, plan models.StudyPlan, days []timetable.DayView, tracker *progress.Tracker, quote string) {
	title := "Study plan"
	if plan.Meta.ExamDate != "" {
		title = fmt.Sprintf("Study plan until %s", plan.Meta.ExamDate)
	}
	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, mutedStyle.Render("id: "+plan.ID))
	if tracker != nil {
		fmt.Fprintln(w, renderProgress(tracker.Percent()))
	}
	fmt.Fprintln(w)

	for _, day := range days {
		renderDay(w, day, tracker)
	}

	if len(plan.Plan.Tips) > 0 {
		fmt.Fprintln(w, dayHeaderStyle.Render("Tips"))
		for _, tip := range plan.Plan.Tips {
			fmt.Fprintf(w, "  • %s\n", tip)
		}
		fmt.Fprintln(w)
	}
	if quote != "" {
		fmt.Fprintln(w, quoteStyle.Render(quote))
	}
}

func renderDay(w io.Writer, day timetable.DayView, tracker *progress.Tracker) {
	header := day.Key
	if day.Label != "" && day.Label != day.Key {
		header = fmt.Sprintf("%s (%s)", day.Key, day.Label)
	}
	var badges []string
	if day.RevisionDay {
		badges = append(badges, badgeStyle.Render("revision"))
	}
	if day.RestDay {
		badges = append(badges, badgeStyle.Render("rest"))
	}
	if tracker != nil && tracker.DayComplete(day.Key) {
		badges = append(badges, celebrationStyle.Render("✓ done"))
	}
	line := dayHeaderStyle.Render(header)
	if !day.Light {
		line += mutedStyle.Render("  " + day.Total)
	}
	if len(badges) > 0 {
		line += "  " + strings.Join(badges, " ")
	}
	fmt.Fprintln(w, line)

	if day.Light {
		fmt.Fprintln(w, mutedStyle.Render("  Rest or light review day"))
		fmt.Fprintln(w)
		return
	}
	for _, g := range day.Groups {
		done := tracker != nil && tracker.Done(timetable.CompositeKey(day.Key, g.Subject, g.Action))
		text := fmt.Sprintf("%s: %s (%s)", g.Subject, g.Action, timetable.FormatMinutes(g.Minutes))
		if done {
			fmt.Fprintf(w, "  [x] %s\n", doneStyle.Render(text))
		} else {
			fmt.Fprintf(w, "  [ ] %s\n", text)
		}
	}
	fmt.Fprintln(w)
}

func renderProgress(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * progressBarWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled)
	return fmt.Sprintf("%s %d%% complete", bar, percent)
}

func renderNotFound(w io.Writer, id string) {
	fmt.Fprintln(w, errorStyle.Render("Plan not found"))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("No study plan exists with id %q.", id)))
}

func renderSavedPlans(w io.Writer, plans []models.SavedPlan) {
	if len(plans) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No saved plans yet."))
		return
	}
	for _, p := range plans {
		days := timetable.BuildDaysFromDates(p.TimetableByDate)
		span := ""
		if len(days) > 0 {
			span = fmt.Sprintf("%s → %s", days[0].Key, days[len(days)-1].Key)
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			titleStyle.Render(p.Name),
			mutedStyle.Render(p.ID),
			span,
		)
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  saved %s from plan %s", p.CreatedAt.Format("2006-01-02 15:04"), p.OriginalPlanID)))
	}
}
