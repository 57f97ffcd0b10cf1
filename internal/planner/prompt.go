package planner

import (
	"fmt"
	"strconv"
	"strings"
)

// Actions are the only activity kinds a plan may contain.
var Actions = []string{"Study", "Practice", "Revision", "Mock Test"}

// PromptInput carries everything embedded in the generation prompt.
type PromptInput struct {
	Today         string
	Subjects      []string
	SubjectsCount int
	ExamDate      string
	HoursPerDay   float64
	Difficulties  []int
	RevisionDays  int
	Pomodoro      int
	RestDays      int
	DayCount      int // Calendar days from today through the exam date, inclusive.
}

// BuildPrompt renders the instruction text sent to the model.
func BuildPrompt(in PromptInput) string {
	count := in.SubjectsCount
	if count <= 0 {
		count = len(in.Subjects)
	}

	var sb strings.Builder
	sb.WriteString("You are an expert AI study planner.\n")
	fmt.Fprintf(&sb, "The current date (today) is %s.\n\n", in.Today)

	fmt.Fprintf(&sb, "Subjects: %s\n", strings.Join(in.Subjects, ", "))
	fmt.Fprintf(&sb, "Number of subjects: %d\n", count)
	fmt.Fprintf(&sb, "Exam date: %s\n", in.ExamDate)
	fmt.Fprintf(&sb, "Study hours per day: %s\n", strconv.FormatFloat(in.HoursPerDay, 'f', -1, 64))
	if len(in.Difficulties) > 0 {
		sb.WriteString("Subject difficulty (1 = easy, 5 = hard):\n")
		for i, subject := range in.Subjects {
			if i >= len(in.Difficulties) {
				break
			}
			fmt.Fprintf(&sb, "- %s: %d\n", subject, in.Difficulties[i])
		}
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Revision days before exam: %d\n", in.RevisionDays)
	fmt.Fprintf(&sb, "Pomodoro duration: %d minutes\n", in.Pomodoro)
	fmt.Fprintf(&sb, "Rest days per week: %d\n", in.RestDays)
	fmt.Fprintf(&sb, "Days available (today through exam date): %d\n\n", in.DayCount)

	sb.WriteString("STRICT RULES:\n")
	fmt.Fprintf(&sb, "- Produce exactly %d days labelled \"Day 1\" to \"Day %d\" in order\n", in.DayCount, in.DayCount)
	sb.WriteString("- Do NOT mention topics or chapters\n")
	fmt.Fprintf(&sb, "- Use ONLY: %s\n", strings.Join(Actions, ", "))
	sb.WriteString("- Write every task as \"Subject : Action (N min)\" with N in whole minutes\n")
	sb.WriteString("- Prioritize harder subjects\n")
	sb.WriteString("- Respect rest & revision days\n")
	sb.WriteString("- Output ONLY valid JSON\n\n")

	sb.WriteString("FORMAT:\n")
	sb.WriteString(`{
  "timetable": {
    "Day 1": ["Subject : Action (N min)"]
  },
  "revisionDays": ["Day X"],
  "restDays": ["Day Y"],
  "tips": ["Tip"]
}
`)
	return sb.String()
}
