package timetable

import (
	"testing"

	"github.com/aurora-planner/aurora/internal/models"
)

func TestParseTask(t *testing.T) {
	cases := []struct {
		raw     string
		ok      bool
		subject string
		action  string
		minutes int
	}{
		{raw: "Math : Study (90 min)", ok: true, subject: "Math", action: "Study", minutes: 90},
		{raw: "Computer Science:Mock Test (120 mins)", ok: true, subject: "Computer Science", action: "Mock Test", minutes: 120},
		{raw: "  Biology :  Revision   (45 minutes) ", ok: true, subject: "Biology", action: "Revision", minutes: 45},
		{raw: "Chem : Practice (30 MIN)", ok: true, subject: "Chem", action: "Practice", minutes: 30},
		{raw: "Rest day", ok: false},
		{raw: "Math : Study", ok: false},
		{raw: " : Study (30 min)", ok: false},
		{raw: "Math : (30 min)", ok: false},
		{raw: "Math : Study (half an hour)", ok: false},
		{raw: "", ok: false},
	}
	for _, tc := range cases {
		task, ok := ParseTask(tc.raw)
		if ok != tc.ok {
			t.Fatalf("ParseTask(%q): expected ok=%v, got %v", tc.raw, tc.ok, ok)
		}
		if !ok {
			continue
		}
		if task.Subject != tc.subject || task.Action != tc.action || task.Minutes != tc.minutes {
			t.Fatalf("ParseTask(%q): unexpected task %+v", tc.raw, task)
		}
	}
}

func TestGroupDay_SumsAndSkipsMalformed(t *testing.T) {
	groups := GroupDay([]string{
		"Math : Study (30 min)",
		"garbage",
		"Physics : Practice (45 min)",
		"Math : Study (20 min)",
		"Math : Revision (10 min)",
	})
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Subject != "Math" || groups[0].Action != "Study" || groups[0].Minutes != 50 {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Subject != "Physics" || groups[1].Minutes != 45 {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
	if TotalMinutes(groups) != 105 {
		t.Fatalf("expected total=105, got %d", TotalMinutes(groups))
	}
}

func TestGroupDay_TotalIsOrderIndependent(t *testing.T) {
	a := []string{"A : Study (10 min)", "B : Practice (20 min)", "A : Study (5 min)", "bad"}
	b := []string{"bad", "A : Study (5 min)", "B : Practice (20 min)", "A : Study (10 min)"}
	if TotalMinutes(GroupDay(a)) != TotalMinutes(GroupDay(b)) {
		t.Fatalf("expected totals to match regardless of order")
	}
	if TotalMinutes(GroupDay(a)) != 35 {
		t.Fatalf("expected total=35, got %d", TotalMinutes(GroupDay(a)))
	}
}

func TestSortDays(t *testing.T) {
	got := SortDays([]string{"Day 10", "Day 2", "Bonus", "Day 1"})
	expected := []string{"Bonus", "Day 1", "Day 2", "Day 10"}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, got)
		}
	}

	dates := SortDays([]string{"2026-01-10", "2025-12-31", "2026-01-02"})
	if dates[0] != "2025-12-31" || dates[2] != "2026-01-10" {
		t.Fatalf("expected chronological order, got %v", dates)
	}

	mixed := SortDays([]string{"Day 1", "2026-01-01"})
	if mixed[0] != "2026-01-01" {
		t.Fatalf("expected dates before labels, got %v", mixed)
	}
}

func TestFormatMinutes(t *testing.T) {
	cases := map[int]string{0: "0m", 45: "45m", 60: "1h", 135: "2h 15m"}
	for in, want := range cases {
		if got := FormatMinutes(in); got != want {
			t.Fatalf("FormatMinutes(%d): expected %q, got %q", in, want, got)
		}
	}
}

func TestBuildDays(t *testing.T) {
	plan := models.StudyPlan{
		Plan: models.GeneratedPlan{
			Timetable: models.Timetable{
				{Label: "Day 2", Tasks: []string{"Rest"}},
				{Label: "Day 1", Tasks: []string{"Math : Study (60 min)"}},
				{Label: "Day 3", Tasks: []string{"Math : Revision (30 min)"}},
			},
			RevisionDays: []string{"Day 3"},
			RestDays:     []string{"Day 2"},
		},
		TimetableByDate: map[string][]string{
			"2026-05-03": {"Math : Revision (30 min)"},
			"2026-05-01": {"Math : Study (60 min)"},
			"2026-05-02": {"Rest"},
		},
		SessionsByDate: map[string][]models.Task{
			"2026-05-01": {{Subject: "Math", Action: "Study", Minutes: 60}},
		},
	}

	days := BuildDays(plan)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	if days[0].Key != "2026-05-01" || days[0].Label != "Day 1" || days[0].Total != "1h" {
		t.Fatalf("unexpected first day %+v", days[0])
	}
	if !days[1].Light || !days[1].RestDay {
		t.Fatalf("expected second day to be a marked light rest day, got %+v", days[1])
	}
	if !days[2].RevisionDay || days[2].TotalMinutes != 30 {
		t.Fatalf("expected third day to be a revision day, got %+v", days[2])
	}
}

func TestBuildDays_FallsBackToLabels(t *testing.T) {
	plan := models.StudyPlan{
		Plan: models.GeneratedPlan{
			Timetable: models.Timetable{
				{Label: "Day 2", Tasks: []string{"Chem : Practice (15 min)"}},
				{Label: "Day 1", Tasks: nil},
			},
		},
	}
	days := BuildDays(plan)
	if len(days) != 2 || days[0].Key != "Day 1" || !days[0].Light {
		t.Fatalf("unexpected days %+v", days)
	}
	if days[1].Groups[0].Subject != "Chem" {
		t.Fatalf("unexpected second day %+v", days[1])
	}
}
