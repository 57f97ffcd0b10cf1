// Package tui is the interactive checklist for working through a study plan.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aurora-planner/aurora/internal/models"
	"github.com/aurora-planner/aurora/internal/progress"
	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/aurora-planner/aurora/internal/timetable"
)

const barWidth = 30

// task is one selectable grouped row of the checklist.
type task struct {
	day     string
	subject string
	action  string
	minutes int
}

func (t task) key() string {
	return timetable.CompositeKey(t.day, t.subject, t.action)
}

// CelebrationDoneMsg ends the celebration started by the toggle numbered Seq.
type CelebrationDoneMsg struct {
	Seq int
}

type Model struct {
	plan    models.StudyPlan
	days    []timetable.DayView
	tasks   []task
	tracker *progress.Tracker
	quote   string

	keys   KeyMap
	help   help.Model
	cursor int

	celebrating    string
	celebrationSeq int
	err            error
	quitting       bool
	width          int
	height         int
}

// New builds a checklist over the grouped days of plan.
func New(plan models.StudyPlan, days []timetable.DayView, tracker *progress.Tracker, quote string) Model {
	var tasks []task
	for _, day := range days {
		for _, g := range day.Groups {
			tasks = append(tasks, task{day: day.Key, subject: g.Subject, action: g.Action, minutes: g.Minutes})
		}
	}
	return Model{
		plan:    plan,
		days:    days,
		tasks:   tasks,
		tracker: tracker,
		quote:   quote,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case CelebrationDoneMsg:
		if msg.Seq == m.celebrationSeq {
			m.celebrating = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.tasks)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			return m.toggle()
		}
	}
	return m, nil
}

func (m Model) toggle() (tea.Model, tea.Cmd) {
	if len(m.tasks) == 0 || m.tracker == nil {
		return m, nil
	}
	t := m.tasks[m.cursor]
	completed, err := m.tracker.Toggle(t.day, t.subject, t.action)
	m.err = err
	if err != nil || !completed {
		return m, nil
	}
	m.celebrationSeq++
	m.celebrating = t.day
	seq := m.celebrationSeq
	return m, tea.Tick(settings.CelebrationDuration, func(time.Time) tea.Msg {
		return CelebrationDoneMsg{Seq: seq}
	})
}

// Celebrating returns the day currently being celebrated, if any.
func (m Model) Celebrating() (string, bool) {
	return m.celebrating, m.celebrating != ""
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	title := "Study plan"
	if m.plan.Meta.ExamDate != "" {
		title = "Study plan until " + m.plan.Meta.ExamDate
	}
	b.WriteString(titleStyle.Render(title) + "\n")
	if m.tracker != nil {
		b.WriteString(progressBar(m.tracker.Percent()) + "\n")
	}
	if m.celebrating != "" {
		b.WriteString(celebrationStyle.Render(fmt.Sprintf("🎉 Day complete! %s is all done.", m.celebrating)) + "\n")
	}
	b.WriteString("\n")

	idx := 0
	for _, day := range m.days {
		header := day.Key
		if day.Label != "" && day.Label != day.Key {
			header = fmt.Sprintf("%s (%s)", day.Key, day.Label)
		}
		line := dayStyle.Render(header)
		if !day.Light {
			line += mutedStyle.Render("  " + day.Total)
		}
		b.WriteString(line + "\n")
		if day.Light {
			b.WriteString(mutedStyle.Render("    Rest or light review day") + "\n")
			continue
		}
		for range day.Groups {
			b.WriteString(m.renderTask(idx) + "\n")
			idx++
		}
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	if m.quote != "" {
		b.WriteString("\n" + quoteStyle.Render(m.quote) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) renderTask(idx int) string {
	t := m.tasks[idx]
	pointer := "  "
	if idx == m.cursor {
		pointer = cursorStyle.Render("> ")
	}
	text := fmt.Sprintf("%s: %s (%s)", t.subject, t.action, timetable.FormatMinutes(t.minutes))
	if m.tracker != nil && m.tracker.Done(t.key()) {
		return pointer + "[x] " + doneStyle.Render(text)
	}
	return pointer + "[ ] " + text
}

func progressBar(percent int) string {
	percent = max(0, min(percent, 100))
	filled := percent * barWidth / 100
	return fmt.Sprintf("%s%s %d%%",
		doneStyle.UnsetStrikethrough().Render(strings.Repeat("█", filled)),
		mutedStyle.Render(strings.Repeat("░", barWidth-filled)),
		percent,
	)
}
