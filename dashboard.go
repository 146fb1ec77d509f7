package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rezmoss/callcountcli/internal/calllog"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#16A34A")).
			Padding(0, 3)
)

type keyMap struct {
	Log      key.Binding
	Chord    key.Binding
	Reset    key.Binding
	GoalUp   key.Binding
	GoalDown key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Log: key.NewBinding(
			key.WithKeys("enter", " ", "space"),
			key.WithHelp("enter", "+1 call"),
		),
		Chord: key.NewBinding(
			key.WithKeys("alt+C", "alt+c"),
			key.WithHelp("alt+shift+c", "log call"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset to today only"),
		),
		GoalUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+/-", "goal"),
		),
		GoalDown: key.NewBinding(
			key.WithKeys("-", "_"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "close"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Log, k.Chord, k.Reset, k.GoalUp, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type tickMsg time.Time

// logCallMsg is delivered by the external signal channel.
type logCallMsg struct{}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type dashboardModel struct {
	tracker  *calllog.Tracker
	interval time.Duration
	keys     keyMap
	help     help.Model
	progress progress.Model
	notice   string
	width    int
	height   int
}

func newDashboardModel(tracker *calllog.Tracker, interval time.Duration) dashboardModel {
	m := dashboardModel{
		tracker:  tracker,
		interval: interval,
		keys:     defaultKeyMap(),
		help:     help.New(),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.syncKeys()
	return m
}

// syncKeys shows the reset control only while there is something to reset.
func (m *dashboardModel) syncKeys() {
	m.keys.Reset.SetEnabled(len(m.tracker.Calls()) > 0)
}

func (m dashboardModel) Init() tea.Cmd {
	return tickCmd(m.interval)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	ctx := context.Background()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Log, m.keys.Chord):
			m.tracker.Append(ctx)
			m.notice = ""
		case key.Matches(msg, m.keys.Reset):
			removed := m.tracker.Reset(ctx)
			m.notice = fmt.Sprintf("Removed %d calls from earlier days", removed)
		case key.Matches(msg, m.keys.GoalUp):
			m.tracker.SetGoal(ctx, m.tracker.Goal()+1)
		case key.Matches(msg, m.keys.GoalDown):
			if g := m.tracker.Goal(); g > 1 {
				m.tracker.SetGoal(ctx, g-1)
			}
		}
		m.syncKeys()
	case logCallMsg:
		m.tracker.Append(ctx)
		m.notice = ""
		m.syncKeys()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(20, msg.Width-12)
	case tickMsg:
		return m, tickCmd(m.interval)
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	s := m.tracker.Snapshot()
	boxWidth := m.width - 4

	header := headerStyle.Width(m.width).Render(
		fmt.Sprintf("📞 Call Tracker - %s", s.Now.Format("Jan 2, 2006 15:04:05")),
	)
	hint := mutedStyle.Render("Alt+Shift+C to log")

	sinceStyle, countStyleNow := mutedStyle, mutedStyle
	if s.State == calllog.Active {
		sinceStyle, countStyleNow = activeStyle, countStyle
	}

	sinceBox := boxStyle.Width(boxWidth).Render(fmt.Sprintf(
		"🕐 SINCE LAST CALL\n\n%s",
		sinceStyle.Render(s.Since),
	))

	todayBox := boxStyle.Width(boxWidth).Render(fmt.Sprintf(
		"🔥 TODAY\n\n%s",
		countStyleNow.Render(fmt.Sprintf("%d", s.Today)),
	))

	goalBox := boxStyle.Width(boxWidth).Render(fmt.Sprintf(
		"🎯 DAILY GOAL\n\n%s %d%%\n%s",
		m.progress.ViewAs(float64(s.Progress.Percent)/100),
		s.Progress.Percent,
		goalLine(s.Progress),
	))

	button := buttonStyle.Render("+1 Call")

	var status []string
	if err := m.tracker.PersistErr(); err != nil {
		status = append(status, warnStyle.Render("⚠ not saved: "+err.Error()))
	}
	if m.notice != "" {
		status = append(status, mutedStyle.Render(m.notice))
	}

	parts := []string{header, hint, "", sinceBox, todayBox, goalBox, button, ""}
	parts = append(parts, status...)
	parts = append(parts, m.help.View(m.keys))
	full := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if h := lipgloss.Height(full); h < m.height {
		full += strings.Repeat("\n", m.height-h-1)
	}
	return full
}

func goalLine(p calllog.Progress) string {
	if p.Reached {
		return activeStyle.Render(fmt.Sprintf("Goal reached: %d of %d", p.Count, p.Goal))
	}
	return countStyle.Render(fmt.Sprintf("%d of %d, %d to go", p.Count, p.Goal, p.Remaining))
}
