package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rezmoss/callcountcli/internal/calllog"
)

func printStatus(w io.Writer, s calllog.Snapshot) {
	fmt.Fprintf(w, "Since last call : %s\n", s.Since)
	if s.State == calllog.Active {
		fmt.Fprintf(w, "Last call       : %s\n", s.LastCall.Format("Jan 2, 2006 15:04:05"))
	}
	fmt.Fprintf(w, "Today           : %d\n", s.Today)
	fmt.Fprintf(w, "Daily goal      : %s\n", formatProgress(s.Progress))
}

func formatProgress(p calllog.Progress) string {
	if p.Reached {
		return fmt.Sprintf("%d%% of %d (reached)", p.Percent, p.Goal)
	}
	return fmt.Sprintf("%d%% of %d (%d to go)", p.Percent, p.Goal, p.Remaining)
}

func reportToday(w io.Writer, log calllog.Log, goal int, now time.Time) {
	today := log.Today(now)

	fmt.Fprintln(w, now.Format("Date : Jan 2, 2006 , Monday"))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-4s | %-10s | %s\n", "#", "Time", "Gap")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, r := range today {
		gap := calllog.Placeholder
		if i > 0 {
			gap = calllog.Elapsed(today[i-1].Timestamp, r.Timestamp)
		}
		fmt.Fprintf(w, "%-4d | %-10s | %s\n", i+1, r.Time().In(now.Location()).Format("15:04:05"), gap)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Total calls today : %d\n", len(today))
	fmt.Fprintf(w, "Daily goal progress: %s\n", formatProgress(calllog.GoalProgress(len(today), goal)))
}

// reportAggregateDaily prints one row per day and the range total against
// goal times the number of days.
func reportAggregateDaily(w io.Writer, log calllog.Log, goal int, start time.Time, days int, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-15s | %-6s | %s\n", "Date", "Calls", "Goal")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	total := 0
	for _, d := range calllog.CountByDay(log, start, days, goal) {
		total += d.Calls
		fmt.Fprintf(w, "%-15s | %-6d | %d%%\n", d.Day.Format("2006-01-02"), d.Calls, d.Progress.Percent)
	}
	fmt.Fprintln(w, strings.Repeat("-", 50))
	noun := "range"
	lower := strings.ToLower(title)
	if strings.Contains(lower, "week") {
		noun = "week"
	}
	if strings.Contains(lower, "month") {
		noun = "month"
	}
	fmt.Fprintf(w, "Total calls %s : %d\n", noun, total)
	fmt.Fprintf(w, "Goal progress: %s\n", formatProgress(calllog.GoalProgress(total, goal*days)))
}

func report(w io.Writer, log calllog.Log, goal int, rng string, now time.Time) error {
	switch rng {
	case "today":
		reportToday(w, log, goal, now)
	case "week":
		// ISO week: Monday start
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := calllog.StartOfDay(now).AddDate(0, 0, -(weekday - 1))
		reportAggregateDaily(w, log, goal, start, 7, fmt.Sprintf("for week starting %s", start.Format("2006-01-02")))
	case "month":
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		days := start.AddDate(0, 1, -1).Day()
		reportAggregateDaily(w, log, goal, start, days, fmt.Sprintf("for month %s", start.Format("2006-01")))
	default:
		return fmt.Errorf("unknown range %q (want today, week or month)", rng)
	}
	return nil
}
