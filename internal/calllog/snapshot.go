package calllog

import "time"

type State int

const (
	Empty State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "empty"
}

// Snapshot is everything the dashboard renders, computed for one instant.
type Snapshot struct {
	Now      time.Time
	State    State
	LastCall time.Time
	Since    string
	Total    int
	Today    int
	Progress Progress
}

func Derive(log Log, goal int, now time.Time) Snapshot {
	today := log.Today(now)
	s := Snapshot{
		Now:      now,
		State:    Empty,
		Since:    Placeholder,
		Total:    len(log),
		Today:    len(today),
		Progress: GoalProgress(len(today), goal),
	}
	if last, ok := log.Last(); ok {
		s.State = Active
		s.LastCall = last.Time().In(now.Location())
		s.Since = Elapsed(last.Timestamp, now.UnixMilli())
	}
	return s
}

type DayCount struct {
	Day      time.Time
	Calls    int
	Progress Progress
}

// CountByDay buckets the log into days consecutive calendar days from start.
func CountByDay(log Log, start time.Time, days, goal int) []DayCount {
	start = StartOfDay(start)
	out := make([]DayCount, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		n := len(log.Between(d, d.AddDate(0, 0, 1)))
		out = append(out, DayCount{Day: d, Calls: n, Progress: GoalProgress(n, goal)})
	}
	return out
}
