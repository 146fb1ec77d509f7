// Package calllog holds the call log, the daily goal and the values derived
// from them for display.
package calllog

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultGoal = 80
	Placeholder = "--"
)

// Record is one logged call. Timestamp is milliseconds since the Unix epoch.
type Record struct {
	Timestamp int64 `json:"timestamp"`
}

func NewRecord(t time.Time) Record { return Record{Timestamp: t.UnixMilli()} }

func (r Record) Time() time.Time { return time.UnixMilli(r.Timestamp) }

// Log is kept in insertion order. Timestamps are stored as captured, so a
// clock moved backward between two appends leaves them out of order.
type Log []Record

func (l Log) Last() (Record, bool) {
	if len(l) == 0 {
		return Record{}, false
	}
	return l[len(l)-1], true
}

// Today returns the records whose calendar date, in now's location, is now's date.
func (l Log) Today(now time.Time) Log {
	out := Log{}
	for _, r := range l {
		if SameDay(r.Time().In(now.Location()), now) {
			out = append(out, r)
		}
	}
	return out
}

// Between returns the records with start <= time < end.
func (l Log) Between(start, end time.Time) Log {
	out := Log{}
	for _, r := range l {
		t := r.Time()
		if !t.Before(start) && t.Before(end) {
			out = append(out, r)
		}
	}
	return out
}

func (l Log) Clone() Log {
	out := make(Log, len(l))
	copy(out, l)
	return out
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Elapsed renders the time from then to now, both in milliseconds.
func Elapsed(then, now int64) string {
	s := (now - then) / 1000
	if s < 0 {
		s = 0
	}
	switch {
	case s < 60:
		return fmt.Sprintf("%ds", s)
	case s < 3600:
		return fmt.Sprintf("%dm", s/60)
	default:
		return fmt.Sprintf("%dh %dm", s/3600, (s/60)%60)
	}
}

type Progress struct {
	Count     int
	Goal      int
	Percent   int
	Remaining int
	Reached   bool
}

// GoalProgress compares count against goal. A goal of zero or less counts as
// already reached.
func GoalProgress(count, goal int) Progress {
	p := Progress{Count: count, Goal: goal}
	if goal <= 0 {
		p.Percent = 100
		p.Reached = true
		return p
	}
	p.Percent = int(math.Round(100 * float64(count) / float64(goal)))
	if p.Percent > 100 {
		p.Percent = 100
	}
	if count < goal {
		p.Remaining = goal - count
	}
	p.Reached = count >= goal
	return p
}
