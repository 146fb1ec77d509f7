package calllog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePersister struct {
	calls   Log
	goal    int
	saves   int
	failErr error
}

func (f *fakePersister) SaveCalls(_ context.Context, log Log) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.saves++
	f.calls = log.Clone()
	return nil
}

func (f *fakePersister) SaveGoal(_ context.Context, goal int) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.goal = goal
	return nil
}

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func TestTrackerAppend(t *testing.T) {
	ctx := context.Background()
	store := &fakePersister{}
	clock := &stepClock{t: at(2024, time.March, 10, 9, 0, 0), step: 1500 * time.Millisecond}
	tr := NewTracker(nil, DefaultGoal, store, WithClock(clock.now), WithLogger(zaptest.NewLogger(t)))

	const n = 5
	for i := 0; i < n; i++ {
		tr.Append(ctx)
	}

	calls := tr.Calls()
	require.Len(t, calls, n)
	for i := 1; i < n; i++ {
		assert.LessOrEqual(t, calls[i-1].Timestamp, calls[i].Timestamp)
	}
	assert.Equal(t, calls, store.calls, "every append is persisted")
	assert.Equal(t, n, store.saves)
	assert.NoError(t, tr.PersistErr())
}

func TestTrackerAppendSameMillisecond(t *testing.T) {
	fixed := at(2024, time.March, 10, 9, 0, 0)
	tr := NewTracker(nil, DefaultGoal, &fakePersister{}, WithClock(func() time.Time { return fixed }))

	tr.Append(context.Background())
	tr.Append(context.Background())

	assert.Len(t, tr.Calls(), 2, "triggers are never merged")
}

func TestTrackerAppendKeepsStateWhenSaveFails(t *testing.T) {
	store := &fakePersister{failErr: errors.New("quota exceeded")}
	tr := NewTracker(nil, DefaultGoal, store, WithLogger(zaptest.NewLogger(t)))

	r := tr.Append(context.Background())

	assert.Equal(t, Log{r}, tr.Calls())
	assert.EqualError(t, tr.PersistErr(), "quota exceeded")
	assert.Equal(t, Active, tr.Snapshot().State)

	store.failErr = nil
	tr.Append(context.Background())
	assert.NoError(t, tr.PersistErr())
	assert.Len(t, store.calls, 2, "next successful save carries the full log")
}

func TestTrackerReset(t *testing.T) {
	now := at(2024, time.March, 10, 0, 0, 10)
	yesterday := NewRecord(at(2024, time.March, 9, 23, 59, 59))
	older := NewRecord(at(2024, time.March, 1, 12, 0, 0))
	today := NewRecord(at(2024, time.March, 10, 0, 0, 5))
	store := &fakePersister{}
	tr := NewTracker(Log{older, yesterday, today}, DefaultGoal, store, WithClock(func() time.Time { return now }))

	removed := tr.Reset(context.Background())

	assert.Equal(t, 2, removed)
	assert.Equal(t, Log{today}, tr.Calls())
	assert.Equal(t, Log{today}, store.calls)
}

func TestTrackerResetToEmpty(t *testing.T) {
	now := at(2024, time.March, 10, 8, 0, 0)
	store := &fakePersister{}
	tr := NewTracker(Log{NewRecord(at(2024, time.March, 9, 8, 0, 0))}, DefaultGoal, store,
		WithClock(func() time.Time { return now }))
	require.Equal(t, Active, tr.Snapshot().State)

	tr.Reset(context.Background())

	s := tr.Snapshot()
	assert.Equal(t, Empty, s.State)
	assert.Equal(t, Placeholder, s.Since)
	assert.NotNil(t, store.calls)
	assert.Empty(t, store.calls)
}

func TestTrackerSetGoal(t *testing.T) {
	store := &fakePersister{}
	tr := NewTracker(nil, DefaultGoal, store)

	tr.SetGoal(context.Background(), 12)

	assert.Equal(t, 12, tr.Goal())
	assert.Equal(t, 12, store.goal)
	assert.Equal(t, 12, tr.Snapshot().Progress.Goal)
}

func TestNewTrackerCopiesLog(t *testing.T) {
	log := Log{{Timestamp: 1}}
	tr := NewTracker(log, DefaultGoal, &fakePersister{})

	log[0].Timestamp = 99
	calls := tr.Calls()
	calls[0].Timestamp = 42

	assert.Equal(t, int64(1), tr.Calls()[0].Timestamp)
}
