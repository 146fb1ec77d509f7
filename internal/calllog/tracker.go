package calllog

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Persister is the durable copy of the log and goal.
type Persister interface {
	SaveCalls(ctx context.Context, log Log) error
	SaveGoal(ctx context.Context, goal int) error
}

// Tracker owns the in-memory log and goal. It is not safe for concurrent use;
// one event loop drives it.
type Tracker struct {
	log     Log
	goal    int
	store   Persister
	now     func() time.Time
	logger  *zap.Logger
	saveErr error
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Tracker) { t.logger = logger }
}

func NewTracker(log Log, goal int, store Persister, opts ...Option) *Tracker {
	t := &Tracker{
		log:    log.Clone(),
		goal:   goal,
		store:  store,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append logs one call at the current time and persists the log.
func (t *Tracker) Append(ctx context.Context) Record {
	r := NewRecord(t.now())
	t.log = append(t.log, r)
	t.persistCalls(ctx)
	t.logger.Debug("call logged", zap.Int64("timestamp", r.Timestamp), zap.Int("total", len(t.log)))
	return r
}

// Reset drops every record not dated today and returns how many were removed.
func (t *Tracker) Reset(ctx context.Context) int {
	kept := t.log.Today(t.now())
	removed := len(t.log) - len(kept)
	t.log = kept
	t.persistCalls(ctx)
	t.logger.Info("log reset to today", zap.Int("removed", removed), zap.Int("kept", len(kept)))
	return removed
}

func (t *Tracker) SetGoal(ctx context.Context, goal int) {
	t.goal = goal
	if err := t.store.SaveGoal(ctx, goal); err != nil {
		t.saveErr = err
		t.logger.Warn("failed to persist daily goal", zap.Int("goal", goal), zap.Error(err))
		return
	}
	t.saveErr = nil
}

func (t *Tracker) persistCalls(ctx context.Context) {
	if err := t.store.SaveCalls(ctx, t.log); err != nil {
		t.saveErr = err
		t.logger.Warn("failed to persist call log", zap.Int("calls", len(t.log)), zap.Error(err))
		return
	}
	t.saveErr = nil
}

func (t *Tracker) Snapshot() Snapshot { return Derive(t.log, t.goal, t.now()) }

func (t *Tracker) Calls() Log { return t.log.Clone() }

func (t *Tracker) Goal() int { return t.goal }

// PersistErr is the error from the most recent save, nil once a save succeeds.
func (t *Tracker) PersistErr() error { return t.saveErr }
