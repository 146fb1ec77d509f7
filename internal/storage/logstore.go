package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rezmoss/callcountcli/internal/calllog"
)

const (
	CallsKey = "calls"
	GoalKey  = "dailyGoal"
)

// LogStore maps the call log and goal onto two KV slots. Reads never fail:
// anything missing or malformed falls back to an empty log or the default goal.
type LogStore struct {
	kv          KV
	logger      *zap.Logger
	defaultGoal int
}

func NewLogStore(kv KV, logger *zap.Logger, defaultGoal int) *LogStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultGoal <= 0 {
		defaultGoal = calllog.DefaultGoal
	}
	return &LogStore{kv: kv, logger: logger, defaultGoal: defaultGoal}
}

func (s *LogStore) Load(ctx context.Context) calllog.Log {
	raw, err := s.kv.Get(ctx, CallsKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read call log, starting empty", zap.Error(err))
		}
		return calllog.Log{}
	}

	var log calllog.Log
	if err := json.Unmarshal([]byte(raw), &log); err != nil {
		s.logger.Warn("stored call log is malformed, starting empty", zap.Error(err))
		return calllog.Log{}
	}
	if log == nil {
		s.logger.Warn("stored call log is not an array, starting empty")
		return calllog.Log{}
	}
	return log
}

func (s *LogStore) SaveCalls(ctx context.Context, log calllog.Log) error {
	if log == nil {
		log = calllog.Log{}
	}
	b, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("encode call log: %w", err)
	}
	if err := s.kv.Set(ctx, CallsKey, string(b)); err != nil {
		return fmt.Errorf("save call log: %w", err)
	}
	return nil
}

func (s *LogStore) LoadGoal(ctx context.Context) int {
	raw, err := s.kv.Get(ctx, GoalKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to read daily goal, using default", zap.Int("default", s.defaultGoal), zap.Error(err))
		}
		return s.defaultGoal
	}
	goal, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("stored daily goal is not a number, using default",
			zap.String("value", raw), zap.Int("default", s.defaultGoal))
		return s.defaultGoal
	}
	return goal
}

func (s *LogStore) SaveGoal(ctx context.Context, goal int) error {
	if err := s.kv.Set(ctx, GoalKey, strconv.Itoa(goal)); err != nil {
		return fmt.Errorf("save daily goal: %w", err)
	}
	return nil
}
