// Package saga runs a short sequence of writes, undoing completed steps when a later one fails.
package saga

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Step is one write with an optional undo.
type Step struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga executes steps in order.
type Saga struct {
	steps  []Step
	logger *zap.Logger
}

// New creates an empty saga.
func New(logger *zap.Logger) *Saga {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Saga{logger: logger}
}

// Add appends a step.
func (s *Saga) Add(step Step) *Saga {
	s.steps = append(s.steps, step)
	return s
}

// Run executes the steps. On failure the completed steps are compensated in
// reverse order and the failing step's error is returned. Compensation
// failures are logged, not retried.
func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		if err := step.Do(ctx); err != nil {
			s.rollback(ctx, i)
			return fmt.Errorf("%s: %w", step.Name, err)
		}
	}
	return nil
}

func (s *Saga) rollback(ctx context.Context, failed int) {
	for i := failed - 1; i >= 0; i-- {
		step := s.steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(context.WithoutCancel(ctx)); err != nil {
			s.logger.Error("compensation failed", zap.String("step", step.Name), zap.Error(err))
		}
	}
}
