package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Supervisor owns background continuations of the pipeline. Tasks run
// detached from the caller's request context (there is no cancellation
// primitive for in-flight work), but every failure and panic is captured
// and logged instead of vanishing into a bare goroutine.
type Supervisor struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor.
func NewSupervisor(logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{logger: logger}
}

// Go runs fn in the background under a fresh context.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background task panicked",
					zap.String("task", name), zap.Any("panic", r))
			}
		}()

		if err := fn(context.Background()); err != nil {
			s.logger.Error("background task failed",
				zap.String("task", name), zap.Error(err))
		}
	}()
}

// Wait blocks until all background tasks finish. Used by the CLI and tests;
// a long-running service never calls it.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
