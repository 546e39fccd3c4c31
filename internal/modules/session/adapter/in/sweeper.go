package in

import (
	"context"
	"log/slog"
	"time"

	"intent/internal/modules/session/dto"
	sessionin "intent/internal/modules/session/port/in"
)

// Sweeper runs the staleness sweep once at start and then on every tick
// until ctx is done. Each sweep re-reads the log inside its own boundary.
type Sweeper struct {
	usecase  sessionin.Usecase
	interval time.Duration
	logger   *slog.Logger
	onSweep  func(dto.SweepOutput)
}

func NewSweeper(usecase sessionin.Usecase, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{usecase: usecase, interval: interval, logger: logger}
}

// OnSweep registers a callback invoked after every sweep that settled at
// least one session.
func (s *Sweeper) OnSweep(fn func(dto.SweepOutput)) {
	s.onSweep = fn
}

// Once runs a single sweep and returns its outcome. Failures are logged,
// never returned, so a broken sweep cannot block startup.
func (s *Sweeper) Once(ctx context.Context) dto.SweepOutput {
	return s.tick(ctx)
}

func (s *Sweeper) Run(ctx context.Context) error {
	s.tick(ctx)
	if s.interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) dto.SweepOutput {
	out, err := s.usecase.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("staleness sweep failed", "error", err)
		}
		return dto.SweepOutput{}
	}
	if len(out.Finalized) > 0 {
		s.logger.Info("stale sessions finalized", "count", len(out.Finalized))
		if s.onSweep != nil {
			s.onSweep(out)
		}
	}
	return out
}
