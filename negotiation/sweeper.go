package negotiation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/accord/types"
)

// sweepConcurrency bounds how many stale negotiations one sweep resolves
// in parallel.
const sweepConcurrency = 4

// Sweeper proactively resolves negotiations whose wall-clock deadline has
// passed, so idle negotiations do not linger in IN_PROGRESS waiting for a
// participant to poll the timeout.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeper creates a sweeper over the engine's negotiations.
func NewSweeper(engine *Engine, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger.With(zap.String("component", "sweeper")),
		stop:     make(chan struct{}),
	}
}

// Start launches the periodic sweep loop.
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.engine.SweepExpired(context.Background()); n > 0 {
					s.logger.Info("resolved expired negotiations", zap.Int("count", n))
				}
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop and waits for it to drain.
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// SweepExpired resolves every active negotiation whose deadline has passed,
// through the same resolution path SubmitResponse uses. It returns the
// number of negotiations resolved.
func (e *Engine) SweepExpired(ctx context.Context) int {
	now := time.Now()

	e.mu.RLock()
	candidates := make([]*session, 0)
	for _, s := range e.sessions {
		candidates = append(candidates, s)
	}
	e.mu.RUnlock()

	var mu sync.Mutex
	resolved := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, s := range candidates {
		g.Go(func() error {
			s.mu.Lock()
			defer s.mu.Unlock()
			n := s.n
			// Deadline and status are re-checked under the session lock;
			// a racing SubmitResponse may already have resolved it.
			if n.Status.Terminal() || !now.After(n.Deadline()) {
				return nil
			}
			n.Status = types.StatusTimeout
			e.resolveLocked(ctx, n, types.ResolutionTimeout)
			mu.Lock()
			resolved++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return resolved
}
