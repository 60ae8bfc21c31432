package goroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/shandysiswandi/otpdash/internal/pkg/stacktrace"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 100

// ErrPanic wraps a recovered panic so Wait can report it.
var ErrPanic = errors.New("goroutine: task panicked")

// Manager runs background tasks with a concurrency limit.
//
// Tasks outlive the request that scheduled them: each one gets a context that
// keeps the parent's values (correlation id, span) but not its cancellation,
// bounded by the manager's task timeout instead.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	timeout time.Duration
	stateMu sync.RWMutex
	closed  bool
}

// NewManager creates a new Manager with the provided maximum concurrency and
// per-task timeout. A zero timeout means tasks are never cut short.
func NewManager(maxGoroutine int, timeout time.Duration) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = runtime.NumCPU() * DefaultMaxGoroutine
	}

	return &Manager{
		sema:    make(chan struct{}, maxGoroutine),
		timeout: timeout,
	}
}

// Go schedules f in a goroutine if capacity is available.
//
// When the manager is closed or saturated the task is dropped with a warning.
func (g *Manager) Go(pCtx context.Context, name string, f func(ctx context.Context) error) {
	if g == nil {
		return
	}

	g.stateMu.RLock()
	if g.closed {
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "goroutine manager is closed, skipping task", "task", name)
		return
	}

	select {
	case g.sema <- struct{}{}:
		g.wg.Add(1)
		g.stateMu.RUnlock()
		go g.run(pCtx, name, f)

	default:
		g.stateMu.RUnlock()
		slog.WarnContext(pCtx, "maximum goroutine limit reached, skipping task", "task", name)
	}
}

func (g *Manager) run(pCtx context.Context, name string, f func(ctx context.Context) error) {
	ctx := context.WithoutCancel(pCtx)
	cancel := context.CancelFunc(func() {})
	if g.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
	}

	defer func() {
		cancel()
		<-g.sema
		g.wg.Done()
	}()

	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "task", name, "because", rvr, "stack", string(stack))
			}
			g.record(fmt.Errorf("%w: %s: %v", ErrPanic, name, rvr))
		}
	}()

	if err := f(ctx); err != nil {
		slog.WarnContext(ctx, "background task failed", "task", name, "error", err)
		g.record(fmt.Errorf("%s: %w", name, err))
	}
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}

// Wait closes the manager, blocks until running tasks finish and returns the
// joined task errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
