package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rosieluu/simple-notes-app/logging"
)

// Manager coordinates graceful shutdown for the service. It composes:
//   - OperationTracker: in-flight generation tasks
//   - Registry: ordered cleanup functions
//   - SignalCounter: force-exit on a repeated interrupt
//
// Usage:
//
//	manager := NewManager(logger)
//
//	manager.Register("http-server", 10, func(ctx context.Context) error {
//	    return server.Shutdown(ctx)
//	})
//	manager.Register("database", 30, func(ctx context.Context) error {
//	    return database.Close()
//	})
//
//	manager.Start()
//	manager.Wait()
//	manager.Shutdown()
type Manager struct {
	logger   *logging.Logger
	timeout  time.Duration
	mu       sync.Mutex
	started  bool
	shutdown bool

	ctx    context.Context
	cancel context.CancelFunc

	tracker  *OperationTracker
	registry *Registry
	signals  *SignalCounter

	sigChan chan os.Signal
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the shutdown timeout duration. Default is 60 seconds.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// NewManager creates a Manager ready to coordinate graceful shutdown.
// A second interrupt signal forces immediate exit.
func NewManager(logger *logging.Logger, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		logger:   logger,
		timeout:  60 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		tracker:  NewOperationTracker(),
		registry: NewRegistry(),
		sigChan:  make(chan os.Signal, 1),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.signals = NewSignalCounter(2, func() {
		m.logger.Warn("Received second signal, forcing immediate shutdown")
		os.Exit(1)
	})

	return m
}

// Context returns the managed context, cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

// Tracker returns the operation tracker used for background tasks.
func (m *Manager) Tracker() *OperationTracker {
	return m.tracker
}

// Register adds a cleanup function to be called during shutdown.
// Lower priority values are executed first.
func (m *Manager) Register(name string, priority int, fn Func) {
	m.registry.Register(name, priority, fn)
	m.logger.Debugw("Registered shutdown handler",
		"name", name,
		"priority", priority,
	)
}

// Start begins signal handling for SIGINT and SIGTERM. The first signal
// cancels the managed context; a second forces exit via the SignalCounter
// callback. Safe to call more than once.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return
	}
	m.started = true

	signal.Notify(m.sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range m.sigChan {
			count := m.signals.Increment()
			if count == 1 {
				m.logger.Infow("Received shutdown signal, initiating graceful shutdown",
					"signal", sig.String(),
				)
				m.cancel()
			}
		}
	}()

	m.logger.Info("Shutdown manager started, listening for signals")
}

// Shutdown executes the graceful shutdown sequence:
//  1. Close the operation tracker to reject new background tasks
//  2. Wait for in-flight tasks (with timeout)
//  3. Execute registered cleanup functions in priority order
//
// Shutdown is idempotent; subsequent calls return nil.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.shutdown {
		m.mu.Unlock()
		return nil
	}
	m.shutdown = true
	m.mu.Unlock()

	startTime := time.Now()
	m.logger.Infow("Initiating graceful shutdown",
		"timeout", m.timeout,
		"registered_handlers", m.registry.Count(),
	)

	m.tracker.Close()

	if active := m.tracker.ActiveCount(); active > 0 {
		m.logger.Infow("Waiting for in-flight tasks", "active_count", active)
	}

	if err := m.tracker.Wait(m.timeout); err != nil {
		m.logger.Warnw("Timeout waiting for in-flight tasks",
			"waited", time.Since(startTime),
			"remaining", m.tracker.ActiveCount(),
		)
	}

	// Cleanup gets whatever is left of the timeout, at least one second.
	remaining := m.timeout - time.Since(startTime)
	if remaining < time.Second {
		remaining = time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), remaining)
	defer cancel()

	m.logger.Infow("Executing cleanup functions", "handlers", m.registry.Names())

	errs := m.registry.Shutdown(ctx)
	for _, err := range errs {
		m.logger.Errorw("Cleanup function failed", "error", err)
	}

	duration := time.Since(startTime)
	if len(errs) > 0 {
		m.logger.Errorw("Shutdown completed with errors",
			"duration", duration,
			"error_count", len(errs),
		)
		return fmt.Errorf("shutdown: %d cleanup functions failed", len(errs))
	}

	m.logger.Infow("Graceful shutdown completed", "duration", duration)

	signal.Stop(m.sigChan)
	close(m.sigChan)

	return nil
}

// Stop cancels the managed context without an OS signal. The Windows
// service wrapper uses this: stop requests arrive through the service
// control manager rather than as signals.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until the managed context is cancelled.
func (m *Manager) Wait() {
	<-m.ctx.Done()
}

// ActiveOperations returns the count of currently in-flight tasks.
func (m *Manager) ActiveOperations() int64 {
	return m.tracker.ActiveCount()
}

// IsShuttingDown returns true once shutdown has been initiated.
func (m *Manager) IsShuttingDown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown || m.tracker.IsClosed()
}
