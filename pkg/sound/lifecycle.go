package sound

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
)

// LifecycleComponent is anything that needs cleanup on shutdown.
type LifecycleComponent interface {
	// Name returns the component name for logging.
	Name() string

	// Shutdown performs graceful shutdown.
	Shutdown(ctx context.Context) error
}

// LifecycleManager coordinates graceful shutdown of sound components when
// the process receives SIGINT/SIGTERM or shuts down programmatically.
type LifecycleManager struct {
	mu         sync.Mutex
	components []LifecycleComponent
	shutdownCh chan struct{}
	done       chan struct{}
	wg         sync.WaitGroup
	isShutdown bool
	timeout    time.Duration
}

// NewLifecycleManager creates a lifecycle manager.
func NewLifecycleManager() *LifecycleManager {
	return &LifecycleManager{
		components: make([]LifecycleComponent, 0),
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
		timeout:    5 * time.Second,
	}
}

// Register adds a component to lifecycle management.
func (lm *LifecycleManager) Register(component LifecycleComponent) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if lm.isShutdown {
		log.Warn("Cannot register component during shutdown", "component", component.Name())
		return
	}

	lm.components = append(lm.components, component)
	log.Debug("Registered lifecycle component", "name", component.Name())
}

// Start begins monitoring for shutdown signals.
func (lm *LifecycleManager) Start() {
	lm.wg.Add(1)
	go lm.monitorSignals()
}

func (lm *LifecycleManager) monitorSignals() {
	defer lm.wg.Done()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", "signal", sig)
		_ = lm.Shutdown()
	case <-lm.shutdownCh:
		log.Debug("Shutdown initiated programmatically")
	}
}

// Shutdown shuts down all components in reverse registration order.
func (lm *LifecycleManager) Shutdown() error {
	lm.mu.Lock()
	if lm.isShutdown {
		lm.mu.Unlock()
		return nil
	}
	lm.isShutdown = true
	components := lm.components
	lm.mu.Unlock()

	log.Debug("Starting graceful shutdown")
	close(lm.shutdownCh)

	ctx, cancel := context.WithTimeout(context.Background(), lm.timeout)
	defer cancel()

	var failures int
	for i := len(components) - 1; i >= 0; i-- {
		component := components[i]
		log.Debug("Shutting down component", "name", component.Name())
		if err := component.Shutdown(ctx); err != nil {
			log.Warn("Component shutdown failed", "name", component.Name(), "error", err)
			failures++
		}
	}

	close(lm.done)

	if failures > 0 {
		return fmt.Errorf("shutdown completed with %d errors", failures)
	}
	return nil
}

// Wait blocks until shutdown is complete.
func (lm *LifecycleManager) Wait() {
	<-lm.done
}

// ManagerLifecycle wraps a Manager for lifecycle registration.
type ManagerLifecycle struct {
	manager *Manager
}

// NewManagerLifecycle creates a lifecycle wrapper for a sound manager.
func NewManagerLifecycle(m *Manager) *ManagerLifecycle {
	return &ManagerLifecycle{manager: m}
}

// Name returns the component name.
func (ml *ManagerLifecycle) Name() string { return "Sound Manager" }

// Shutdown stops all playback and closes the manager.
func (ml *ManagerLifecycle) Shutdown(_ context.Context) error {
	ml.manager.StopAll()
	return ml.manager.Close()
}
