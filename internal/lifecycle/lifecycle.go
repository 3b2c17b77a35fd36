// Package lifecycle starts and stops long-lived components in dependency
// order. Components are registered with the names of the components they
// depend on; Start brings them up dependencies-first and rolls back on
// failure, Stop tears them down in reverse start order with a per-component
// grace period.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/inquesthq/inquest/internal/logging"
)

// Component is anything the manager can start and stop. Name must be
// non-empty and unique within a manager; it doubles as the dependency
// handle.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type entry struct {
	component Component
	dependsOn []string
}

// Manager orchestrates component startup and shutdown.
type Manager struct {
	mu          sync.Mutex
	entries     []entry
	byName      map[string]Component
	started     []Component
	stopTimeout time.Duration
	logger      *logging.Logger
}

// NewManager returns a manager with a 30 second per-component stop timeout.
func NewManager() *Manager {
	return &Manager{
		byName:      map[string]Component{},
		stopTimeout: 30 * time.Second,
		logger:      logging.GetLogger("lifecycle"),
	}
}

// SetStopTimeout sets the per-component grace period used by Stop.
func (m *Manager) SetStopTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopTimeout = d
}

// Register adds a component. Dependencies must already be registered, so a
// valid registration order can never form a cycle.
func (m *Manager) Register(c Component, dependsOn ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c == nil {
		return errors.New("cannot register nil component")
	}
	name := c.Name()
	if name == "" {
		return errors.New("component name must be non-empty")
	}
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("component %q already registered", name)
	}
	for _, dep := range dependsOn {
		if _, exists := m.byName[dep]; !exists {
			return fmt.Errorf("component %q depends on unregistered %q", name, dep)
		}
	}

	m.byName[name] = c
	m.entries = append(m.entries, entry{component: c, dependsOn: dependsOn})
	m.logger.Debug("Registered component %s (depends on %v)", name, dependsOn)
	return nil
}

// Start starts every registered component in dependency order. When any
// component fails, the ones already started are stopped in reverse order
// and the failure is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = nil
	for _, e := range m.startOrder() {
		name := e.component.Name()
		began := time.Now()
		m.logger.Info("Starting %s", name)

		if err := e.component.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", name, err)
			m.rollback()
			return fmt.Errorf("starting %s: %w", name, err)
		}

		m.started = append(m.started, e.component)
		m.logger.Info("%s started (took %dms)", name, time.Since(began).Milliseconds())
	}
	return nil
}

// startOrder returns entries with every dependency ahead of its dependents.
// Registration requires dependencies to be registered first, so a single
// stable pass over the recorded order already satisfies that; the explicit
// sort keeps the guarantee even if entries are ever reordered.
func (m *Manager) startOrder() []entry {
	placed := make(map[string]bool, len(m.entries))
	ordered := make([]entry, 0, len(m.entries))

	remaining := append([]entry(nil), m.entries...)
	for len(remaining) > 0 {
		progressed := false
		rest := remaining[:0]
		for _, e := range remaining {
			ready := true
			for _, dep := range e.dependsOn {
				if !placed[dep] {
					ready = false
					break
				}
			}
			if ready {
				placed[e.component.Name()] = true
				ordered = append(ordered, e)
				progressed = true
			} else {
				rest = append(rest, e)
			}
		}
		remaining = rest
		if !progressed {
			// Unsatisfiable dependencies cannot happen through Register;
			// append the rest as-is rather than looping forever.
			ordered = append(ordered, remaining...)
			break
		}
	}
	return ordered
}

func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		c := m.started[i]
		m.logger.Debug("Rolling back %s", c.Name())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := c.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", c.Name(), err)
		}
		cancel()
	}
	m.started = nil
}

// Stop stops started components in reverse start order. Each component gets
// its own grace period; errors are logged and collected but never prevent
// the remaining components from stopping.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		c := m.started[i]
		name := c.Name()
		began := time.Now()
		m.logger.Info("Stopping %s", name)

		stopCtx, cancel := context.WithTimeout(ctx, m.stopTimeout)
		err := c.Stop(stopCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				m.logger.Warn("%s exceeded its %v grace period", name, m.stopTimeout)
			} else {
				m.logger.Error("Error stopping %s: %v", name, err)
			}
			errs = append(errs, fmt.Errorf("stopping %s: %w", name, err))
			continue
		}
		m.logger.Info("%s stopped (took %dms)", name, time.Since(began).Milliseconds())
	}
	m.started = nil
	return errors.Join(errs...)
}
