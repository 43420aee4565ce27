package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/flow"
	"github.com/aretw0/cardflow/pkg/ports"
)

// ErrFlowExists is returned by Create when the flow is already stored.
var ErrFlowExists = errors.New("flow already exists")

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes access to flow documents. Each edit runs as one
// load -> mutate -> save cycle while holding the flow's lock, so no caller
// ever observes a partially applied event.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.FlowStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	hooks     domain.EditorHooks
	graphOpts []flow.Option
	onSaved   func(context.Context, *domain.FlowDiff)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets how long a distributed lock survives an unresponsive holder.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks forwards editor hints raised during edits.
func WithHooks(hooks domain.EditorHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithGraphOptions configures the graphs built for each edit.
func WithGraphOptions(opts ...flow.Option) Option {
	return func(m *Manager) {
		m.graphOpts = append(m.graphOpts, opts...)
	}
}

// WithOnSaved registers a callback receiving the diff of every saved edit.
func WithOnSaved(fn func(context.Context, *domain.FlowDiff)) Option {
	return func(m *Manager) {
		m.onSaved = fn
	}
}

// NewManager creates a new Manager over the given flow store.
func NewManager(store ports.FlowStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(flowID) after unlocking.
func (m *Manager) acquire(flowID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		entry = &lockEntry{}
		m.locks[flowID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(flowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[flowID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, flowID)
	}
}

func (m *Manager) editor(flowID string, defs []domain.Definition) *cardflow.Editor {
	return cardflow.Open(defs,
		cardflow.WithFlowID(flowID),
		cardflow.WithHooks(m.hooks),
		cardflow.WithLogger(m.logger),
		cardflow.WithGraphOptions(m.graphOpts...),
	)
}

// Edit loads the flow, applies fn and saves the result when it changed.
// If fn fails, nothing is saved.
func (m *Manager) Edit(ctx context.Context, flowID string, fn func(context.Context, *cardflow.Editor) error) (*domain.FlowDiff, error) {
	var diff *domain.FlowDiff
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		defs, err := m.store.Load(ctx, flowID)
		if err != nil {
			return err
		}
		ed := m.editor(flowID, defs)
		if n := len(ed.Graph().LoadIssues()); n > 0 {
			return fmt.Errorf("%s: %d skipped: %w", flowID, n, domain.ErrMalformedFlow)
		}
		before := ed.Graph().Snapshot()

		if err := fn(ctx, ed); err != nil {
			return err
		}

		after := ed.Graph().Definitions()
		diff = domain.DiffFlows(flowID, before, after)
		if diff == nil {
			return nil
		}
		if err := m.store.Save(ctx, flowID, after); err != nil {
			return fmt.Errorf("failed to save flow: %w", err)
		}
		m.logger.Debug("flow saved", "flow", flowID,
			"added", len(diff.Added), "removed", len(diff.Removed), "changed", len(diff.Changed))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if diff != nil && m.onSaved != nil {
		m.onSaved(ctx, diff)
	}
	return diff, nil
}

// Replace overwrites an existing flow with defs and reports what changed.
// Unlike Edit it accepts flows holding malformed definitions.
func (m *Manager) Replace(ctx context.Context, flowID string, defs []domain.Definition) (*domain.FlowDiff, error) {
	var diff *domain.FlowDiff
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		before, err := m.store.Load(ctx, flowID)
		if err != nil {
			return err
		}
		diff = domain.DiffFlows(flowID, before, defs)
		if diff == nil {
			return nil
		}
		return m.store.Save(ctx, flowID, defs)
	})
	if err != nil {
		return nil, err
	}
	if diff != nil && m.onSaved != nil {
		m.onSaved(ctx, diff)
	}
	return diff, nil
}

// View loads the flow and runs fn on it without saving.
func (m *Manager) View(ctx context.Context, flowID string, fn func(context.Context, *cardflow.Editor) error) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		defs, err := m.store.Load(ctx, flowID)
		if err != nil {
			return err
		}
		return fn(ctx, m.editor(flowID, defs))
	})
}

// Create stores a new flow. It fails with ErrFlowExists if flowID is taken.
func (m *Manager) Create(ctx context.Context, flowID string, defs []domain.Definition) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, flowID)
		if err == nil {
			return fmt.Errorf("%s: %w", flowID, ErrFlowExists)
		}
		if !errors.Is(err, domain.ErrFlowNotFound) {
			return fmt.Errorf("failed to check flow existence: %w", err)
		}
		return m.store.Save(ctx, flowID, defs)
	})
}

// Load retrieves a flow from the store.
func (m *Manager) Load(ctx context.Context, flowID string) ([]domain.Definition, error) {
	var defs []domain.Definition
	err := m.WithLock(ctx, flowID, func(ctx context.Context) error {
		var err error
		defs, err = m.store.Load(ctx, flowID)
		return err
	})
	return defs, err
}

// Save replaces a flow in the store.
func (m *Manager) Save(ctx context.Context, flowID string, defs []domain.Definition) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		return m.store.Save(ctx, flowID, defs)
	})
}

// Delete removes a flow from the store.
func (m *Manager) Delete(ctx context.Context, flowID string) error {
	return m.WithLock(ctx, flowID, func(ctx context.Context) error {
		return m.store.Delete(ctx, flowID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying flow store.
func (m *Manager) Store() ports.FlowStore {
	return m.store
}

// WithLock executes a function while holding the lock for the flow.
func (m *Manager) WithLock(ctx context.Context, flowID string, fn func(context.Context) error) error {
	entry := m.acquire(flowID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(flowID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, flowID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"flow_id", flowID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
