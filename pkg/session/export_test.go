package session

// ActiveLocks reports how many per-flow lock entries are alive.
func ActiveLocks(m *Manager) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
