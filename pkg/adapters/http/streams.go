package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/domain"
)

// StreamManager fans flow diffs out to the SSE subscribers of each flow.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // FlowID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for flowID. The returned func
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(flowID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[flowID]; !ok {
		sm.subscribers[flowID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[flowID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[flowID]; ok {
			if _, live := subs[ch]; !live {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, flowID)
			}
		}
	}
}

// Subscribers returns the number of live subscriptions for flowID.
func (sm *StreamManager) Subscribers(flowID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[flowID])
}

// Broadcast sends msg to every subscriber of flowID. Slow clients drop messages.
func (sm *StreamManager) Broadcast(flowID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("broadcasting flow diff", "flow", flowID, "payload_size", len(msg))

	for ch := range sm.subscribers[flowID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "flow", flowID)
		}
	}
}

// PublishDiff serializes diff and broadcasts it. Its signature matches
// session.WithOnSaved.
func (sm *StreamManager) PublishDiff(_ context.Context, diff *domain.FlowDiff) {
	if diff == nil {
		return
	}
	b, err := json.Marshal(diff)
	if err != nil {
		sm.logger.Error("failed to encode flow diff", "flow", diff.FlowID, "err", err)
		return
	}
	sm.Broadcast(diff.FlowID, string(b))
}
