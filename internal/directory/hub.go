package directory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/fenggwsx/NickDirectory/internal/storage"
)

// Observer is notified with the address of a resource after it changed.
type Observer func(addr storage.Address)

// observerHub tracks subscriptions and fans out change notifications.
type observerHub struct {
	mu        sync.RWMutex
	observers map[string]Observer
}

func newObserverHub() *observerHub {
	return &observerHub{observers: make(map[string]Observer)}
}

// register adds an observer and returns its subscription id.
func (h *observerHub) register(observer Observer) string {
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers[id] = observer
	return id
}

// unregister removes the subscription if present.
func (h *observerHub) unregister(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[id]; !ok {
		return false
	}
	delete(h.observers, id)
	return true
}

// notify invokes every observer outside the lock so callbacks may
// subscribe, unsubscribe or read from the store.
func (h *observerHub) notify(addr storage.Address) {
	h.mu.RLock()
	snapshot := make([]Observer, 0, len(h.observers))
	for _, observer := range h.observers {
		snapshot = append(snapshot, observer)
	}
	h.mu.RUnlock()

	for _, observer := range snapshot {
		observer(addr)
	}
}

func (h *observerHub) size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}
