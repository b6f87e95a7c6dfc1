package pluginsync

import (
	"sync"

	"github.com/pluginsync/pluginsync/pkg/differ"
)

// EventHook is called for every reconciliation event, before it is applied.
type EventHook func(e differ.Event)

// hooks fans reconciliation events out to registered callbacks.
type hooks struct {
	mu     sync.RWMutex
	all    []EventHook
	byKind map[differ.EventKind][]EventHook
}

func newHooks() *hooks {
	return &hooks{byKind: make(map[differ.EventKind][]EventHook)}
}

// OnEvent registers fn for every event.
func (c *Client) OnEvent(fn EventHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.all = append(c.hooks.all, fn)
}

// OnInsert registers fn for inserted plugins.
func (c *Client) OnInsert(fn EventHook) {
	c.hooks.on(differ.EventInsert, fn)
}

// OnUpdate registers fn for patched columns.
func (c *Client) OnUpdate(fn EventHook) {
	c.hooks.on(differ.EventUpdate, fn)
}

// OnDelete registers fn for deleted rows, orphans and duplicates alike.
func (c *Client) OnDelete(fn EventHook) {
	c.hooks.on(differ.EventDelete, fn)
	c.hooks.on(differ.EventDuplicate, fn)
}

func (h *hooks) on(kind differ.EventKind, fn EventHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.byKind[kind] = append(h.byKind[kind], fn)
}

// Report implements reconciler.Reporter.
func (h *hooks) Report(e differ.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.all {
		fn(e)
	}
	for _, fn := range h.byKind[e.Kind] {
		fn(e)
	}
}
