package armory

import "sync"

// Hook function types for pipeline events
type (
	// ReportHook is called after a report table is written
	ReportHook func(report *Report)

	// SyncSkippedHook is called when a sync finds no change in the compared tables
	SyncSkippedHook func(result *SyncResult)
)

// hooks manages event callbacks for pipeline runs
type hooks struct {
	mu            sync.RWMutex
	onReport      []ReportHook
	onSyncSkipped []SyncSkippedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnReport registers a callback for every written report
func (a *armory) OnReport(fn ReportHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onReport = append(a.hooks.onReport, fn)
}

// OnSyncSkipped registers a callback for syncs that found no change
func (a *armory) OnSyncSkipped(fn SyncSkippedHook) {
	a.hooks.mu.Lock()
	defer a.hooks.mu.Unlock()
	a.hooks.onSyncSkipped = append(a.hooks.onSyncSkipped, fn)
}

func (h *hooks) triggerReport(r *Report) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onReport {
		hook(r)
	}
}

func (h *hooks) triggerSyncSkipped(r *SyncResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onSyncSkipped {
		hook(r)
	}
}
