package automation

import (
	"sync"

	"github.com/danielolaszy/triage/pkg/models"
)

// Automation log actions.
const (
	ActionAssigned = "assigned"
	ActionSkipped  = "skipped"
	ActionExcluded = "excluded"
	ActionFailed   = "failed"
	ActionTriaged  = "triaged"
	ActionDryRun   = "dry-run"
)

// AuditLog is an append-only, in-memory record of orchestrator actions. When
// capacity is positive the oldest entries are evicted beyond it.
type AuditLog struct {
	mu       sync.Mutex
	entries  []models.AutomationLogEntry
	capacity int
}

// NewAuditLog creates a log keeping at most capacity entries; capacity <= 0
// keeps everything.
func NewAuditLog(capacity int) *AuditLog {
	return &AuditLog{capacity: capacity}
}

// Append adds an entry.
func (l *AuditLog) Append(e models.AutomationLogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	if l.capacity > 0 && len(l.entries) > l.capacity {
		drop := len(l.entries) - l.capacity
		l.entries = append([]models.AutomationLogEntry(nil), l.entries[drop:]...)
	}
}

// Entries returns a copy of the newest limit entries, oldest first.
func (l *AuditLog) Entries(limit int) []models.AutomationLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := 0
	if limit > 0 && len(l.entries) > limit {
		start = len(l.entries) - limit
	}
	return append([]models.AutomationLogEntry(nil), l.entries[start:]...)
}

// Len returns the number of retained entries.
func (l *AuditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Clear drops every entry.
func (l *AuditLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
