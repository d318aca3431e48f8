// Package observability tracks which columns partial updates touch and
// which patch fields get rejected.
package observability

import (
	"sort"
	"sync"
	"time"
)

// UpdateStats counts column assignments and field rejections per table.
type UpdateStats struct {
	mu       sync.RWMutex
	assigned map[string]*FieldStats
	rejected map[string]*FieldStats
	window   time.Duration
	now      func() time.Time
}

// FieldStats holds the counters of one table column or patch field.
type FieldStats struct {
	Table     string         `json:"table"`
	Field     string         `json:"field"`
	Frequency int64          `json:"frequency"`
	LastSeen  time.Time      `json:"last_seen"`
	Reasons   map[string]int `json:"reasons,omitempty"` // rejection reason → count
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	TopAssigned []FieldStats `json:"top_assigned"`
	TopRejected []FieldStats `json:"top_rejected"`
}

// NewUpdateStats creates a tracker that forgets entries idle for longer
// than window.
func NewUpdateStats(window time.Duration) *UpdateStats {
	return &UpdateStats{
		assigned: make(map[string]*FieldStats),
		rejected: make(map[string]*FieldStats),
		window:   window,
		now:      time.Now,
	}
}

func key(table, field string) string {
	return table + "." + field
}

func touch(m map[string]*FieldStats, table, field string, now time.Time) *FieldStats {
	k := key(table, field)
	s, ok := m[k]
	if !ok {
		s = &FieldStats{Table: table, Field: field}
		m[k] = s
	}
	s.Frequency++
	s.LastSeen = now
	return s
}

// RecordAssignment counts one column written by an update or insert.
func (u *UpdateStats) RecordAssignment(table, column string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	touch(u.assigned, table, column, u.now())
}

// RecordRejection counts one patch field that did not become an assignment.
func (u *UpdateStats) RecordRejection(table, field, reason string) {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := touch(u.rejected, table, field, u.now())
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	s.Reasons[reason]++
}

// TopAssigned returns the n most frequently written columns.
func (u *UpdateStats) TopAssigned(n int) []FieldStats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return top(u.assigned, n)
}

// TopRejected returns the n most frequently rejected fields.
func (u *UpdateStats) TopRejected(n int) []FieldStats {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return top(u.rejected, n)
}

// Snapshot returns both rankings.
func (u *UpdateStats) Snapshot(n int) Snapshot {
	return Snapshot{TopAssigned: u.TopAssigned(n), TopRejected: u.TopRejected(n)}
}

// top copies the n highest counters, ties broken by key.
func top(m map[string]*FieldStats, n int) []FieldStats {
	if n <= 0 || len(m) == 0 {
		return []FieldStats{}
	}

	stats := make([]FieldStats, 0, len(m))
	for _, s := range m {
		c := *s
		if s.Reasons != nil {
			c.Reasons = make(map[string]int, len(s.Reasons))
			for r, count := range s.Reasons {
				c.Reasons[r] = count
			}
		}
		stats = append(stats, c)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Frequency != stats[j].Frequency {
			return stats[i].Frequency > stats[j].Frequency
		}
		return key(stats[i].Table, stats[i].Field) < key(stats[j].Table, stats[j].Field)
	})

	if n > len(stats) {
		n = len(stats)
	}
	return stats[:n]
}

// Prune removes entries not seen within the window.
func (u *UpdateStats) Prune() {
	u.mu.Lock()
	defer u.mu.Unlock()

	threshold := u.now().Add(-u.window)
	for k, s := range u.assigned {
		if s.LastSeen.Before(threshold) {
			delete(u.assigned, k)
		}
	}
	for k, s := range u.rejected {
		if s.LastSeen.Before(threshold) {
			delete(u.rejected, k)
		}
	}
}
