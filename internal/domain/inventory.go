package domain

import (
	"sort"
	"time"
)

// InventoryStatus is the household inventory lifecycle state
type InventoryStatus string

const (
	StatusOnHand InventoryStatus = "on_hand"
	StatusLow    InventoryStatus = "low"
	StatusOut    InventoryStatus = "out"
)

// Valid reports whether s is one of the three lifecycle states
func (s InventoryStatus) Valid() bool {
	switch s {
	case StatusOnHand, StatusLow, StatusOut:
		return true
	}
	return false
}

// NeedsRestock reports whether s puts an entry on the restock queue
func (s InventoryStatus) NeedsRestock() bool {
	return s == StatusLow || s == StatusOut
}

// ParseInventoryStatus accepts the canonical values plus a few spellings used by chat and UI clients
func ParseInventoryStatus(raw string) (InventoryStatus, error) {
	switch raw {
	case "on_hand", "on-hand", "onhand", "have", "stocked":
		return StatusOnHand, nil
	case "low", "running_low", "running-low":
		return StatusLow, nil
	case "out", "out_of_stock", "empty", "gone":
		return StatusOut, nil
	}
	return "", ErrInvalidStatus
}

// InventoryEntry is a tracked household inventory item
type InventoryEntry struct {
	ID               string          `json:"id"`
	Key              string          `json:"ingredient"`
	DisplayName      string          `json:"display_name"`
	Category         Category        `json:"category,omitempty"`
	Status           InventoryStatus `json:"status"`
	DefaultQuantity  float64         `json:"default_quantity,omitempty"`
	DefaultUnit      string          `json:"default_unit,omitempty"`
	SearchTerm       string          `json:"search_term,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	LastStatusChange time.Time       `json:"last_status_change"`
}

// PantryStaple is an ingredient excluded from shopping lists by default
type PantryStaple struct {
	Key         string   `json:"ingredient"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
}

// StapleSet is a set of normalized pantry staple keys
type StapleSet map[string]struct{}

// Contains reports whether key is a staple
func (s StapleSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// InventorySnapshot is a point-in-time copy of the ledger read once per consolidation
type InventorySnapshot struct {
	TakenAt time.Time
	entries map[string]InventoryEntry
}

// NewInventorySnapshot copies entries into a snapshot keyed by entry key
func NewInventorySnapshot(takenAt time.Time, entries []InventoryEntry) *InventorySnapshot {
	m := make(map[string]InventoryEntry, len(entries))
	for _, e := range entries {
		m[e.Key] = e
	}
	return &InventorySnapshot{TakenAt: takenAt, entries: m}
}

// Lookup returns the entry for key. A nil snapshot tracks nothing.
func (s *InventorySnapshot) Lookup(key string) (InventoryEntry, bool) {
	if s == nil {
		return InventoryEntry{}, false
	}
	e, ok := s.entries[key]
	return e, ok
}

// Keys returns the tracked keys in lexical order
func (s *InventorySnapshot) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of tracked entries
func (s *InventorySnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}
