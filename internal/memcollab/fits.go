package memcollab

import (
	"encoding/json"
	"fmt"
	"sync"
)

// fitEntry is one financial-institution-table row: a PAN prefix mapped to
// an institution id and an optional per-card max PIN length override
// (spec.md §6's FIT collaborator).
type fitEntry struct {
	PANPrefix     string `json:"pan_prefix"`
	InstitutionID string `json:"institution_id"`
	MaxPINLength  int    `json:"max_pin_length"`
}

// MemoryFITs is an in-memory core.FITs matching cards by longest PAN
// prefix, grounded on the teacher's map+mutex cache style
// (core/access_control.go). Real FIT range lookups (binary search over
// sorted PAN ranges) are an external collaborator concern (spec.md §6).
type MemoryFITs struct {
	mu      sync.Mutex
	entries []fitEntry
}

// NewMemoryFITs returns an empty MemoryFITs.
func NewMemoryFITs() *MemoryFITs {
	return &MemoryFITs{}
}

// Add decodes a JSON array of fitEntry rows from raw and appends them.
func (f *MemoryFITs) Add(raw []byte) (bool, error) {
	var rows []fitEntry
	if err := json.Unmarshal(raw, &rows); err != nil {
		return false, fmt.Errorf("memcollab: invalid FIT payload: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, rows...)
	return true, nil
}

func (f *MemoryFITs) match(pan string) (fitEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	best := fitEntry{}
	found := false
	for _, e := range f.entries {
		if len(e.PANPrefix) == 0 || len(pan) < len(e.PANPrefix) {
			continue
		}
		if pan[:len(e.PANPrefix)] != e.PANPrefix {
			continue
		}
		if !found || len(e.PANPrefix) > len(best.PANPrefix) {
			best = e
			found = true
		}
	}
	return best, found
}

func (f *MemoryFITs) GetInstitutionByCardNumber(pan string) (string, bool) {
	e, ok := f.match(pan)
	if !ok || e.InstitutionID == "" {
		return "", false
	}
	return e.InstitutionID, true
}

func (f *MemoryFITs) GetMaxPINLength(pan string) (int, bool) {
	e, ok := f.match(pan)
	if !ok || e.MaxPINLength <= 0 {
		return 0, false
	}
	return e.MaxPINLength, true
}
