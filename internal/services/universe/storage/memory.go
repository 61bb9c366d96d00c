package storage

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory stores save slots in memory.
type Memory struct {
	mu    sync.Mutex
	saves map[string]SaveRecord
	now   func() time.Time
}

// NewMemory creates an empty in-memory save store.
func NewMemory() *Memory {
	return &Memory{
		saves: make(map[string]SaveRecord),
		now:   time.Now,
	}
}

// LoadSave returns a copy of the slot's record.
func (m *Memory) LoadSave(ctx context.Context, slot string) (SaveRecord, error) {
	if err := ctx.Err(); err != nil {
		return SaveRecord{}, err
	}
	if m == nil {
		return SaveRecord{}, errors.New("save store is required")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return SaveRecord{}, ErrSlotRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.saves[slot]
	if !ok {
		return SaveRecord{}, ErrNotFound
	}
	record.Diffs = slices.Clone(record.Diffs)
	return record, nil
}

// SaveApplied replaces the slot's diff list.
func (m *Memory) SaveApplied(ctx context.Context, slot string, diffs []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m == nil {
		return errors.New("save store is required")
	}
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return ErrSlotRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves[slot] = SaveRecord{
		Slot:      slot,
		Diffs:     slices.Clone(diffs),
		UpdatedAt: m.now().UTC(),
	}
	return nil
}

// ListSaves returns every slot ordered by name.
func (m *Memory) ListSaves(ctx context.Context) ([]SaveRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.New("save store is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]SaveRecord, 0, len(m.saves))
	for _, record := range m.saves {
		record.Diffs = slices.Clone(record.Diffs)
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Slot < records[j].Slot })
	return records, nil
}

var _ SaveStore = (*Memory)(nil)
