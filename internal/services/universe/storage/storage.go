// Package storage defines persistence for save slots: the ordered list of
// diffs applied when a game was saved.
package storage

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/louisbranch/starpatch/internal/platform/errors"
)

var (
	// ErrNotFound indicates the save slot has never been written.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "save slot not found")
	// ErrSlotRequired indicates a missing slot name.
	ErrSlotRequired = errors.New("save slot is required")
)

// SaveRecord is one persisted save slot.
type SaveRecord struct {
	Slot string
	// Diffs lists applied diff names, oldest first.
	Diffs     []string
	UpdatedAt time.Time
}

// SaveStore persists applied diff lists per slot.
type SaveStore interface {
	// LoadSave returns ErrNotFound when the slot has no record.
	LoadSave(ctx context.Context, slot string) (SaveRecord, error)
	// SaveApplied replaces the slot's diff list.
	SaveApplied(ctx context.Context, slot string, diffs []string) error
	// ListSaves returns every slot ordered by name.
	ListSaves(ctx context.Context) ([]SaveRecord, error)
}
