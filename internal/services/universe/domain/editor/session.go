// Package editor keeps the pending hunks of an interactive editing session.
// Each admitted hunk is applied immediately so the change is visible; a new
// edit to a field that already has a pending hunk replaces that hunk instead
// of stacking on top of it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/louisbranch/starpatch/internal/services/universe/domain/diff"
	"github.com/louisbranch/starpatch/internal/services/universe/domain/hunk"
)

// ErrIndexOutOfRange is returned by Remove for an unknown pending index.
var ErrIndexOutOfRange = errors.New("editor: pending index out of range")

// Session is a set of pending hunks applied to the world.
type Session struct {
	patcher diff.Patcher
	bracket diff.Bracket
	logger  *log.Logger
	pending []hunk.Hunk
}

// NewSession returns an empty session. logger may be nil.
func NewSession(patcher diff.Patcher, bracket diff.Bracket, logger *log.Logger) (*Session, error) {
	if patcher == nil {
		return nil, diff.ErrPatcherRequired
	}
	if bracket == nil {
		return nil, diff.ErrBracketRequired
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Session{patcher: patcher, bracket: bracket, logger: logger}, nil
}

// Admit applies h. When a pending hunk addresses the same slot it is reverted
// first and replaced; if h then fails, the previous hunk is re-applied and
// the session is unchanged.
func (s *Session) Admit(ctx context.Context, h hunk.Hunk) error {
	s.bracket.Start()
	defer s.bracket.End(ctx)

	h = h.Clone()
	h.Old = nil
	i := slices.IndexFunc(s.pending, func(p hunk.Hunk) bool { return p.SameSlot(h) })
	if i < 0 {
		if err := s.patcher.Apply(&h); err != nil {
			return fmt.Errorf("admit %s: %w", h, err)
		}
		s.pending = append(s.pending, h)
		return nil
	}

	previous := &s.pending[i]
	if err := s.patcher.Revert(previous); err != nil {
		return fmt.Errorf("replace %s: revert pending: %w", previous, err)
	}
	if err := s.patcher.Apply(&h); err != nil {
		if restoreErr := s.patcher.Apply(previous); restoreErr != nil {
			s.logger.Printf("editor: failed to restore %s: %v", previous, restoreErr)
			s.pending = slices.Delete(s.pending, i, i+1)
		}
		return fmt.Errorf("replace %s: %w", h, err)
	}
	s.pending[i] = h
	return nil
}

// Remove reverts and drops the pending hunk at index i.
func (s *Session) Remove(ctx context.Context, i int) error {
	if i < 0 || i >= len(s.pending) {
		return ErrIndexOutOfRange
	}
	s.bracket.Start()
	defer s.bracket.End(ctx)

	if err := s.patcher.Revert(&s.pending[i]); err != nil {
		return fmt.Errorf("remove %s: %w", s.pending[i], err)
	}
	s.pending = slices.Delete(s.pending, i, i+1)
	return nil
}

// Pending returns copies of the pending hunks in admission order.
func (s *Session) Pending() []hunk.Hunk {
	out := make([]hunk.Hunk, 0, len(s.pending))
	for _, h := range s.pending {
		out = append(out, h.Clone())
	}
	return out
}

// Discard reverts every pending hunk, most recent first, and empties the
// session. Revert failures are logged.
func (s *Session) Discard(ctx context.Context) {
	s.bracket.Start()
	defer s.bracket.End(ctx)

	for i := len(s.pending) - 1; i >= 0; i-- {
		if err := s.patcher.Revert(&s.pending[i]); err != nil {
			s.logger.Printf("editor: failed to revert %s: %v", s.pending[i], err)
		}
	}
	s.pending = nil
}

// Export returns the pending hunks as a definition named name. The session
// keeps its hunks applied.
func (s *Session) Export(name string) *diff.Definition {
	return diff.NewDefinition(name, "", s.pending)
}
