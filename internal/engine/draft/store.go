// Package draft keeps a respondent's in-progress answers next to the last
// answers known to be persisted.
package draft

import (
	"errors"
	"fmt"
	"sort"

	"assessment_backend/internal/engine/answer"
)

var (
	ErrNotLoaded   = errors.New("draft store used before load")
	ErrUnknownLink = errors.New("link is not part of the loaded question set")
)

type Status string

const (
	StatusUnanswered Status = "UNANSWERED"
	StatusPending    Status = "PENDING"
	StatusAnswered   Status = "ANSWERED"
)

// Store holds the server and draft answer maps for one assignment context.
// It is not safe for concurrent use; the owning workspace serialises access.
type Store struct {
	loaded bool
	links  map[int]struct{}
	server answer.Map
	draft  answer.Map
}

func NewStore() *Store {
	return &Store{}
}

// Load discards any previous state and starts both maps from snapshot.
// Snapshot entries for links outside linkIDs are dropped.
func (s *Store) Load(linkIDs []int, snapshot answer.Map) {
	s.Reset()
	s.links = make(map[int]struct{}, len(linkIDs))
	for _, id := range linkIDs {
		s.links[id] = struct{}{}
	}
	s.server = make(answer.Map, len(snapshot))
	for id, v := range snapshot {
		if _, ok := s.links[id]; ok {
			s.server[id] = v
		}
	}
	s.draft = s.server.Clone()
	s.loaded = true
}

// Reset tears the store down; it must be loaded again before use.
func (s *Store) Reset() {
	s.loaded = false
	s.links = nil
	s.server = nil
	s.draft = nil
}

func (s *Store) Loaded() bool { return s.loaded }

func (s *Store) check(linkID int) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	if _, ok := s.links[linkID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLink, linkID)
	}
	return nil
}

// SetAnswer replaces the draft answer. No validation happens here.
func (s *Store) SetAnswer(linkID int, v answer.Value) error {
	if err := s.check(linkID); err != nil {
		return err
	}
	s.draft[linkID] = v
	return nil
}

// Revert drops the local edit so the draft matches the server again.
func (s *Store) Revert(linkID int) error {
	if err := s.check(linkID); err != nil {
		return err
	}
	if v, ok := s.server[linkID]; ok {
		s.draft[linkID] = v
	} else {
		delete(s.draft, linkID)
	}
	return nil
}

func (s *Store) Draft(linkID int) *answer.Value  { return s.draft.Get(linkID) }
func (s *Store) Server(linkID int) *answer.Value { return s.server.Get(linkID) }

// Status derives the state of one question from its draft and server values.
func (s *Store) Status(linkID int) Status {
	return statusOf(s.draft.Get(linkID), s.server.Get(linkID))
}

func statusOf(d, srv *answer.Value) Status {
	switch {
	case d == nil && srv == nil:
		return StatusUnanswered
	case d != nil && !answer.Equal(d, srv):
		return StatusPending
	default:
		return StatusAnswered
	}
}

// touched lists the links present in either map, ascending.
func (s *Store) touched() []int {
	seen := make(map[int]struct{}, len(s.draft)+len(s.server))
	for id := range s.draft {
		seen[id] = struct{}{}
	}
	for id := range s.server {
		seen[id] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (s *Store) PendingCount() int {
	n := 0
	for _, id := range s.touched() {
		if s.Status(id) == StatusPending {
			n++
		}
	}
	return n
}

func (s *Store) AnsweredCount() int {
	n := 0
	for _, id := range s.touched() {
		if s.Status(id) != StatusUnanswered {
			n++
		}
	}
	return n
}

// Pending returns the draft values of every pending link. This is the
// batch a bulk save should transmit.
func (s *Store) Pending() answer.Map {
	out := answer.Map{}
	for _, id := range s.touched() {
		if s.Status(id) == StatusPending {
			out[id] = s.draft[id]
		}
	}
	return out
}

// CommitSaved merges the successfully persisted subset into the server map.
// Entries outside saved are untouched. Calling it twice with the same subset
// is a no-op the second time. Unknown links reject the whole call.
func (s *Store) CommitSaved(saved answer.Map) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	for id := range saved {
		if err := s.check(id); err != nil {
			return err
		}
	}
	for id, v := range saved {
		s.server[id] = v
	}
	return nil
}
