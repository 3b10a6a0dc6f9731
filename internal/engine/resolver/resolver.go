// Package resolver derives which perspective and subject a respondent is
// currently answering as, and whether the question set may be loaded.
package resolver

import (
	"errors"
	"fmt"
	"sort"
)

type Perspective string

const (
	PerspectiveSelf        Perspective = "SELF"
	PerspectivePeer        Perspective = "PEER"
	PerspectiveManager     Perspective = "MANAGER"
	PerspectiveFacilitator Perspective = "FACILITATOR"
	PerspectiveSystem      Perspective = "SYSTEM"
)

var (
	ErrNoRespondent           = errors.New("session and respondent are not set")
	ErrPerspectiveUnavailable = errors.New("perspective not available to respondent")
	ErrSubjectNotAllowed      = errors.New("subject not allowed for perspective")
)

// Assignment is the directory snapshot for one respondent in one session.
type Assignment struct {
	Perspectives []Perspective
	Subjects     map[Perspective][]int
}

// Context identifies what a draft store is loaded for. SubjectID is 0 for
// SELF.
type Context struct {
	SessionID    int
	RespondentID int
	Perspective  Perspective
	SubjectID    int
}

// State is a read-only view of the resolver.
type State struct {
	SessionID         int           `json:"sessionId,omitempty"`
	RespondentID      int           `json:"respondentId,omitempty"`
	Perspectives      []Perspective `json:"perspectives"`
	ActivePerspective *Perspective  `json:"activePerspective"`
	AllowedSubjectIDs []int         `json:"allowedSubjectIds"`
	ActiveSubjectID   *int          `json:"activeSubjectId"`
	CanLoad           bool          `json:"canLoad"`
}

// Resolver is a small state machine over perspective and subject selection.
// Every mutating call leaves it in a reconciled state.
type Resolver struct {
	sessionID    *int
	respondentID *int
	assignment   Assignment
	active       *Perspective
	subject      *int
}

func New() *Resolver {
	return &Resolver{}
}

// Reset binds a new session/respondent pair and clears every selection.
func (r *Resolver) Reset(sessionID, respondentID int) {
	r.sessionID = &sessionID
	r.respondentID = &respondentID
	r.assignment = Assignment{}
	r.active = nil
	r.subject = nil
}

// Apply replaces the directory snapshot and reconciles the selections.
func (r *Resolver) Apply(a Assignment) {
	r.assignment = Assignment{
		Perspectives: append([]Perspective(nil), a.Perspectives...),
		Subjects:     make(map[Perspective][]int, len(a.Subjects)),
	}
	for p, ids := range a.Subjects {
		r.assignment.Subjects[p] = append([]int(nil), ids...)
	}
	if r.active != nil && !r.available(*r.active) {
		r.active = nil
	}
	r.reconcile()
}

func (r *Resolver) SelectPerspective(p Perspective) error {
	if r.sessionID == nil || r.respondentID == nil {
		return ErrNoRespondent
	}
	if !r.available(p) {
		return fmt.Errorf("%w: %s", ErrPerspectiveUnavailable, p)
	}
	r.active = &p
	r.reconcile()
	return nil
}

func (r *Resolver) SelectSubject(id int) error {
	if r.active == nil || *r.active == PerspectiveSelf {
		return fmt.Errorf("%w: %d", ErrSubjectNotAllowed, id)
	}
	if !contains(r.allowed(), id) {
		return fmt.Errorf("%w: %d for %s", ErrSubjectNotAllowed, id, *r.active)
	}
	r.subject = &id
	return nil
}

func (r *Resolver) reconcile() {
	if r.active == nil && len(r.assignment.Perspectives) > 0 {
		first := r.assignment.Perspectives[0]
		r.active = &first
	}
	if r.active == nil || *r.active == PerspectiveSelf {
		r.subject = nil
		return
	}
	allowed := r.allowed()
	if r.subject != nil && contains(allowed, *r.subject) {
		return
	}
	r.subject = nil
	if len(allowed) > 0 {
		min := allowed[0]
		for _, id := range allowed[1:] {
			if id < min {
				min = id
			}
		}
		r.subject = &min
	}
}

func (r *Resolver) available(p Perspective) bool {
	for _, x := range r.assignment.Perspectives {
		if x == p {
			return true
		}
	}
	return false
}

func (r *Resolver) allowed() []int {
	if r.active == nil {
		return nil
	}
	return r.assignment.Subjects[*r.active]
}

// CanLoad gates the draft store: session, respondent and perspective must be
// set, and a subject is required unless the perspective is SELF.
func (r *Resolver) CanLoad() bool {
	if r.sessionID == nil || r.respondentID == nil || r.active == nil {
		return false
	}
	return *r.active == PerspectiveSelf || r.subject != nil
}

// Context returns the assignment context when CanLoad holds.
func (r *Resolver) Context() (Context, bool) {
	if !r.CanLoad() {
		return Context{}, false
	}
	c := Context{
		SessionID:    *r.sessionID,
		RespondentID: *r.respondentID,
		Perspective:  *r.active,
	}
	if r.subject != nil {
		c.SubjectID = *r.subject
	}
	return c, true
}

func (r *Resolver) State() State {
	st := State{
		Perspectives:      append([]Perspective{}, r.assignment.Perspectives...),
		AllowedSubjectIDs: sortedCopy(r.allowed()),
		CanLoad:           r.CanLoad(),
	}
	if r.sessionID != nil {
		st.SessionID = *r.sessionID
	}
	if r.respondentID != nil {
		st.RespondentID = *r.respondentID
	}
	if r.active != nil {
		p := *r.active
		st.ActivePerspective = &p
	}
	if r.subject != nil {
		id := *r.subject
		st.ActiveSubjectID = &id
	}
	return st
}

func contains(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func sortedCopy(ids []int) []int {
	out := append([]int{}, ids...)
	sort.Ints(out)
	return out
}
