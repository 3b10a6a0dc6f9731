package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/commit"
	"assessment_backend/internal/engine/draft"
	"assessment_backend/internal/engine/navigation"
	"assessment_backend/internal/engine/question"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/engine/ticks"
	"assessment_backend/internal/model"
	"assessment_backend/internal/util"
	"assessment_backend/pkg/logger"
	"assessment_backend/pkg/monitoring"
	"assessment_backend/pkg/tracing"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type QuestionLoader interface {
	LoadQuestions(ctx context.Context, c resolver.Context) (*question.Loaded, error)
}

// ResponseSaver persists a batch and reports which links were written. A
// partial write returns the written ids together with a non-nil error.
type ResponseSaver interface {
	SaveResponses(ctx context.Context, c resolver.Context, rows []answer.Payload) ([]int, error)
}

type AssignmentDirectory interface {
	Assignment(ctx context.Context, sessionID, respondentID int) (resolver.Assignment, error)
}

// EventSink receives the side effects of a workspace. Push must not call
// back into the workspace.
type EventSink interface {
	Push(workspaceID string, msg WSMessage)
}

type Trigger string

const (
	// TriggerEdit keeps the edited question centred (typing, toggles).
	TriggerEdit Trigger = "edit"
	// TriggerAdvance moves focus to the next question (choice clicks).
	TriggerAdvance Trigger = "advance"
	// TriggerDrag is one event of a continuous slider drag.
	TriggerDrag Trigger = "drag"
)

func (t Trigger) Valid() bool {
	switch t {
	case TriggerEdit, TriggerAdvance, TriggerDrag:
		return true
	}
	return false
}

// Settings are the live-tunable engine knobs.
type Settings struct {
	Debounce        time.Duration
	DesiredTicks    int
	AdvanceOnSettle bool
}

func DefaultSettings() Settings {
	return Settings{
		Debounce:        commit.DefaultDelay,
		DesiredTicks:    ticks.DefaultDesiredCount,
		AdvanceOnSettle: true,
	}
}

// Workspace is one respondent answering one session. All engine state is
// guarded by mu; the scheduler's settle callback re-enters through onSettle
// and drops itself when the answer context has moved on.
type Workspace struct {
	ID           string
	OwnerID      uint
	SessionID    int
	RespondentID int

	loader    QuestionLoader
	saver     ResponseSaver
	directory AssignmentDirectory
	sink      EventSink
	clock     clock.Clock

	mu         sync.Mutex
	settings   Settings
	res        *resolver.Resolver
	store      *draft.Store
	sched      *commit.Scheduler
	cursor     *navigation.Cursor
	session    question.SessionInfo
	sections   []question.Section
	links      map[int]question.Link
	loadedCtx  resolver.Context
	hasCtx     bool
	ctxGen     uint64
	closed     bool
	lastActive time.Time
}

type workspaceDeps struct {
	loader    QuestionLoader
	saver     ResponseSaver
	directory AssignmentDirectory
	sink      EventSink
	clock     clock.Clock
}

func newWorkspace(id string, ownerID uint, sessionID, respondentID int, deps workspaceDeps, settings Settings) *Workspace {
	w := &Workspace{
		ID:           id,
		OwnerID:      ownerID,
		SessionID:    sessionID,
		RespondentID: respondentID,
		loader:       deps.loader,
		saver:        deps.saver,
		directory:    deps.directory,
		sink:         deps.sink,
		clock:        deps.clock,
		settings:     settings,
		res:          resolver.New(),
		store:        draft.NewStore(),
		lastActive:   deps.clock.Now(),
	}
	w.sched = commit.New(w.store,
		commit.WithClock(deps.clock),
		commit.WithDelay(settings.Debounce),
		commit.OnIntent(w.onIntent),
		commit.OnSettle(w.onSettle),
	)
	w.cursor = navigation.New(nil, w.onFocus)
	w.res.Reset(sessionID, respondentID)
	return w
}

// Open reads the respondent's assignment, lets the resolver auto-select a
// perspective and subject, and loads the question set when it can.
func (w *Workspace) Open(ctx context.Context) error {
	return w.ReloadAssignment(ctx)
}

// ReloadAssignment refreshes the directory snapshot. Selections that are no
// longer valid are corrected and the draft is reloaded if the context moved.
func (w *Workspace) ReloadAssignment(ctx context.Context) error {
	a, err := w.directory.Assignment(ctx, w.SessionID, w.RespondentID)
	if err != nil {
		return fmt.Errorf("load assignment: %w", err)
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return util.ErrWorkspaceClosed
	}
	w.res.Apply(a)
	w.mu.Unlock()
	return w.reload(ctx)
}

func (w *Workspace) SelectPerspective(ctx context.Context, p resolver.Perspective) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return util.ErrWorkspaceClosed
	}
	err := w.res.SelectPerspective(p)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	return w.reload(ctx)
}

func (w *Workspace) SelectSubject(ctx context.Context, subjectID int) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return util.ErrWorkspaceClosed
	}
	err := w.res.SelectSubject(subjectID)
	w.mu.Unlock()
	if err != nil {
		return err
	}
	return w.reload(ctx)
}

// reload brings the draft store in line with the resolver. Unsaved drafts of
// the previous context are discarded and its pending settles are dropped.
func (w *Workspace) reload(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return util.ErrWorkspaceClosed
	}
	c, ok := w.res.Context()
	if ok && w.hasCtx && c == w.loadedCtx && w.store.Loaded() {
		w.mu.Unlock()
		return nil
	}
	w.teardownLocked()
	gen := w.ctxGen
	w.pushContextLocked()
	w.mu.Unlock()
	if !ok {
		return nil
	}

	ctx, span := tracing.Tracer.Start(ctx, "workspace.load")
	span.SetAttributes(
		attribute.Int("session.id", c.SessionID),
		attribute.String("perspective", string(c.Perspective)),
		attribute.Int("subject.id", c.SubjectID),
	)
	defer span.End()

	loaded, err := w.loader.LoadQuestions(ctx, c)
	tracing.RecordError(span, err)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return util.ErrWorkspaceClosed
	}
	if gen != w.ctxGen {
		// a newer context change owns the store now
		return nil
	}
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	w.installLocked(c, loaded)
	w.pushContextLocked()
	return nil
}

func (w *Workspace) teardownLocked() {
	w.sched.Reset()
	w.store.Reset()
	w.cursor = navigation.New(nil, w.onFocus)
	w.sections = nil
	w.links = nil
	w.hasCtx = false
	w.ctxGen++
}

func (w *Workspace) installLocked(c resolver.Context, loaded *question.Loaded) {
	w.session = loaded.Session
	w.sections = loaded.Sections
	flat := question.Flatten(loaded.Sections)
	w.links = make(map[int]question.Link, len(flat))
	for _, l := range flat {
		w.links[l.LinkID] = l
	}
	ids := question.LinkIDs(flat)
	w.cursor = navigation.New(ids, w.onFocus)

	snapshot := answer.Map{}
	for _, rec := range loaded.PriorResponses {
		l, ok := w.links[rec.LinkID]
		if !ok {
			continue
		}
		v, err := answer.FromRecord(l.Kind, rec)
		if err != nil {
			logger.Log.Warn("Skipping unreadable prior response",
				zap.String("workspace", w.ID),
				zap.Int("linkId", rec.LinkID),
				zap.Error(err))
			continue
		}
		snapshot[rec.LinkID] = v
	}
	w.store.Load(ids, snapshot)
	w.loadedCtx = c
	w.hasCtx = true

	logger.Log.Debug("Workspace loaded",
		zap.String("workspace", w.ID),
		zap.Int("links", len(ids)),
		zap.Int("prior", len(snapshot)))
}

func (w *Workspace) readyLocked() error {
	if w.closed {
		return util.ErrWorkspaceClosed
	}
	if !w.store.Loaded() {
		return util.ErrContextNotReady
	}
	if w.session.State == string(model.SessionClosed) {
		return util.ErrSessionClosed
	}
	return nil
}

func (w *Workspace) linkLocked(linkID int) (question.Link, error) {
	l, ok := w.links[linkID]
	if !ok {
		return question.Link{}, fmt.Errorf("%w: %d", util.ErrQuestionNotFound, linkID)
	}
	return l, nil
}

// SetAnswer validates v against the question and routes it through the
// commit scheduler.
func (w *Workspace) SetAnswer(linkID int, v answer.Value, trigger Trigger) (ItemView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.readyLocked(); err != nil {
		return ItemView{}, err
	}
	l, err := w.linkLocked(linkID)
	if err != nil {
		return ItemView{}, err
	}
	if err := question.Validate(l, v); err != nil {
		return ItemView{}, err
	}
	w.lastActive = w.clock.Now()

	switch trigger {
	case TriggerDrag:
		err = w.sched.Continuous(linkID, v)
	case TriggerAdvance:
		err = w.sched.Immediate(linkID, v, true)
	default:
		err = w.sched.Immediate(linkID, v, false)
	}
	if err != nil {
		return ItemView{}, err
	}
	item := w.itemLocked(l)
	w.pushStatusLocked(item)
	return item, nil
}

// Drag snaps a slider position onto the scale and records it as a
// continuous edit.
func (w *Workspace) Drag(linkID int, position float64) (ItemView, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return ItemView{}, err
	}
	l, ok := w.links[linkID]
	w.mu.Unlock()
	if !ok {
		return ItemView{}, fmt.Errorf("%w: %d", util.ErrQuestionNotFound, linkID)
	}
	v, err := l.SnapScale(position)
	if err != nil {
		return ItemView{}, err
	}
	return w.SetAnswer(linkID, v, TriggerDrag)
}

// Revert drops the local edit of linkID and any burst still settling on it.
func (w *Workspace) Revert(linkID int) (ItemView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.readyLocked(); err != nil {
		return ItemView{}, err
	}
	l, err := w.linkLocked(linkID)
	if err != nil {
		return ItemView{}, err
	}
	w.sched.Cancel(linkID)
	if err := w.store.Revert(linkID); err != nil {
		return ItemView{}, err
	}
	w.lastActive = w.clock.Now()
	item := w.itemLocked(l)
	w.pushStatusLocked(item)
	return item, nil
}

type SaveResult struct {
	Saved   []int `json:"saved"`
	Failed  []int `json:"failed"`
	Pending int   `json:"pending"`
}

// Save sends every pending draft to the response saver. Only the links the
// saver reports as written are committed, and only if the answer context
// did not change while the save was in flight.
func (w *Workspace) Save(ctx context.Context) (SaveResult, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return SaveResult{}, err
	}
	c := w.loadedCtx
	gen := w.ctxGen
	batch := w.store.Pending()
	w.lastActive = w.clock.Now()
	w.mu.Unlock()

	if len(batch) == 0 {
		return SaveResult{Saved: []int{}, Failed: []int{}}, nil
	}

	ids := make([]int, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	rows := make([]answer.Payload, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, answer.ToPayload(id, batch[id]))
	}

	ctx, span := tracing.Tracer.Start(ctx, "workspace.save")
	span.SetAttributes(attribute.Int("batch.size", len(rows)))
	written, saveErr := w.saver.SaveResponses(ctx, c, rows)
	tracing.RecordError(span, saveErr)
	span.End()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return SaveResult{}, util.ErrWorkspaceClosed
	}
	if gen != w.ctxGen {
		monitoring.StaleSettles.Inc()
		return SaveResult{}, util.ErrContextChanged
	}

	committed := answer.Map{}
	for _, id := range written {
		if v, ok := batch[id]; ok {
			committed[id] = v
		}
	}
	if err := w.store.CommitSaved(committed); err != nil {
		return SaveResult{}, err
	}

	res := SaveResult{Saved: []int{}, Failed: []int{}}
	for _, id := range ids {
		if _, ok := committed[id]; ok {
			res.Saved = append(res.Saved, id)
		} else {
			res.Failed = append(res.Failed, id)
		}
	}
	res.Pending = w.store.PendingCount()
	monitoring.AnswersSaved.WithLabelValues("saved").Add(float64(len(res.Saved)))
	monitoring.AnswersSaved.WithLabelValues("failed").Add(float64(len(res.Failed)))

	w.push(WSMessage{Type: util.MessageSaved, Data: res})
	if saveErr != nil {
		logger.Log.Warn("Partial save",
			zap.String("workspace", w.ID),
			zap.Ints("failed", res.Failed),
			zap.Error(saveErr))
		return res, fmt.Errorf("save responses: %w", saveErr)
	}
	return res, nil
}

// ApplySettings updates the engine knobs. The new debounce applies to
// bursts started afterwards.
func (w *Workspace) ApplySettings(s Settings) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.settings = s
	w.sched.SetDelay(s.Debounce)
}

// Close tears the workspace down. Pending settles never fire afterwards.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	w.sched.Close()
	w.store.Reset()
	w.ctxGen++
}

func (w *Workspace) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workspace) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// onIntent runs synchronously inside Immediate, with mu already held.
func (w *Workspace) onIntent(in commit.Intent) {
	if in.Advance {
		w.cursor.Advance(in.LinkID)
	} else {
		w.cursor.Hold(in.LinkID)
	}
}

// onSettle runs on the clock's goroutine once a drag burst has gone quiet.
func (w *Workspace) onSettle(ev commit.Settled) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || ev.Generation != w.sched.Generation() || !w.store.Loaded() {
		monitoring.StaleSettles.Inc()
		return
	}
	l, ok := w.links[ev.LinkID]
	if !ok {
		return
	}
	monitoring.SettleEvents.Inc()
	if w.settings.AdvanceOnSettle {
		w.cursor.Advance(ev.LinkID)
	} else {
		w.cursor.Hold(ev.LinkID)
	}
	item := w.itemLocked(l)
	w.push(WSMessage{Type: util.MessageSettled, Data: SettledEvent{
		LinkID: ev.LinkID,
		Value:  ev.Value,
		Status: item.Status,
	}})
}

func (w *Workspace) onFocus(r navigation.FocusRequest) {
	w.push(WSMessage{Type: util.MessageFocus, Data: r})
}

func (w *Workspace) push(msg WSMessage) {
	if w.sink != nil {
		w.sink.Push(w.ID, msg)
	}
}

func (w *Workspace) pushStatusLocked(item ItemView) {
	w.push(WSMessage{Type: util.MessageStatus, Data: StatusEvent{
		LinkID:        item.Question.LinkID,
		Status:        item.Status,
		PendingCount:  w.store.PendingCount(),
		AnsweredCount: w.store.AnsweredCount(),
	}})
}

func (w *Workspace) pushContextLocked() {
	w.push(WSMessage{Type: util.MessageContext, Data: ContextEvent{
		Resolver: w.res.State(),
		Loaded:   w.store.Loaded(),
	}})
}

type SettledEvent struct {
	LinkID int          `json:"linkId"`
	Value  answer.Value `json:"value"`
	Status draft.Status `json:"status"`
}

type StatusEvent struct {
	LinkID        int          `json:"linkId"`
	Status        draft.Status `json:"status"`
	PendingCount  int          `json:"pendingCount"`
	AnsweredCount int          `json:"answeredCount"`
}

type ContextEvent struct {
	Resolver resolver.State `json:"resolver"`
	Loaded   bool           `json:"loaded"`
}

// ItemView is one question as the rendering layer sees it.
type ItemView struct {
	Question question.Link `json:"question"`
	Status   draft.Status  `json:"status"`
	Draft    *answer.Value `json:"draft"`
	Server   *answer.Value `json:"server"`
	Ticks    []int         `json:"ticks,omitempty"`
}

type SectionView struct {
	ID    int        `json:"id"`
	Title string     `json:"title"`
	Items []ItemView `json:"items"`
}

type WorkspaceView struct {
	ID            string               `json:"id"`
	Session       question.SessionInfo `json:"session"`
	Resolver      resolver.State       `json:"resolver"`
	Loaded        bool                 `json:"loaded"`
	Sections      []SectionView        `json:"sections"`
	Total         int                  `json:"total"`
	AnsweredCount int                  `json:"answeredCount"`
	PendingCount  int                  `json:"pendingCount"`
}

func (w *Workspace) itemLocked(l question.Link) ItemView {
	item := ItemView{
		Question: l,
		Status:   w.store.Status(l.LinkID),
		Draft:    w.store.Draft(l.LinkID),
		Server:   w.store.Server(l.LinkID),
	}
	if l.Kind == answer.KindScale {
		item.Ticks = l.Ticks(w.settings.DesiredTicks)
	}
	return item
}

// Snapshot renders the whole workspace in display order.
func (w *Workspace) Snapshot() WorkspaceView {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := WorkspaceView{
		ID:       w.ID,
		Session:  w.session,
		Resolver: w.res.State(),
		Loaded:   w.store.Loaded(),
		Sections: []SectionView{},
	}
	if !v.Loaded {
		return v
	}
	secs := append([]question.Section(nil), w.sections...)
	sort.SliceStable(secs, func(i, j int) bool { return secs[i].Order < secs[j].Order })
	for _, s := range secs {
		sv := SectionView{ID: s.ID, Title: s.Title, Items: []ItemView{}}
		for _, l := range question.Flatten([]question.Section{s}) {
			sv.Items = append(sv.Items, w.itemLocked(l))
			v.Total++
		}
		v.Sections = append(v.Sections, sv)
	}
	v.AnsweredCount = w.store.AnsweredCount()
	v.PendingCount = w.store.PendingCount()
	return v
}

// Item returns a single question view.
func (w *Workspace) Item(linkID int) (ItemView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.store.Loaded() {
		return ItemView{}, util.ErrContextNotReady
	}
	l, err := w.linkLocked(linkID)
	if err != nil {
		return ItemView{}, err
	}
	return w.itemLocked(l), nil
}

// IsValidationError reports whether err came from answer validation rather
// than from the engine or its collaborators.
func IsValidationError(err error) bool {
	for _, target := range []error{
		question.ErrKindMismatch,
		question.ErrOutOfRange,
		question.ErrUnknownOption,
		question.ErrEmptyChoice,
		question.ErrNotScale,
		answer.ErrMalformed,
		answer.ErrUnknownKind,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
