package repository

import (
	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/question"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"assessment_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func byOrder() clause.OrderByColumn {
	return clause.OrderByColumn{Column: clause.Column{Name: "order"}}
}

func (r *SessionRepository) FindSessionByID(ctx context.Context, id uint) (*model.AssessmentSession, error) {
	var s model.AssessmentSession
	err := r.DB.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSessionNotFound
	}
	return &s, err
}

// LoadQuestions returns the question set of c's session together with the
// responses already persisted for c.
func (r *SessionRepository) LoadQuestions(ctx context.Context, c resolver.Context) (*question.Loaded, error) {
	sess, err := r.FindSessionByID(ctx, uint(c.SessionID))
	if err != nil {
		return nil, err
	}

	var (
		sections  []model.SessionSection
		links     []model.SessionQuestion
		responses []model.SessionResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.DB.WithContext(gctx).
			Where("session_id = ?", c.SessionID).
			Order(byOrder()).Order("id").
			Find(&sections).Error
	})
	g.Go(func() error {
		return r.DB.WithContext(gctx).
			Where("session_id = ?", c.SessionID).
			Order(byOrder()).Order("id").
			Find(&links).Error
	})
	g.Go(func() error {
		return r.DB.WithContext(gctx).
			Where("session_id = ? AND respondent_id = ? AND perspective = ? AND subject_id = ?",
				c.SessionID, c.RespondentID, string(c.Perspective), c.SubjectID).
			Find(&responses).Error
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bySection := make(map[uint][]question.Link, len(sections))
	for _, l := range links {
		ql, err := toLink(l)
		if err != nil {
			return nil, err
		}
		bySection[l.SectionID] = append(bySection[l.SectionID], ql)
	}

	out := &question.Loaded{
		Session: question.SessionInfo{ID: int(sess.ID), Name: sess.Name, State: string(sess.State)},
	}
	for _, s := range sections {
		out.Sections = append(out.Sections, question.Section{
			ID:        int(s.ID),
			Title:     s.Title,
			Order:     s.Order,
			Questions: bySection[s.ID],
		})
	}
	for _, resp := range responses {
		rec, err := toRecord(resp)
		if err != nil {
			return nil, err
		}
		out.PriorResponses = append(out.PriorResponses, rec)
	}
	return out, nil
}

func toLink(q model.SessionQuestion) (question.Link, error) {
	l := question.Link{
		LinkID:     int(q.ID),
		QuestionID: int(q.QuestionID),
		SectionID:  int(q.SectionID),
		Order:      q.Order,
		Required:   q.Required,
		Kind:       answer.Kind(q.QuestionType),
		Text:       q.Text,
		MinScale:   q.MinScale,
		MaxScale:   q.MaxScale,
	}
	if len(q.Options) > 0 {
		if err := json.Unmarshal(q.Options, &l.Options); err != nil {
			return l, fmt.Errorf("question link %d options: %w", q.ID, err)
		}
	}
	return l, nil
}

func toRecord(r model.SessionResponse) (answer.Record, error) {
	rec := answer.Record{
		LinkID:      int(r.LinkID),
		TextValue:   r.TextValue,
		ScaleValue:  r.ScaleValue,
		OptionValue: r.OptionValue,
	}
	if len(r.OptionValues) > 0 {
		if err := json.Unmarshal(r.OptionValues, &rec.OptionValues); err != nil {
			return rec, fmt.Errorf("response %d option values: %w", r.ID, err)
		}
	}
	return rec, nil
}
