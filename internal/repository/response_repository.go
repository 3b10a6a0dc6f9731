package repository

import (
	"assessment_backend/internal/engine/answer"
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponseRepository struct {
	DB *gorm.DB
}

func NewResponseRepository(db *gorm.DB) *ResponseRepository {
	return &ResponseRepository{DB: db}
}

// SaveResponses upserts each row on its own so one bad row does not sink
// the batch. It returns the link ids that were written; failures are joined
// into the returned error.
func (r *ResponseRepository) SaveResponses(ctx context.Context, c resolver.Context, rows []answer.Payload) ([]int, error) {
	var (
		saved []int
		errs  []error
	)
	for _, p := range rows {
		resp, err := toResponse(c, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		err = r.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "session_id"}, {Name: "link_id"}, {Name: "respondent_id"},
				{Name: "perspective"}, {Name: "subject_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"text_value", "scale_value", "option_value", "option_values", "updated_at",
			}),
		}).Create(resp).Error
		if err != nil {
			errs = append(errs, fmt.Errorf("link %d: %w", p.LinkID, err))
			continue
		}
		saved = append(saved, p.LinkID)
	}
	return saved, errors.Join(errs...)
}

func toResponse(c resolver.Context, p answer.Payload) (*model.SessionResponse, error) {
	resp := &model.SessionResponse{
		SessionID:    uint(c.SessionID),
		LinkID:       uint(p.LinkID),
		RespondentID: uint(c.RespondentID),
		Perspective:  string(c.Perspective),
		SubjectID:    uint(c.SubjectID),
		TextValue:    p.TextValue,
		ScaleValue:   p.ScaleValue,
		OptionValue:  p.OptionValue,
	}
	if p.OptionValues != nil {
		b, err := json.Marshal(p.OptionValues)
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", p.LinkID, err)
		}
		resp.OptionValues = datatypes.JSON(b)
	}
	return resp, nil
}

func (r *ResponseRepository) ListResponses(ctx context.Context, c resolver.Context) ([]model.SessionResponse, error) {
	var rows []model.SessionResponse
	err := r.DB.WithContext(ctx).
		Where("session_id = ? AND respondent_id = ? AND perspective = ? AND subject_id = ?",
			c.SessionID, c.RespondentID, string(c.Perspective), c.SubjectID).
		Order("link_id").
		Find(&rows).Error
	return rows, err
}
