package repository

import (
	"assessment_backend/internal/engine/resolver"
	"assessment_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *model.SessionAssignment) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

// Assignment builds the directory snapshot for a respondent. Perspectives
// keep the order in which they were first assigned.
func (r *AssignmentRepository) Assignment(ctx context.Context, sessionID, respondentID int) (resolver.Assignment, error) {
	var rows []model.SessionAssignment
	err := r.DB.WithContext(ctx).
		Where("session_id = ? AND respondent_id = ?", sessionID, respondentID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return resolver.Assignment{}, err
	}

	a := resolver.Assignment{Subjects: map[resolver.Perspective][]int{}}
	seen := map[resolver.Perspective]bool{}
	for _, row := range rows {
		p := resolver.Perspective(row.Perspective)
		if !seen[p] {
			seen[p] = true
			a.Perspectives = append(a.Perspectives, p)
		}
		if p != resolver.PerspectiveSelf && row.SubjectID != 0 {
			a.Subjects[p] = append(a.Subjects[p], int(row.SubjectID))
		}
	}
	return a, nil
}

// SubjectNames resolves display names for the subject picker.
func (r *AssignmentRepository) SubjectNames(ctx context.Context, ids []int) (map[int]string, error) {
	out := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.DB.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[int(u.ID)] = u.Name
	}
	return out, nil
}
