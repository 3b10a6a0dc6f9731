package model

import "gorm.io/datatypes"

// SessionQuestion places a bank question inside a session section. Its ID is
// the link id answers are keyed by.
// swagger:model SessionQuestion
type SessionQuestion struct {
	BaseModel
	SessionID    uint           `gorm:"index;not null" json:"sessionId"`
	SectionID    uint           `gorm:"index;not null" json:"sectionId"`
	QuestionID   uint           `gorm:"index" json:"questionId"` // bank question
	Order        int            `gorm:"default:0" json:"order"`
	Required     bool           `gorm:"default:false" json:"required"`
	QuestionType string         `gorm:"size:20;not null" json:"questionType"` // TEXT, BOOLEAN, SINGLE_CHOICE, MULTI_CHOICE, SCALE
	Text         string         `gorm:"type:text;not null" json:"text"`
	Options      datatypes.JSON `json:"options,omitempty"` // JSON: []{key,label}
	MinScale     *int           `json:"minScale,omitempty"`
	MaxScale     *int           `json:"maxScale,omitempty"`
}

func (SessionQuestion) TableName() string {
	return "session_questions"
}
