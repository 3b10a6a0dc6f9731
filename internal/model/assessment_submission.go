package model

import "gorm.io/datatypes"

// SessionAssignment grants a respondent one perspective in a session.
// SubjectID is 0 for SELF.
// swagger:model SessionAssignment
type SessionAssignment struct {
	BaseModel
	SessionID    uint   `gorm:"uniqueIndex:idx_assignment;not null" json:"sessionId"`
	RespondentID uint   `gorm:"uniqueIndex:idx_assignment;not null" json:"respondentId"`
	Perspective  string `gorm:"uniqueIndex:idx_assignment;size:20;not null" json:"perspective"`
	SubjectID    uint   `gorm:"uniqueIndex:idx_assignment;default:0" json:"subjectId"`
}

func (SessionAssignment) TableName() string {
	return "session_assignments"
}

// SessionResponse is the persisted answer of one link for one
// (respondent, perspective, subject). Exactly one value column is set.
// swagger:model SessionResponse
type SessionResponse struct {
	BaseModel
	SessionID    uint           `gorm:"uniqueIndex:idx_response;not null" json:"sessionId"`
	LinkID       uint           `gorm:"uniqueIndex:idx_response;not null" json:"linkId"`
	RespondentID uint           `gorm:"uniqueIndex:idx_response;not null" json:"respondentId"`
	Perspective  string         `gorm:"uniqueIndex:idx_response;size:20;not null" json:"perspective"`
	SubjectID    uint           `gorm:"uniqueIndex:idx_response;default:0" json:"subjectId"`
	TextValue    *string        `gorm:"type:text" json:"textValue,omitempty"`
	ScaleValue   *int           `json:"scaleValue,omitempty"`
	OptionValue  *string        `gorm:"size:255" json:"optionValue,omitempty"`
	OptionValues datatypes.JSON `json:"optionValues,omitempty"`
}

func (SessionResponse) TableName() string {
	return "session_responses"
}
