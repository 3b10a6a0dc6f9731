package model

import "time"

type SessionState string

const (
	SessionDraft  SessionState = "draft"
	SessionOpen   SessionState = "open"
	SessionClosed SessionState = "closed"
)

// AssessmentSession is a scheduled run of an assessment template.
// swagger:model AssessmentSession
type AssessmentSession struct {
	BaseModel
	OrganizationID uint         `gorm:"index" json:"organizationId"`
	Name           string       `gorm:"size:255;not null" json:"name"`
	State          SessionState `gorm:"size:20;default:'draft'" json:"state"`
	OpensAt        *time.Time   `json:"opensAt,omitempty"`
	ClosesAt       *time.Time   `json:"closesAt,omitempty"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

// swagger:model SessionSection
type SessionSection struct {
	BaseModel
	SessionID uint   `gorm:"index;not null" json:"sessionId"`
	Title     string `gorm:"size:255" json:"title"`
	Order     int    `gorm:"default:0" json:"order"`
}

func (SessionSection) TableName() string {
	return "session_sections"
}
