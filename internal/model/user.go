package model

type UserRole string

const (
	Respondent  UserRole = "respondent"
	Facilitator UserRole = "facilitator"
	Admin       UserRole = "admin"
)

// User is the slice of the member directory the engine needs: respondents
// and the subjects they evaluate.
// swagger:model User
type User struct {
	BaseModel
	OrganizationID uint     `gorm:"index" json:"organizationId"`
	Name           string   `gorm:"size:100;not null" json:"name"`
	Email          string   `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Role           UserRole `gorm:"size:20;default:'respondent'" json:"role"`
}

func (User) TableName() string {
	return "users"
}
