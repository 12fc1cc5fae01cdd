package models

import (
	"time"
)

// Pipeline is an ordered set of deal stages.
type Pipeline struct {
	BaseModel
	Name      string `gorm:"uniqueIndex;size:80;not null" json:"name"`
	IsDefault bool   `json:"isDefault"`

	Stages []Stage `gorm:"foreignKey:PipelineID;constraint:OnDelete:CASCADE" json:"stages,omitempty"`
}

// Stage is one column of the kanban board.
type Stage struct {
	BaseModel
	PipelineID string `gorm:"size:36;not null;uniqueIndex:uniq_stage_pipeline_name,priority:1" json:"pipelineId"`
	Name       string `gorm:"size:80;not null;uniqueIndex:uniq_stage_pipeline_name,priority:2" json:"name"`
	Position   int    `gorm:"not null;default:0" json:"order"`
}

// DealStatus tracks whether a deal is still being worked.
type DealStatus string

const (
	DealOpen DealStatus = "open"
	DealWon  DealStatus = "won"
	DealLost DealStatus = "lost"
)

// Valid reports whether s is a known deal status.
func (s DealStatus) Valid() bool {
	switch s {
	case DealOpen, DealWon, DealLost:
		return true
	}
	return false
}

// Deal is an opportunity moving through a pipeline.
type Deal struct {
	BaseModel
	Title          string     `gorm:"size:180;not null" json:"title"`
	OrganizationID *string    `gorm:"size:36;index" json:"organizationId"`
	ContactID      *string    `gorm:"size:36;index" json:"contactId"`
	Amount         float64    `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	PipelineID     string     `gorm:"size:36;not null;index" json:"pipelineId"`
	StageID        string     `gorm:"size:36;not null;index" json:"stageId"`
	Status         DealStatus `gorm:"size:10;default:'open'" json:"status"`
	ExpectedClose  *time.Time `gorm:"type:date" json:"expectedClose,omitempty"`
	OwnerID        *string    `gorm:"size:36;index" json:"ownerId"`

	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:SET NULL" json:"-"`
	Contact      *Doctor       `gorm:"foreignKey:ContactID;constraint:OnDelete:SET NULL" json:"-"`
	Pipeline     *Pipeline     `gorm:"foreignKey:PipelineID;constraint:OnDelete:RESTRICT" json:"-"`
	Stage        *Stage        `gorm:"foreignKey:StageID;constraint:OnDelete:RESTRICT" json:"-"`
	Owner        *User         `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}
