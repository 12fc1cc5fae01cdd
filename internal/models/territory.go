package models

import (
	"time"
)

// Representative is the field profile of a user.
type Representative struct {
	BaseModel
	UserID string `gorm:"size:36;uniqueIndex;not null" json:"userId"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
}

// Territory groups doctors for assignment.
type Territory struct {
	BaseModel
	Name   string `gorm:"uniqueIndex;size:80;not null" json:"name"`
	Region string `gorm:"size:80" json:"region"`
}

// Assignment links a doctor to a representative within a territory. An
// active assignment lets the representative see the doctor without owning it.
type Assignment struct {
	BaseModel
	DoctorID         string     `gorm:"size:36;not null;uniqueIndex:uniq_assignment,priority:1" json:"doctorId"`
	RepresentativeID string     `gorm:"size:36;not null;uniqueIndex:uniq_assignment,priority:2;index" json:"representativeId"`
	TerritoryID      string     `gorm:"size:36;not null;uniqueIndex:uniq_assignment,priority:3" json:"territoryId"`
	Active           bool       `gorm:"not null" json:"active"`
	MonthlyTarget    uint       `gorm:"not null;default:1" json:"monthlyTarget"`
	StartDate        time.Time  `gorm:"type:date;not null" json:"startDate"`
	EndDate          *time.Time `gorm:"type:date" json:"endDate,omitempty"`

	Doctor         Doctor         `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	Representative Representative `gorm:"foreignKey:RepresentativeID;constraint:OnDelete:CASCADE" json:"-"`
	Territory      Territory      `gorm:"foreignKey:TerritoryID;constraint:OnDelete:RESTRICT" json:"-"`
}
