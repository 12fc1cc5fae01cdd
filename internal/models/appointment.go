package models

import (
	"time"
)

// AppointmentStatus represents the status of a visit
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// AppointmentStatuses lists the valid codes in display order.
var AppointmentStatuses = []AppointmentStatus{StatusScheduled, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the known status codes.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment represents a scheduled visit to a doctor
type Appointment struct {
	BaseModel
	DoctorID    string            `gorm:"size:36;index;not null" json:"doctorId"`
	ContactName string            `gorm:"size:120" json:"contactName"`
	ScheduledAt time.Time         `gorm:"index;not null" json:"scheduledAt"`
	Status      AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	Notes       string            `gorm:"type:text" json:"notes"`
	OwnerID     *string           `gorm:"size:36;index" json:"ownerId"`

	// Relations
	Doctor Doctor `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
	Owner  *User  `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}
