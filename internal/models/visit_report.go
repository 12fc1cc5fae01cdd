package models

// VisitNumber records whether this was the first, second or a later visit.
type VisitNumber string

const (
	VisitFirst       VisitNumber = "1st"
	VisitSecond      VisitNumber = "2nd"
	VisitThirdOrMore VisitNumber = "3rd+"
)

// VisitMode is how the visit took place.
type VisitMode string

const (
	ModeInPerson VisitMode = "in_person"
	ModeRemote   VisitMode = "remote"
)

// VisitReport is the write-up of a single appointment.
type VisitReport struct {
	BaseModel
	AppointmentID string      `gorm:"size:36;uniqueIndex;not null" json:"appointmentId"`
	VisitNumber   VisitNumber `gorm:"size:10;default:'1st'" json:"visitNumber"`
	Mode          VisitMode   `gorm:"size:20;default:'in_person'" json:"mode"`
	Objective     string      `gorm:"size:200;not null" json:"objective"`
	Summary       string      `gorm:"type:text" json:"summary"`
	Outcome       string      `gorm:"type:text" json:"outcome"`
	NextSteps     string      `gorm:"type:text" json:"nextSteps"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Valid reports whether n is a known visit number.
func (n VisitNumber) Valid() bool {
	switch n {
	case VisitFirst, VisitSecond, VisitThirdOrMore:
		return true
	}
	return false
}

// Valid reports whether m is a known visit mode.
func (m VisitMode) Valid() bool {
	return m == ModeInPerson || m == ModeRemote
}
