package models

import (
	"strings"

	"gorm.io/gorm"
)

// Doctor is a physician visited by the sales force.
type Doctor struct {
	BaseModel
	Name        string  `gorm:"size:120;not null" json:"name"`
	NameKey     string  `gorm:"size:120;not null;uniqueIndex:uniq_doctor_name_license,priority:1" json:"-"`
	LicenseCode string  `gorm:"size:50;not null;default:'';uniqueIndex:uniq_doctor_name_license,priority:2" json:"licenseCode"`
	Region      string  `gorm:"size:2" json:"region"`
	Specialty   string  `gorm:"size:120" json:"specialty"`
	Email       string  `gorm:"size:255" json:"email"`
	Phone       string  `gorm:"size:50" json:"phone"`
	Notes       string  `gorm:"type:text" json:"notes"`
	OwnerID     *string `gorm:"size:36;index" json:"ownerId"`

	// LicenseRegionKey is NULL when the license code is blank so the unique
	// index only applies to doctors that carry a license.
	LicenseRegionKey *string `gorm:"size:60;uniqueIndex:uniq_doctor_license_region" json:"-"`

	Owner         *User          `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
	Organizations []Organization `gorm:"many2many:doctor_organizations;constraint:OnDelete:CASCADE" json:"organizations,omitempty"`
}

// NormalizeKeys trims the identifying fields and derives the unique keys.
func (d *Doctor) NormalizeKeys() {
	d.Name = strings.TrimSpace(d.Name)
	d.LicenseCode = strings.TrimSpace(d.LicenseCode)
	d.Region = strings.ToUpper(strings.TrimSpace(d.Region))
	d.NameKey = strings.ToLower(d.Name)
	if d.LicenseCode == "" {
		d.LicenseRegionKey = nil
		return
	}
	key := d.LicenseCode + "|" + d.Region
	d.LicenseRegionKey = &key
}

// BeforeSave keeps the derived keys in sync on every write.
func (d *Doctor) BeforeSave(tx *gorm.DB) error {
	d.NormalizeKeys()
	return nil
}
