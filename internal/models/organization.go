package models

// Organization is a hospital, clinic or distributor account.
type Organization struct {
	BaseModel
	Name    string  `gorm:"uniqueIndex;size:160;not null" json:"name"`
	TaxID   string  `gorm:"size:32" json:"taxId"`
	City    string  `gorm:"size:80" json:"city"`
	Region  string  `gorm:"size:2" json:"region"`
	Phone   string  `gorm:"size:50" json:"phone"`
	Notes   string  `gorm:"type:text" json:"notes"`
	OwnerID *string `gorm:"size:36;index" json:"ownerId"`

	Owner *User `gorm:"foreignKey:OwnerID;constraint:OnDelete:SET NULL" json:"-"`
}
