package models

// Location is a physical venue. Rows are either entered in-house or
// materialized from an external place lookup, in which case
// ExternalPlaceID holds the provider's place id.
type Location struct {
	BaseModel
	Building        string  `gorm:"type:varchar(50);index"`
	StreetNumber    string  `gorm:"type:varchar(10)"`
	StreetName      string  `gorm:"type:varchar(100);index"`
	TownOrCity      string  `gorm:"type:varchar(50);index"`
	Postcode        string  `gorm:"type:varchar(8);index"`
	Name            string  `gorm:"index"`
	Address         string  `gorm:"index"`
	ExternalPlaceID *string `gorm:"index"`

	Masterclasses []Masterclass `gorm:"foreignKey:LocationID"`
}

// IsExternal reports whether the row came from the external lookup.
func (l *Location) IsExternal() bool {
	return l.ExternalPlaceID != nil
}
