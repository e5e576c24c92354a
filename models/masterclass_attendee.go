package models

// MasterclassAttendee links one user to one masterclass they signed up for.
// Uniqueness per pair is guarded by the booking service, not by an index.
type MasterclassAttendee struct {
	BaseModel
	AttendeeID    uint `gorm:"not null;index:idx_attendee_masterclass"`
	MasterclassID uint `gorm:"not null;index:idx_attendee_masterclass;index"`

	Attendee    User        `gorm:"foreignKey:AttendeeID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Masterclass Masterclass `gorm:"foreignKey:MasterclassID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
