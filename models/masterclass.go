package models

import (
	"time"
)

// Masterclass is one scheduled session. It is created as a draft by the
// creation wizard and filled in step by step until it is published.
type Masterclass struct {
	BaseModel
	Timestamp    *time.Time `gorm:"index;type:timestamptz"`
	MaxAttendees *int       `gorm:"type:integer"`

	// IsRemote selects which of the two detail groups below is populated.
	IsRemote                  *bool   `gorm:"index"`
	RemoteURL                 *string `gorm:"type:text"`
	RemoteJoiningInstructions *string `gorm:"type:text"`
	Room                      *string `gorm:"type:varchar(50)"`
	Floor                     *string `gorm:"type:varchar(50)"`
	BuildingInstructions      *string `gorm:"type:text"`

	MasterclassContentID *uint `gorm:"index"`
	LocationID           *uint `gorm:"index"`
	InstructorID         *uint `gorm:"index"`
	Draft                bool  `gorm:"not null;index"`

	MasterclassContent *MasterclassContent   `gorm:"foreignKey:MasterclassContentID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Location           *Location             `gorm:"foreignKey:LocationID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Instructor         *User                 `gorm:"foreignKey:InstructorID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Attendees          []MasterclassAttendee `gorm:"foreignKey:MasterclassID"`
}

// LocationDetails is either RemoteDetails or InPersonDetails.
type LocationDetails interface {
	isLocationDetails()
}

// RemoteDetails describes an online masterclass.
type RemoteDetails struct {
	URL                 string
	JoiningInstructions string
}

// InPersonDetails describes where in the building a masterclass happens.
type InPersonDetails struct {
	Room                 string
	Floor                string
	BuildingInstructions string
}

func (RemoteDetails) isLocationDetails()   {}
func (InPersonDetails) isLocationDetails() {}

// SetRemoteDetails switches the masterclass to remote and clears the
// in-person fields. A blank joining instruction is stored as NULL.
func (m *Masterclass) SetRemoteDetails(d RemoteDetails) {
	remote := true
	m.IsRemote = &remote
	m.RemoteURL = optional(d.URL)
	m.RemoteJoiningInstructions = optional(d.JoiningInstructions)
	m.Room, m.Floor, m.BuildingInstructions = nil, nil, nil
}

// SetInPersonDetails switches the masterclass to in person and clears the
// remote fields. Blank building instructions are stored as NULL.
func (m *Masterclass) SetInPersonDetails(d InPersonDetails) {
	remote := false
	m.IsRemote = &remote
	m.Room = optional(d.Room)
	m.Floor = optional(d.Floor)
	m.BuildingInstructions = optional(d.BuildingInstructions)
	m.RemoteURL, m.RemoteJoiningInstructions = nil, nil
}

// ApplyLocationDetails dispatches to the setter for the variant.
func (m *Masterclass) ApplyLocationDetails(details LocationDetails) {
	switch d := details.(type) {
	case RemoteDetails:
		m.SetRemoteDetails(d)
	case *RemoteDetails:
		m.SetRemoteDetails(*d)
	case InPersonDetails:
		m.SetInPersonDetails(d)
	case *InPersonDetails:
		m.SetInPersonDetails(*d)
	}
}

// LocationDetails returns the populated variant, nil until one was set.
func (m *Masterclass) LocationDetails() LocationDetails {
	if m.IsRemote == nil {
		return nil
	}
	if *m.IsRemote {
		return RemoteDetails{
			URL:                 Deref(m.RemoteURL),
			JoiningInstructions: Deref(m.RemoteJoiningInstructions),
		}
	}
	return InPersonDetails{
		Room:                 Deref(m.Room),
		Floor:                Deref(m.Floor),
		BuildingInstructions: Deref(m.BuildingInstructions),
	}
}

// Remote is false for in-person and for masterclasses without details.
func (m *Masterclass) Remote() bool {
	return m.IsRemote != nil && *m.IsRemote
}

// RemainingSpaces is MaxAttendees minus the loaded Attendees. The result
// can be negative, overbooking is not prevented. ok is false while no
// capacity is set.
func (m *Masterclass) RemainingSpaces() (remaining int, ok bool) {
	if m.MaxAttendees == nil {
		return 0, false
	}
	return *m.MaxAttendees - len(m.Attendees), true
}

// Wizard tasks reported by MissingTasks.
const (
	TaskContent  = "content"
	TaskSchedule = "schedule"
	TaskLocation = "location"
)

// MissingTasks lists the wizard tasks that still block publishing.
func (m *Masterclass) MissingTasks() []string {
	var missing []string
	if m.MasterclassContentID == nil {
		missing = append(missing, TaskContent)
	}
	if m.Timestamp == nil || m.MaxAttendees == nil {
		missing = append(missing, TaskSchedule)
	}
	if !m.hasCompleteLocation() {
		missing = append(missing, TaskLocation)
	}
	return missing
}

func (m *Masterclass) hasCompleteLocation() bool {
	if m.IsRemote == nil {
		return false
	}
	if *m.IsRemote {
		return m.RemoteURL != nil
	}
	return m.LocationID != nil && m.Room != nil && m.Floor != nil
}
