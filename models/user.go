package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// User is a member of staff. Users are provisioned as drafts without a
// password and become active once they complete registration.
type User struct {
	BaseModel
	Email        string  `gorm:"type:varchar(120);uniqueIndex;not null"`
	FirstName    string  `gorm:"type:varchar(50);index"`
	LastName     string  `gorm:"type:varchar(50);index"`
	PasswordHash *string `gorm:"type:varchar(128)"`
	Draft        bool    `gorm:"not null"`

	MasterclassesRun []Masterclass         `gorm:"foreignKey:InstructorID"`
	Bookings         []MasterclassAttendee `gorm:"foreignKey:AttendeeID"`
}

// SetPassword stores a bcrypt hash of password.
func (u *User) SetPassword(password string, cost int) error {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	h := string(hash)
	u.PasswordHash = &h
	return nil
}

// CheckPassword is always false while registration is incomplete.
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == nil {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)) == nil
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// DisplayName falls back to the email when no name is stored.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// NormalizeEmail lower-cases and trims an address before lookup or insert.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
