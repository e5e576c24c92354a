package models

// MasterclassContent is the reusable topic a masterclass teaches.
type MasterclassContent struct {
	BaseModel
	Name        string `gorm:"type:varchar(150)"`
	Description string `gorm:"type:varchar(500)"`
	Category    string `gorm:"type:varchar(200);index"`
	Draft       bool   `gorm:"not null"`

	MasterclassInstances []Masterclass `gorm:"foreignKey:MasterclassContentID"`
}

// ContentCategories are the job families a content can be filed under.
var ContentCategories = []string{
	"Architecture",
	"Chief Digital and Data",
	"Data",
	"IT Operations",
	"Product and Delivery",
	"Quality Assurance Testing",
	"Technical",
	"User-Centred Design",
}

// IsContentCategory reports whether category is one of ContentCategories.
func IsContentCategory(category string) bool {
	for _, c := range ContentCategories {
		if c == category {
			return true
		}
	}
	return false
}
