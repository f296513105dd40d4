package entities

// User is a person that can receive alerts. Contact fields are optional; an
// empty field means the user cannot be reached on that channel.
type User struct {
	ID               string `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Name             string `gorm:"size:255;not null" json:"name" yaml:"name"`
	Email            string `gorm:"size:255;default:''" json:"email,omitempty" yaml:"email"`
	Phone            string `gorm:"size:32;default:''" json:"phone,omitempty" yaml:"phone"`
	PushSubscription string `gorm:"type:text" json:"pushSubscription,omitempty" yaml:"pushSubscription"`
	Role             string `gorm:"size:32;not null;index" json:"role" yaml:"role"`
	CustomerID       string `gorm:"size:64;index" json:"customerId,omitempty" yaml:"customerId"`
	Location         string `gorm:"size:128;index" json:"location,omitempty" yaml:"location"`
	Active           bool   `gorm:"not null;index" json:"active" yaml:"active"`
}

// TableName returns the table name for GORM.
func (User) TableName() string {
	return "users"
}
