package voter

import (
	"time"

	"gorm.io/gorm"
)

// Voter is the account record the device-link protocol signs clients into.
type Voter struct {
	gorm.Model
	PublicID        string     `json:"public_id" gorm:"uniqueIndex;not null;size:64"`
	Email           string     `json:"email" gorm:"index;size:254"`
	FirstName       string     `json:"first_name" gorm:"size:255"`
	LastName        string     `json:"last_name" gorm:"size:255"`
	PasswordHash    string     `json:"-" gorm:"size:255"`
	EmailVerified   bool       `json:"email_verified" gorm:"not null;default:false"`
	SMSVerified     bool       `json:"sms_verified" gorm:"not null;default:false"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	SMSVerifiedAt   *time.Time `json:"sms_verified_at,omitempty"`
}

func (Voter) TableName() string {
	return "voters"
}
