package channel

import (
	"time"

	"gorm.io/gorm"
)

// EmailAddress is a claimed email channel. It stays unverified until the
// voter proves ownership through the secret-key flow.
type EmailAddress struct {
	gorm.Model
	VoterID    uint       `json:"voter_id" gorm:"index;not null"`
	Address    string     `json:"address" gorm:"index;not null;size:254"`
	SecretKey  *string    `json:"-" gorm:"uniqueIndex;size:255"`
	Verified   bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (EmailAddress) TableName() string {
	return "email_addresses"
}

// SMSPhoneNumber is a claimed SMS channel.
type SMSPhoneNumber struct {
	gorm.Model
	VoterID    uint       `json:"voter_id" gorm:"index;not null"`
	Number     string     `json:"number" gorm:"index;not null;size:32"`
	SecretKey  *string    `json:"-" gorm:"uniqueIndex;size:255"`
	Verified   bool       `json:"verified" gorm:"not null;default:false"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (SMSPhoneNumber) TableName() string {
	return "sms_phone_numbers"
}
