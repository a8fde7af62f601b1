package devicelink

import (
	"time"

	"gorm.io/gorm"
)

// DeviceLink binds one anonymous device token to one voter account. A voter
// may hold many device links (one per browser or app install), but each link
// points at exactly one voter.
type DeviceLink struct {
	gorm.Model
	DeviceToken            string     `json:"device_token" gorm:"uniqueIndex;not null;size:255"`
	VoterID                uint       `json:"voter_id" gorm:"index"`
	SecretCode             *string    `json:"-" gorm:"size:6"`
	SecretCodeGeneratedAt  *time.Time `json:"-"`
	FailedTriesCurrentCode uint       `json:"-" gorm:"not null;default:0"`
	FailedTriesAllTime     uint       `json:"-" gorm:"not null;default:0"`
	EmailSecretKey         *string    `json:"-" gorm:"uniqueIndex;size:255"`
	SMSSecretKey           *string    `json:"-" gorm:"uniqueIndex;size:255"`
}

func (DeviceLink) TableName() string {
	return "voter_device_links"
}

// HasActiveCode reports whether a code has been generated and not yet
// cleared. It says nothing about freshness.
func (l *DeviceLink) HasActiveCode() bool {
	return l.SecretCode != nil && l.SecretCodeGeneratedAt != nil
}

// CodeExpired reports whether the active code was generated more than
// lifetime ago. A link without an active code is considered expired.
func (l *DeviceLink) CodeExpired(now time.Time, lifetime time.Duration) bool {
	if !l.HasActiveCode() {
		return true
	}
	return now.Sub(*l.SecretCodeGeneratedAt) >= lifetime
}
