package devicelink

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// secretKeyColumn selects which of the two single-use key slots an
// operation targets.
type secretKeyColumn string

const (
	emailSecretKeyColumn secretKeyColumn = "email_secret_key"
	smsSecretKeyColumn   secretKeyColumn = "sms_secret_key"
)

// IssueEmailSecretKey generates a fresh key and binds it to the device
// link's email slot.
func (s *Service) IssueEmailSecretKey(deviceToken string) (string, error) {
	key, err := s.generateSecretKey()
	if err != nil {
		return "", err
	}
	if err := s.AttachEmailSecretKey(deviceToken, key); err != nil {
		return "", err
	}
	return key, nil
}

// IssueSMSSecretKey generates a fresh key and binds it to the device link's
// SMS slot.
func (s *Service) IssueSMSSecretKey(deviceToken string) (string, error) {
	key, err := s.generateSecretKey()
	if err != nil {
		return "", err
	}
	if err := s.AttachSMSSecretKey(deviceToken, key); err != nil {
		return "", err
	}
	return key, nil
}

// AttachEmailSecretKey binds an existing key (typically the secret key
// already held by an EmailAddress record) to the device link's email slot.
func (s *Service) AttachEmailSecretKey(deviceToken, key string) error {
	return s.attachSecretKey(deviceToken, key, emailSecretKeyColumn)
}

// AttachSMSSecretKey binds an existing key to the device link's SMS slot.
func (s *Service) AttachSMSSecretKey(deviceToken, key string) error {
	return s.attachSecretKey(deviceToken, key, smsSecretKeyColumn)
}

// attachSecretKey writes the key to the chosen slot. Each key value may
// live on at most one row, so a uniqueness violation means a stale copy of
// the key survives on another link from a prior flow: that copy is cleared
// and the save retried, exactly once. A second violation is fatal.
func (s *Service) attachSecretKey(deviceToken, key string, column secretKeyColumn) error {
	if key == "" {
		return fmt.Errorf("secret key is required")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return setSecretKey(tx, deviceToken, key, column)
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("failed to attach secret key: %w", err)
	}

	s.logger.Warn("secret key collision detected, clearing stale holder",
		zap.String("column", string(column)))

	// The repair clears the stale holder and saves the new one in a single
	// transaction: the key is never observably unheld, and a second
	// conflict rolls the clear back with it.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.clearSecretKeyColumn(tx, key, column); err != nil {
			return err
		}
		return setSecretKey(tx, deviceToken, key, column)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.logger.Error("secret key still conflicting after repair")
		return ErrSecretKeyConflict
	}
	return fmt.Errorf("failed to attach secret key: %w", err)
}

func setSecretKey(tx *gorm.DB, deviceToken, key string, column secretKeyColumn) error {
	result := getLink(tx.Clauses(clause.Locking{Strength: "UPDATE"}), deviceToken)
	switch result.State {
	case LookupErr:
		return result.Err
	case LookupNotFound:
		return ErrLinkNotFound
	}
	link := result.Link

	switch column {
	case emailSecretKeyColumn:
		link.EmailSecretKey = &key
	case smsSecretKeyColumn:
		link.SMSSecretKey = &key
	}

	return tx.Save(link).Error
}

// ClearSecretKey nulls out whichever slot holds the key, on whichever row
// holds it. Called once the bound channel is confirmed verified.
func (s *Service) ClearSecretKey(key string) error {
	if key == "" {
		return fmt.Errorf("secret key is required")
	}

	if err := s.clearSecretKeyColumn(s.db, key, emailSecretKeyColumn); err != nil {
		return err
	}
	return s.clearSecretKeyColumn(s.db, key, smsSecretKeyColumn)
}

func (s *Service) clearSecretKeyColumn(db *gorm.DB, key string, column secretKeyColumn) error {
	result := db.Model(&DeviceLink{}).
		Where(fmt.Sprintf("%s = ?", column), key).
		Update(string(column), nil)
	if result.Error != nil {
		return fmt.Errorf("failed to clear secret key: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("secret key cleared",
			zap.String("column", string(column)),
			zap.Int64("rows", result.RowsAffected))
	}
	return nil
}

func (s *Service) generateSecretKey() (string, error) {
	length := s.config.SignIn.SecretKeyLength
	if length <= 0 {
		length = 32
	}

	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secret key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
