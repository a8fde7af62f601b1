package channel

import (
	"errors"
	"fmt"
	"time"

	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/civic-stack/voterlink/services/voter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrChannelNotFound = errors.New("channel not found for secret key")
)

// Service owns the email/SMS channel records and drives the secret-key
// handshake: a key is stamped onto both the channel row and the device link,
// and verifying the key confirms the channel and releases the link's slot.
type Service struct {
	db       *gorm.DB
	registry *devicelink.Service
	voters   *voter.Service
	logger   *logging.Service
}

func NewService(db *gorm.DB, registry *devicelink.Service, voters *voter.Service, logger *logging.Service) *Service {
	return &Service{
		db:       db,
		registry: registry,
		voters:   voters,
		logger:   logger,
	}
}

// AttachEmail claims an email address for the voter and binds its secret key
// to the device link. An address claimed in a prior flow keeps its key, and
// the device-link binding repairs any stale holder.
func (s *Service) AttachEmail(deviceToken string, voterID uint, address string) (*EmailAddress, error) {
	var email EmailAddress
	err := s.db.Where("voter_id = ? AND address = ?", voterID, address).First(&email).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		key, keyErr := s.registry.IssueEmailSecretKey(deviceToken)
		if keyErr != nil {
			return nil, keyErr
		}
		email = EmailAddress{
			VoterID:   voterID,
			Address:   address,
			SecretKey: &key,
		}
		if err := s.db.Create(&email).Error; err != nil {
			return nil, fmt.Errorf("failed to create email address: %w", err)
		}
		s.logger.Info("email channel claimed", zap.Uint("voter_id", voterID))
	case err != nil:
		return nil, fmt.Errorf("failed to retrieve email address: %w", err)
	default:
		if email.SecretKey == nil {
			key, keyErr := s.registry.IssueEmailSecretKey(deviceToken)
			if keyErr != nil {
				return nil, keyErr
			}
			email.SecretKey = &key
			if err := s.db.Save(&email).Error; err != nil {
				return nil, fmt.Errorf("failed to save email address: %w", err)
			}
		} else if err := s.registry.AttachEmailSecretKey(deviceToken, *email.SecretKey); err != nil {
			return nil, err
		}
	}

	return &email, nil
}

// AttachSMS claims a phone number for the voter and binds its secret key to
// the device link.
func (s *Service) AttachSMS(deviceToken string, voterID uint, number string) (*SMSPhoneNumber, error) {
	var sms SMSPhoneNumber
	err := s.db.Where("voter_id = ? AND number = ?", voterID, number).First(&sms).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		key, keyErr := s.registry.IssueSMSSecretKey(deviceToken)
		if keyErr != nil {
			return nil, keyErr
		}
		sms = SMSPhoneNumber{
			VoterID:   voterID,
			Number:    number,
			SecretKey: &key,
		}
		if err := s.db.Create(&sms).Error; err != nil {
			return nil, fmt.Errorf("failed to create sms phone number: %w", err)
		}
		s.logger.Info("sms channel claimed", zap.Uint("voter_id", voterID))
	case err != nil:
		return nil, fmt.Errorf("failed to retrieve sms phone number: %w", err)
	default:
		if sms.SecretKey == nil {
			key, keyErr := s.registry.IssueSMSSecretKey(deviceToken)
			if keyErr != nil {
				return nil, keyErr
			}
			sms.SecretKey = &key
			if err := s.db.Save(&sms).Error; err != nil {
				return nil, fmt.Errorf("failed to save sms phone number: %w", err)
			}
		} else if err := s.registry.AttachSMSSecretKey(deviceToken, *sms.SecretKey); err != nil {
			return nil, err
		}
	}

	return &sms, nil
}

// VerifyEmailBySecretKey confirms ownership of the email channel the key was
// issued for: the channel and the voter are marked verified and the key is
// cleared from whichever device link holds it.
func (s *Service) VerifyEmailBySecretKey(key string) (*EmailAddress, error) {
	var email EmailAddress
	if err := s.db.Where("secret_key = ?", key).First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to retrieve email address: %w", err)
	}

	now := time.Now().UTC()
	email.Verified = true
	email.VerifiedAt = &now
	if err := s.db.Save(&email).Error; err != nil {
		return nil, fmt.Errorf("failed to save email address: %w", err)
	}

	if err := s.voters.MarkEmailVerified(email.VoterID); err != nil {
		return nil, err
	}
	if err := s.registry.ClearSecretKey(key); err != nil {
		return nil, err
	}

	s.logger.Info("email channel verified", zap.Uint("voter_id", email.VoterID))
	return &email, nil
}

// VerifySMSBySecretKey confirms ownership of the SMS channel the key was
// issued for.
func (s *Service) VerifySMSBySecretKey(key string) (*SMSPhoneNumber, error) {
	var sms SMSPhoneNumber
	if err := s.db.Where("secret_key = ?", key).First(&sms).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to retrieve sms phone number: %w", err)
	}

	now := time.Now().UTC()
	sms.Verified = true
	sms.VerifiedAt = &now
	if err := s.db.Save(&sms).Error; err != nil {
		return nil, fmt.Errorf("failed to save sms phone number: %w", err)
	}

	if err := s.voters.MarkSMSVerified(sms.VoterID); err != nil {
		return nil, err
	}
	if err := s.registry.ClearSecretKey(key); err != nil {
		return nil, err
	}

	s.logger.Info("sms channel verified", zap.Uint("voter_id", sms.VoterID))
	return &sms, nil
}
