package devicelink

import (
	"errors"
	"fmt"

	"github.com/civic-stack/voterlink/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrLinkNotFound       = errors.New("device link not found")
	ErrMissingDeviceToken = errors.New("device token is required")
)

// LookupState tags the outcome of a device-link lookup so callers can
// distinguish "no row" from "storage failed" without sentinel-error checks.
type LookupState int

const (
	LookupFound LookupState = iota
	LookupNotFound
	LookupErr
)

type LookupResult struct {
	State LookupState
	Link  *DeviceLink
	Err   error
}

// Store persists the device_token -> voter binding and its secret-code
// state. All mutations that must be atomic with a business decision run
// through Service transactions instead; Store methods are single writes.
type Store struct {
	db     *gorm.DB
	logger *logging.Service
}

func NewStore(db *gorm.DB, logger *logging.Service) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) Get(deviceToken string) LookupResult {
	return getLink(s.db, deviceToken)
}

func getLink(tx *gorm.DB, deviceToken string) LookupResult {
	if deviceToken == "" {
		return LookupResult{State: LookupErr, Err: ErrMissingDeviceToken}
	}

	var link DeviceLink
	if err := tx.Where("device_token = ?", deviceToken).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LookupResult{State: LookupNotFound}
		}
		return LookupResult{State: LookupErr, Err: fmt.Errorf("failed to retrieve device link: %w", err)}
	}

	return LookupResult{State: LookupFound, Link: &link}
}

// ResolveVoter returns the voter id bound to the device token. found is
// false when no link exists or the link has no voter yet.
func (s *Store) ResolveVoter(deviceToken string) (uint, bool, error) {
	result := s.Get(deviceToken)
	switch result.State {
	case LookupNotFound:
		return 0, false, nil
	case LookupErr:
		return 0, false, result.Err
	}

	if result.Link.VoterID == 0 {
		return 0, false, nil
	}
	return result.Link.VoterID, true, nil
}

// Bind associates the device token with a voter, creating the link row on
// first contact. Rebinding to the same voter is a no-op; rebinding to a
// different voter overwrites the prior association.
func (s *Store) Bind(deviceToken string, voterID uint) (*DeviceLink, error) {
	result := s.Get(deviceToken)
	switch result.State {
	case LookupErr:
		return nil, result.Err
	case LookupNotFound:
		link := &DeviceLink{
			DeviceToken: deviceToken,
			VoterID:     voterID,
		}
		if err := s.db.Create(link).Error; err != nil {
			s.logger.Error("failed to create device link", zap.Error(err))
			return nil, fmt.Errorf("failed to create device link: %w", err)
		}
		s.logger.Info("device link created",
			zap.Uint("voter_id", voterID))
		return link, nil
	}

	link := result.Link
	if link.VoterID == voterID {
		return link, nil
	}

	previousVoterID := link.VoterID
	link.VoterID = voterID
	if err := s.db.Save(link).Error; err != nil {
		s.logger.Error("failed to rebind device link", zap.Error(err))
		return nil, fmt.Errorf("failed to rebind device link: %w", err)
	}

	s.logger.Info("device link rebound",
		zap.Uint("previous_voter_id", previousVoterID),
		zap.Uint("voter_id", voterID))
	return link, nil
}

func (s *Store) Save(link *DeviceLink) error {
	if link.DeviceToken == "" {
		return ErrMissingDeviceToken
	}

	if err := s.db.Save(link).Error; err != nil {
		return fmt.Errorf("failed to save device link: %w", err)
	}
	return nil
}
