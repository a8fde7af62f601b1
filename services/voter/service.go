package voter

import (
	"errors"
	"fmt"
	"time"

	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrVoterNotFound = errors.New("voter not found")
	ErrNoLinkedVoter = errors.New("device token is not linked to a voter")
)

type Service struct {
	db     *gorm.DB
	links  *devicelink.Store
	logger *logging.Service
}

func NewService(db *gorm.DB, links *devicelink.Store, logger *logging.Service) *Service {
	return &Service{
		db:     db,
		links:  links,
		logger: logger,
	}
}

// CreateForDeviceToken creates a fresh voter account and binds the device
// token to it. This is the first-contact path: every anonymous device gets
// its own voter record until a sign-in merges it away.
func (s *Service) CreateForDeviceToken(deviceToken string) (*Voter, error) {
	if deviceToken == "" {
		return nil, devicelink.ErrMissingDeviceToken
	}

	v := &Voter{
		PublicID: newPublicID(),
	}
	if err := s.db.Create(v).Error; err != nil {
		s.logger.Error("failed to create voter", zap.Error(err))
		return nil, fmt.Errorf("failed to create voter: %w", err)
	}

	if _, err := s.links.Bind(deviceToken, v.ID); err != nil {
		return nil, err
	}

	s.logger.Info("voter created for device",
		zap.Uint("voter_id", v.ID),
		zap.String("public_id", v.PublicID))
	return v, nil
}

// RetrieveByDeviceToken resolves the device token to its linked voter.
func (s *Service) RetrieveByDeviceToken(deviceToken string) (*Voter, error) {
	voterID, found, err := s.links.ResolveVoter(deviceToken)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoLinkedVoter
	}
	return s.RetrieveByID(voterID)
}

func (s *Service) RetrieveByID(voterID uint) (*Voter, error) {
	var v Voter
	if err := s.db.First(&v, voterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoterNotFound
		}
		return nil, fmt.Errorf("failed to retrieve voter: %w", err)
	}
	return &v, nil
}

func (s *Service) RetrieveByPublicID(publicID string) (*Voter, error) {
	var v Voter
	if err := s.db.Where("public_id = ?", publicID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoterNotFound
		}
		return nil, fmt.Errorf("failed to retrieve voter: %w", err)
	}
	return &v, nil
}

func (s *Service) SetPassword(voterID uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.Model(&Voter{}).Where("id = ?", voterID).
		Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *Service) CheckPassword(voterID uint, password string) error {
	v, err := s.RetrieveByID(voterID)
	if err != nil {
		return err
	}
	return bcrypt.CompareHashAndPassword([]byte(v.PasswordHash), []byte(password))
}

// MarkEmailVerified records that the voter owns a verified email channel.
func (s *Service) MarkEmailVerified(voterID uint) error {
	return s.markChannelVerified(voterID, "email_verified", "email_verified_at")
}

// MarkSMSVerified records that the voter owns a verified SMS channel.
func (s *Service) MarkSMSVerified(voterID uint) error {
	return s.markChannelVerified(voterID, "sms_verified", "sms_verified_at")
}

func (s *Service) markChannelVerified(voterID uint, flagColumn, atColumn string) error {
	result := s.db.Model(&Voter{}).Where("id = ?", voterID).
		Updates(map[string]any{
			flagColumn: true,
			atColumn:   time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to mark channel verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrVoterNotFound
	}

	s.logger.Info("voter channel verified",
		zap.Uint("voter_id", voterID),
		zap.String("channel", flagColumn))
	return nil
}

func newPublicID() string {
	return "vtr-" + uuid.NewString()
}
