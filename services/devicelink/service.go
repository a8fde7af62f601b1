package devicelink

import (
	"errors"
	"fmt"

	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrSecretKeyConflict = errors.New("secret key is already held by another device link")
)

// CodeSender delivers an issued secret code out of band. The service works
// without one; deployments that only deliver over SMS leave it unset.
type CodeSender interface {
	SendSignInCode(recipient string, code string) error
}

type Service struct {
	config     *config.Config
	db         *gorm.DB
	store      *Store
	logger     *logging.Service
	codeSender CodeSender
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		db:     db,
		store:  NewStore(db, logger),
		logger: logger,
	}
}

func (s *Service) SetCodeSender(sender CodeSender) {
	s.codeSender = sender
}

func (s *Service) Store() *Store {
	return s.store
}

// DeliverCodeByEmail issues (or reuses) a secret code for the device token
// and emails it to the given address. The issue result is returned either
// way so callers can distinguish lockout from delivery failure.
func (s *Service) DeliverCodeByEmail(deviceToken, emailAddress string) (CodeIssue, error) {
	issue, err := s.RequestSecretCode(deviceToken)
	if err != nil || issue.Locked {
		return issue, err
	}

	if s.codeSender == nil {
		return issue, fmt.Errorf("code sender is not configured")
	}

	if err := s.codeSender.SendSignInCode(emailAddress, issue.Code); err != nil {
		s.logger.Error("failed to send sign in code email", zap.Error(err))
		return issue, fmt.Errorf("failed to send sign in code: %w", err)
	}

	s.logger.Info("sign in code email sent")
	return issue, nil
}
