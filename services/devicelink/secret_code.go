package devicelink

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeIssue is the outcome of a secret-code request.
type CodeIssue struct {
	// Code is the currently valid 6-digit code, empty when Locked.
	Code string
	// Locked reports that the device token exceeded the all-time failure
	// limit; no code is generated until an administrative reset.
	Locked bool
	// Regenerated reports that a fresh code was minted by this call (as
	// opposed to re-fetching an existing valid code).
	Regenerated bool
}

// RequestSecretCode issues or reuses a secret code for the device token,
// creating the link row on first contact.
func (s *Service) RequestSecretCode(deviceToken string) (CodeIssue, error) {
	return s.IssueOrReuseCode(deviceToken, false)
}

// IssueOrReuseCode decides whether the existing code is reusable, exhausted,
// or expired, and regenerates when needed. With bypass set (and a bypass
// code configured) the fixed review-mode code is installed instead of a
// random one. Every regenerating branch persists before returning.
func (s *Service) IssueOrReuseCode(deviceToken string, bypass bool) (CodeIssue, error) {
	var issue CodeIssue

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := getLink(tx.Clauses(clause.Locking{Strength: "UPDATE"}), deviceToken)
		var link *DeviceLink
		switch result.State {
		case LookupErr:
			return result.Err
		case LookupNotFound:
			// First contact from this device: create the row unlinked.
			link = &DeviceLink{DeviceToken: deviceToken}
			if err := tx.Create(link).Error; err != nil {
				return fmt.Errorf("failed to create device link: %w", err)
			}
		default:
			link = result.Link
		}

		if link.FailedTriesAllTime > s.config.SignIn.AllTimeFailureLimit {
			s.logger.Warn("secret code request refused: device token locked",
				zap.Uint("failed_tries_all_time", link.FailedTriesAllTime))
			issue = CodeIssue{Locked: true}
			return nil
		}

		if bypass && s.config.SignIn.BypassCode != "" {
			s.installCode(link, s.config.SignIn.BypassCode)
			if err := tx.Save(link).Error; err != nil {
				return fmt.Errorf("failed to save device link: %w", err)
			}
			s.logger.Info("bypass secret code installed")
			issue = CodeIssue{Code: *link.SecretCode, Regenerated: true}
			return nil
		}

		now := time.Now().UTC()
		switch {
		case link.FailedTriesCurrentCode > s.config.SignIn.PerCodeFailureLimit:
			// Current code is exhausted; the all-time counter carries over.
			if err := s.regenerate(tx, link); err != nil {
				return err
			}
			issue = CodeIssue{Code: *link.SecretCode, Regenerated: true}
		case !link.CodeExpired(now, s.config.SignIn.CodeLifetime):
			// Valid code on file: idempotent re-fetch, e.g. a resend.
			issue = CodeIssue{Code: *link.SecretCode}
		default:
			if err := s.regenerate(tx, link); err != nil {
				return err
			}
			issue = CodeIssue{Code: *link.SecretCode, Regenerated: true}
		}
		return nil
	})
	if err != nil {
		return CodeIssue{}, err
	}

	if issue.Regenerated {
		s.logger.Info("secret code generated")
	}
	return issue, nil
}

func (s *Service) regenerate(tx *gorm.DB, link *DeviceLink) error {
	code, err := generateSecretCode()
	if err != nil {
		return err
	}

	s.installCode(link, code)
	if err := tx.Save(link).Error; err != nil {
		return fmt.Errorf("failed to save device link: %w", err)
	}
	return nil
}

// installCode places a new code on the link and resets the per-code counter.
// The all-time counter survives regeneration; only a successful verification
// clears it.
func (s *Service) installCode(link *DeviceLink, code string) {
	now := time.Now().UTC()
	link.SecretCode = &code
	link.SecretCodeGeneratedAt = &now
	link.FailedTriesCurrentCode = 0
}

func generateSecretCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate secret code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
