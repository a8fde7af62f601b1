package devicelink

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Verification is the outcome of a code submission.
type Verification struct {
	Verified             bool
	IncorrectCodeEntered bool
	TriesRemaining       uint
	MustRequestNewCode   bool
	Locked               bool
}

// VerifySecretCode checks a submitted code against the stored state for the
// device token. The whole decision, counter updates included, runs as one
// row-locked transaction so concurrent submissions cannot under-count or
// observe a half-cleared code.
func (s *Service) VerifySecretCode(deviceToken, submittedCode string) (Verification, error) {
	var verification Verification

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := getLink(tx.Clauses(clause.Locking{Strength: "UPDATE"}), deviceToken)
		switch result.State {
		case LookupErr:
			return result.Err
		case LookupNotFound:
			// Unknown device tokens are indistinguishable from missing
			// codes at the boundary.
			verification = Verification{MustRequestNewCode: true}
			return nil
		}
		link := result.Link

		perCodeLimit := s.config.SignIn.PerCodeFailureLimit
		allTimeLimit := s.config.SignIn.AllTimeFailureLimit

		if link.FailedTriesAllTime > allTimeLimit {
			s.logger.Warn("code verification refused: device token locked",
				zap.Uint("failed_tries_all_time", link.FailedTriesAllTime))
			verification = Verification{Locked: true}
			return nil
		}

		if link.FailedTriesCurrentCode > perCodeLimit {
			// This code is exhausted; the caller must re-request.
			verification = Verification{MustRequestNewCode: true}
			return nil
		}

		if !link.HasActiveCode() {
			verification = Verification{MustRequestNewCode: true}
			return nil
		}

		if link.CodeExpired(time.Now().UTC(), s.config.SignIn.CodeLifetime) {
			s.logger.Info("code verification refused: code expired")
			verification = Verification{MustRequestNewCode: true}
			return nil
		}

		if submittedCode == *link.SecretCode {
			// Clear the code and both counters atomically with the success
			// determination; the code is accepted exactly once.
			link.SecretCode = nil
			link.SecretCodeGeneratedAt = nil
			link.FailedTriesCurrentCode = 0
			link.FailedTriesAllTime = 0
			if err := tx.Save(link).Error; err != nil {
				return err
			}
			verification = Verification{Verified: true, TriesRemaining: perCodeLimit}
			return nil
		}

		// Both counters move together on every mismatch, keeping the
		// per-code count bounded by the all-time count.
		link.FailedTriesCurrentCode++
		link.FailedTriesAllTime++
		if err := tx.Save(link).Error; err != nil {
			return err
		}

		remaining := uint(0)
		if perCodeLimit > link.FailedTriesCurrentCode {
			remaining = perCodeLimit - link.FailedTriesCurrentCode
		}

		verification = Verification{
			IncorrectCodeEntered: true,
			TriesRemaining:       remaining,
			MustRequestNewCode:   remaining == 0,
			Locked:               link.FailedTriesAllTime > allTimeLimit,
		}
		return nil
	})
	if err != nil {
		return Verification{}, err
	}

	switch {
	case verification.Verified:
		s.logger.Info("secret code verified")
	case verification.Locked:
		s.logger.Warn("device token locked out after repeated failures")
	case verification.IncorrectCodeEntered:
		s.logger.Info("incorrect secret code entered",
			zap.Uint("tries_remaining", verification.TriesRemaining))
	}
	return verification, nil
}
