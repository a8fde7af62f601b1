package devicelink

import (
	"regexp"
	"testing"
	"time"

	"github.com/civic-stack/voterlink/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestService_RequestSecretCode(t *testing.T) {
	t.Run("first contact creates link and issues code", func(t *testing.T) {
		service, db, _ := newTestService(t)

		issue, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)

		require.NoError(t, err)
		assert.False(t, issue.Locked)
		assert.True(t, issue.Regenerated)
		assert.Regexp(t, sixDigits, issue.Code)

		var link DeviceLink
		require.NoError(t, db.Where("device_token = ?", testutils.TestDeviceTokens.Primary).First(&link).Error)
		require.NotNil(t, link.SecretCode)
		assert.Equal(t, issue.Code, *link.SecretCode)
		assert.NotNil(t, link.SecretCodeGeneratedAt)
		assert.Zero(t, link.FailedTriesCurrentCode)
	})

	t.Run("fresh code is reused on resend", func(t *testing.T) {
		service, _, _ := newTestService(t)

		first, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)

		second, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)

		assert.Equal(t, first.Code, second.Code)
		assert.False(t, second.Regenerated)
	})

	t.Run("expired code is replaced", func(t *testing.T) {
		service, db, cfg := newTestService(t)

		first, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)

		stale := time.Now().UTC().Add(-cfg.SignIn.CodeLifetime - time.Second)
		require.NoError(t, db.Model(&DeviceLink{}).
			Where("device_token = ?", testutils.TestDeviceTokens.Primary).
			Update("secret_code_generated_at", stale).Error)

		second, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)

		assert.True(t, second.Regenerated)
		assert.NotEqual(t, first.Code, second.Code)
	})

	t.Run("exhausted code is replaced and per-code counter reset", func(t *testing.T) {
		service, db, cfg := newTestService(t)

		_, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)

		require.NoError(t, db.Model(&DeviceLink{}).
			Where("device_token = ?", testutils.TestDeviceTokens.Primary).
			Updates(map[string]any{
				"failed_tries_current_code": cfg.SignIn.PerCodeFailureLimit + 1,
				"failed_tries_all_time":     cfg.SignIn.PerCodeFailureLimit + 1,
			}).Error)

		issue, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)
		require.NoError(t, err)
		assert.True(t, issue.Regenerated)

		var link DeviceLink
		require.NoError(t, db.Where("device_token = ?", testutils.TestDeviceTokens.Primary).First(&link).Error)
		assert.Zero(t, link.FailedTriesCurrentCode)
		// All-time counter is untouched by regeneration.
		assert.Equal(t, cfg.SignIn.PerCodeFailureLimit+1, link.FailedTriesAllTime)
	})

	t.Run("locked device gets no code", func(t *testing.T) {
		service, db, cfg := newTestService(t)

		link := &DeviceLink{
			DeviceToken:        testutils.TestDeviceTokens.Primary,
			FailedTriesAllTime: cfg.SignIn.AllTimeFailureLimit + 1,
		}
		require.NoError(t, db.Create(link).Error)

		issue, err := service.RequestSecretCode(testutils.TestDeviceTokens.Primary)

		require.NoError(t, err)
		assert.True(t, issue.Locked)
		assert.Empty(t, issue.Code)
	})
}

func TestService_IssueOrReuseCode_Bypass(t *testing.T) {
	t.Run("configured bypass code is installed", func(t *testing.T) {
		service, db, cfg := newTestService(t)
		cfg.SignIn.BypassCode = "424242"

		issue, err := service.IssueOrReuseCode(testutils.TestDeviceTokens.Primary, true)

		require.NoError(t, err)
		assert.Equal(t, "424242", issue.Code)

		var link DeviceLink
		require.NoError(t, db.Where("device_token = ?", testutils.TestDeviceTokens.Primary).First(&link).Error)
		require.NotNil(t, link.SecretCode)
		assert.Equal(t, "424242", *link.SecretCode)
		assert.Zero(t, link.FailedTriesCurrentCode)
	})

	t.Run("bypass without configured code falls back to random", func(t *testing.T) {
		service, _, cfg := newTestService(t)
		cfg.SignIn.BypassCode = ""

		issue, err := service.IssueOrReuseCode(testutils.TestDeviceTokens.Primary, true)

		require.NoError(t, err)
		assert.Regexp(t, sixDigits, issue.Code)
	})

	t.Run("lockout wins over bypass", func(t *testing.T) {
		service, db, cfg := newTestService(t)
		cfg.SignIn.BypassCode = "424242"

		link := &DeviceLink{
			DeviceToken:        testutils.TestDeviceTokens.Primary,
			FailedTriesAllTime: cfg.SignIn.AllTimeFailureLimit + 1,
		}
		require.NoError(t, db.Create(link).Error)

		issue, err := service.IssueOrReuseCode(testutils.TestDeviceTokens.Primary, true)

		require.NoError(t, err)
		assert.True(t, issue.Locked)
		assert.Empty(t, issue.Code)
	})
}

func TestGenerateSecretCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := generateSecretCode()
		require.NoError(t, err)
		assert.Regexp(t, sixDigits, code)
		seen[code] = true
	}
	// 50 draws from a million values collide with negligible probability.
	assert.Greater(t, len(seen), 45)
}
