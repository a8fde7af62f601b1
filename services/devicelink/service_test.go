package devicelink

import (
	"testing"

	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB, *config.Config) {
	t.Helper()

	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &DeviceLink{})
	return NewService(cfg, db, nil), db, cfg
}

func TestNewService(t *testing.T) {
	service, db, cfg := newTestService(t)

	assert.NotNil(t, service)
	assert.Equal(t, cfg, service.config)
	assert.Equal(t, db, service.db)
	assert.NotNil(t, service.Store())
	assert.Nil(t, service.logger)
}

func TestService_DeliverCodeByEmail(t *testing.T) {
	t.Run("sends the issued code", func(t *testing.T) {
		service, _, _ := newTestService(t)
		sender := &testutils.MockCodeSender{}
		sender.On("SendSignInCode", "voter@example.com", mock.AnythingOfType("string")).Return(nil)
		service.SetCodeSender(sender)

		issue, err := service.DeliverCodeByEmail(testutils.TestDeviceTokens.Primary, "voter@example.com")

		require.NoError(t, err)
		assert.Len(t, issue.Code, 6)
		sender.AssertCalled(t, "SendSignInCode", "voter@example.com", issue.Code)
	})

	t.Run("no sender configured", func(t *testing.T) {
		service, _, _ := newTestService(t)

		issue, err := service.DeliverCodeByEmail(testutils.TestDeviceTokens.Primary, "voter@example.com")

		require.Error(t, err)
		assert.NotEmpty(t, issue.Code)
	})

	t.Run("locked device skips delivery", func(t *testing.T) {
		service, db, cfg := newTestService(t)
		sender := &testutils.MockCodeSender{}
		service.SetCodeSender(sender)

		link := &DeviceLink{
			DeviceToken:        testutils.TestDeviceTokens.Primary,
			FailedTriesAllTime: cfg.SignIn.AllTimeFailureLimit + 1,
		}
		require.NoError(t, db.Create(link).Error)

		issue, err := service.DeliverCodeByEmail(testutils.TestDeviceTokens.Primary, "voter@example.com")

		require.NoError(t, err)
		assert.True(t, issue.Locked)
		sender.AssertNotCalled(t, "SendSignInCode", mock.Anything, mock.Anything)
	})
}
