package app

import (
	"testing"

	"github.com/civic-stack/voterlink/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestNewApp(t *testing.T) {
	builder := NewApp()

	assert.NotNil(t, builder)
	assert.Empty(t, builder.models)
	assert.Empty(t, builder.fxOptions)
	assert.Empty(t, builder.errors)
	assert.False(t, builder.mail)
}

func TestAppBuilder_WithConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		builder := NewApp()

		result := builder.WithConfig(cfg)

		assert.Equal(t, builder, result)
		assert.Equal(t, cfg, builder.config)
	})

	t.Run("nil config", func(t *testing.T) {
		builder := NewApp()

		result := builder.WithConfig(nil)

		assert.Equal(t, builder, result)
		assert.Nil(t, builder.config)
		assert.Len(t, builder.errors, 1)
		assert.Contains(t, builder.errors[0].Error(), "config cannot be nil")
	})
}

func TestAppBuilder_WithMail(t *testing.T) {
	builder := NewApp().WithMail()

	assert.True(t, builder.mail)
}

func TestAppBuilder_WithFxOptions(t *testing.T) {
	builder := NewApp().WithFxOptions(fx.Options())

	assert.Len(t, builder.fxOptions, 1)
}

func TestAppBuilder_Build(t *testing.T) {
	t.Run("builds with explicit config", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Database.DSN = ":memory:"

		application, err := NewApp().WithConfig(cfg).Build()

		require.NoError(t, err)
		assert.NotNil(t, application)
		assert.Equal(t, cfg, application.Config())
		assert.NotNil(t, application.Database())
		assert.NotNil(t, application.Logger())
	})

	t.Run("propagates builder errors", func(t *testing.T) {
		_, err := NewApp().WithConfig(nil).Build()

		assert.Error(t, err)
	})

	t.Run("database failure surfaces through the graph", func(t *testing.T) {
		cfg := testutils.GetTestConfig()
		cfg.Database.Driver = "oracle"

		_, err := NewApp().WithConfig(cfg).Build()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver")
	})
}

func TestAppLifecycle(t *testing.T) {
	cfg := testutils.GetTestConfig()
	cfg.Database.DSN = ":memory:"
	cfg.Server.Port = "0"

	application, err := NewApp().WithConfig(cfg).Build()
	require.NoError(t, err)

	require.NoError(t, application.Start())
	assert.NotNil(t, application.Server())
	application.Stop()
}
