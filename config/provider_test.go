package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestNewProvider(t *testing.T) {
	t.Run("custom config is supplied as-is", func(t *testing.T) {
		custom := &Config{App: AppConfig{Name: "custom-app"}}

		var got *Config
		app := fx.New(NewProvider(custom), fx.Populate(&got), fx.NopLogger)

		require.NoError(t, app.Err())
		assert.Same(t, custom, got)
	})

	t.Run("nil config loads from the environment", func(t *testing.T) {
		clearEnvVars(t)

		var got *Config
		app := fx.New(NewProvider(nil), fx.Populate(&got), fx.NopLogger)

		require.NoError(t, app.Err())
		require.NotNil(t, got)
		assert.Equal(t, "voterlink", got.App.Name)
		assert.Equal(t, uint(5), got.SignIn.PerCodeFailureLimit)
	})
}
