package testutils

import (
	"time"

	"github.com/civic-stack/voterlink/config"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Test App",
			URL:  "http://localhost:8080",
		},
		Log: config.LogConfig{
			Level:      "error",
			Format:     "json",
			OutputPath: "stdout",
		},
		Database: config.DatabaseConfig{
			Driver:      "sqlite",
			DSN:         ":memory:",
			AutoMigrate: true,
		},
		SignIn: config.SignInConfig{
			PerCodeFailureLimit: 5,
			AllTimeFailureLimit: 25,
			CodeLifetime:        24 * time.Hour,
			BypassCode:          "",
			SecretKeyLength:     32,
		},
	}
}

var TestDeviceTokens = struct {
	Primary   string
	Secondary string
	Unknown   string
}{
	Primary:   "device-token-primary-0123456789abcdef",
	Secondary: "device-token-secondary-fedcba9876543210",
	Unknown:   "device-token-never-registered",
}
