package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"VL_APP_"`
	Server   ServerConfig   `envPrefix:"VL_SERVER_"`
	Log      LogConfig      `envPrefix:"VL_LOG_"`
	Database DatabaseConfig `envPrefix:"VL_DATABASE_"`
	Mail     MailConfig     `envPrefix:"VL_MAIL_"`
	SignIn   SignInConfig   `envPrefix:"VL_SIGNIN_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"voterlink"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level      string `env:"LEVEL" envDefault:"info"`
	Format     string `env:"FORMAT" envDefault:"json"`
	OutputPath string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"voterlink.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type MailConfig struct {
	Host        string `env:"HOST"`
	Port        int    `env:"PORT" envDefault:"587"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	Encryption  string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress string `env:"FROM_ADDRESS"`
	FromName    string `env:"FROM_NAME" envDefault:"voterlink"`
}

// SignInConfig holds the secret-code protocol thresholds. A deployment may
// override any of them through the environment.
type SignInConfig struct {
	// PerCodeFailureLimit is the number of wrong submissions allowed against
	// a single code before the voter must request a new one.
	PerCodeFailureLimit uint `env:"PER_CODE_FAILURE_LIMIT" envDefault:"5"`
	// AllTimeFailureLimit is the cumulative wrong-submission count after
	// which the device token is locked out entirely.
	AllTimeFailureLimit uint `env:"ALL_TIME_FAILURE_LIMIT" envDefault:"25"`
	// CodeLifetime is how long an issued secret code stays valid.
	CodeLifetime time.Duration `env:"CODE_LIFETIME" envDefault:"24h"`
	// BypassCode, when non-empty, is issued verbatim instead of a random
	// code. Used for app-store review accounts and end-to-end tests.
	BypassCode string `env:"BYPASS_CODE" envDefault:""`
	// SecretKeyLength is the number of random bytes behind each email/SMS
	// secret key (hex-encoded on the wire).
	SecretKeyLength int `env:"SECRET_KEY_LENGTH" envDefault:"32"`
}

func LoadConfig(cfg any) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	return env.Parse(cfg)
}
