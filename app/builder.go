package app

import (
	"fmt"

	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/database"
	"github.com/civic-stack/voterlink/server"
	"github.com/civic-stack/voterlink/services/channel"
	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/civic-stack/voterlink/services/mail"
	"github.com/civic-stack/voterlink/services/voter"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// AppBuilder assembles the voterlink application. The device-link registry,
// voter store, and channel records are always on; mail delivery is opt-in
// since SMS-only deployments deliver codes elsewhere.
type AppBuilder struct {
	config    *config.Config
	mail      bool
	models    []any
	fxOptions []fx.Option
	errors    []error
}

func NewApp() *AppBuilder {
	return &AppBuilder{
		models:    make([]any, 0),
		fxOptions: make([]fx.Option, 0),
		errors:    make([]error, 0),
	}
}

func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	if cfg == nil {
		b.addError("config cannot be nil")
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithAutoConfig() *AppBuilder {
	cfg := &config.Config{}
	if err := config.LoadConfig(cfg); err != nil {
		b.addError(fmt.Sprintf("failed to load config: %v", err))
		return b
	}
	b.config = cfg
	return b
}

func (b *AppBuilder) WithMail() *AppBuilder {
	b.mail = true
	return b
}

// WithModels registers extra GORM models beyond the built-in ones.
func (b *AppBuilder) WithModels(models ...any) *AppBuilder {
	b.models = append(b.models, models...)
	return b
}

func (b *AppBuilder) WithFxOptions(opts ...fx.Option) *AppBuilder {
	b.fxOptions = append(b.fxOptions, opts...)
	return b
}

func (b *AppBuilder) addError(msg string) {
	b.errors = append(b.errors, fmt.Errorf("%s", msg))
}

func (b *AppBuilder) Build() (*App, error) {
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("configuration errors: %v", b.errors)
	}

	if b.config == nil {
		b.WithAutoConfig()
		if len(b.errors) > 0 {
			return nil, fmt.Errorf("configuration errors: %v", b.errors)
		}
	}

	models := make([]any, 0)
	models = append(models, devicelink.Models()...)
	models = append(models, voter.Models()...)
	models = append(models, channel.Models()...)
	models = append(models, b.models...)

	app := &App{config: b.config}

	fxOptions := []fx.Option{
		config.NewProvider(b.config),
		logging.Module,
		fx.Supply(database.WithModels(models...)),
		database.Module,
		fx.NopLogger,
		devicelink.Module,
		voter.Module,
		channel.Module,
		server.NewProvider(),
	}

	if b.mail {
		fxOptions = append(fxOptions, mail.Module)
		fxOptions = append(fxOptions, fx.Invoke(func(registry *devicelink.Service, sender *mail.Service) {
			registry.SetCodeSender(sender)
		}))
	}

	fxOptions = append(fxOptions, b.fxOptions...)
	fxOptions = append(fxOptions, fx.Invoke(func(logger *logging.Service, db *gorm.DB, srv *server.Server) {
		app.logger = logger
		app.db = db
		app.server = srv
	}))

	app.fx = fx.New(fxOptions...)
	if err := app.fx.Err(); err != nil {
		return nil, err
	}
	return app, nil
}
