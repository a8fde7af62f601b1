package voterlink

import (
	"github.com/civic-stack/voterlink/app"
	"github.com/civic-stack/voterlink/config"
)

type App = app.App

type AppBuilder = app.AppBuilder

func New() *AppBuilder {
	return app.NewApp()
}

func NewWithConfig(cfg *config.Config) *AppBuilder {
	return app.NewApp().WithConfig(cfg)
}
