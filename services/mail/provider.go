package mail

import (
	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/services/logging"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(cfg, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideMailService),
)
