package devicelink

import (
	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return NewService(cfg, db, logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)

// Models lists the gorm models this service persists, for registration with
// the database auto-migrator.
func Models() []any {
	return []any{&DeviceLink{}}
}
