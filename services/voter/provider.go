package voter

import (
	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(db *gorm.DB, links *devicelink.Service, logger *logging.Service) *Service {
	return NewService(db, links.Store(), logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)

func Models() []any {
	return []any{&Voter{}}
}
