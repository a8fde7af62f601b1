package channel

import (
	"github.com/civic-stack/voterlink/services/devicelink"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/civic-stack/voterlink/services/voter"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func NewProvider(db *gorm.DB, registry *devicelink.Service, voters *voter.Service, logger *logging.Service) *Service {
	return NewService(db, registry, voters, logger)
}

var Module = fx.Options(
	fx.Provide(NewProvider),
)

func Models() []any {
	return []any{&EmailAddress{}, &SMSPhoneNumber{}}
}
