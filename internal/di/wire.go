//go:build wireinject
// +build wireinject

package di

import (
	"charityops/internal/common"
	"charityops/internal/config"
	"charityops/internal/dbmysql"
	"charityops/internal/gateway"
	"charityops/internal/notif"

	"github.com/google/wire"
)

func InitializeApplication() (*Application, error) {
	wire.Build(
		ProvideConfig,
		ProvideLogger,
		dbmysql.NewMySQL,
		dbmysql.NewNotificationRepository,
		dbmysql.NewUserNotificationRepository,
		ProvideVerifier,
		wire.Bind(new(common.TokenVerifier), new(*common.HMACVerifier)),
		gateway.NewRegistry,
		gateway.NewHub,
		wire.Bind(new(gateway.UnreadCounter), new(dbmysql.UserNotificationRepository)),
		notif.NewService,
		wire.Bind(new(notif.Pusher), new(*gateway.Hub)),
		wire.Bind(new(gateway.NotificationService), new(*notif.Service)),
		notif.NewHandler,
		gateway.NewGateway,
		wire.Struct(new(Application), "*"),
	)
	return &Application{}, nil
}
