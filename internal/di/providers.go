package di

import (
	"fmt"

	"charityops/internal/common"
	"charityops/internal/config"
	"charityops/internal/gateway"
	"charityops/internal/notif"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Application bundles everything main needs to serve traffic.
type Application struct {
	Config   *config.Config
	Logger   *zap.SugaredLogger
	DB       *gorm.DB
	Verifier *common.HMACVerifier
	Registry *gateway.Registry
	Hub      *gateway.Hub
	Service  *notif.Service
	Handler  *notif.Handler
	Gateway  *gateway.Gateway
}

func ProvideConfig() *config.Config {
	return config.Load()
}

// ProvideLogger builds the process logger. Development gets the
// human-readable console encoder, everything else gets production JSON.
func ProvideLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Server.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

func ProvideVerifier(cfg *config.Config) (*common.HMACVerifier, error) {
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	return common.NewHMACVerifier(cfg.JWT.Secret), nil
}
