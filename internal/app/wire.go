//go:build wireinject

package app

import (
	"github.com/dushixiang/statuspi/internal/config"
	"github.com/dushixiang/statuspi/internal/server"
	"github.com/google/wire"
)

// InitializeServer 根据配置组装 HTTP 服务
func InitializeServer(cfg *config.AppConfig) (*server.Server, func(), error) {
	wire.Build(ProviderSet, server.NewServer)
	return nil, nil, nil
}
