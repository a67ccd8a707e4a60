// internal/di/container.go
package di

import (
	"context"
	"fmt"
	"roam-bridge/internal/command"
	"roam-bridge/internal/config"
	"roam-bridge/internal/gs"
	"roam-bridge/internal/interfaces"
	"roam-bridge/internal/messaging"
	"roam-bridge/internal/robotapi"
	"roam-bridge/internal/server"
	"roam-bridge/internal/service"
	"roam-bridge/internal/services"
	"roam-bridge/internal/utils"
)

// Container 의존성 주입 컨테이너
type Container struct {
	// Core Services
	Config interfaces.ConfigProvider
	Logger interfaces.Logger

	// Infra
	API           *robotapi.API
	HostPublisher interfaces.MessagePublisher

	// Guest science
	Host       *gs.MQTTHost
	Dispatcher *command.Dispatcher
	Service    *service.RoamService

	// HTTP
	Server *server.Server
}

// NewContainer 새로운 컨테이너 생성
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. 기본 서비스들 초기화
	c.initCoreServices(cfg)

	// 2. 인프라 서비스들 초기화
	if err := c.initInfraServices(ctx, cfg); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init infra services: %v", err)
	}

	// 3. 게스트 사이언스 구성
	c.initGuestScience(cfg)

	// 4. HTTP 서버
	c.Server = server.NewServer(cfg.HTTPAddr, c.Service, services.NewLogger(cfg.LogLevel, "http"))

	return c, nil
}

func (c *Container) initCoreServices(cfg *config.Config) {
	utils.SetupLogger(cfg.LogLevel)
	c.Config = services.NewConfigProvider(cfg)
	c.Logger = services.NewLogger(cfg.LogLevel, "roam-bridge")
}

func (c *Container) initInfraServices(ctx context.Context, cfg *config.Config) error {
	api, err := robotapi.Connect(ctx, cfg, services.NewLogger(cfg.LogLevel, "robot-api"))
	if err != nil {
		return err
	}
	c.API = api

	// GS 매니저 연결은 로봇 API와 별도 (API 종료 후에도 stopped 보고 필요)
	hostClient, err := messaging.NewMQTTClient(cfg, cfg.MQTTClientID+"_gs")
	if err != nil {
		return fmt.Errorf("guest science mqtt init failed: %v", err)
	}
	c.HostPublisher = services.NewMessagePublisher(hostClient, cfg.Timeout)

	return nil
}

func (c *Container) initGuestScience(cfg *config.Config) {
	c.Host = gs.NewMQTTHost(cfg.APKName, c.HostPublisher, services.NewLogger(cfg.LogLevel, "gs-host"))

	c.Dispatcher = command.NewDispatcher(
		services.NewLogger(cfg.LogLevel, "dispatcher"),
		command.WithUnknownFallthrough(cfg.UnknownFallsThrough),
	)

	c.Service = service.NewRoamService(
		c.API,
		c.Host,
		c.Dispatcher,
		c.Config,
		service.NewRoamStatusNode,
		nil,
		services.NewLogger(cfg.LogLevel, "roam-service"),
	)

	c.Host.Bind(c.Service)
}

// Cleanup 리소스 정리
func (c *Container) Cleanup() {
	if c.API != nil {
		c.API.Shutdown()
	}
	if c.HostPublisher != nil {
		c.HostPublisher.Disconnect(250)
	}
	if c.Logger != nil {
		c.Logger.Infof("Container cleanup completed")
	}
}
