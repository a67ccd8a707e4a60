// internal/robotapi/api.go
package robotapi

import (
	"context"
	"fmt"
	"roam-bridge/internal/config"
	"roam-bridge/internal/interfaces"
	"roam-bridge/internal/messaging"
	"roam-bridge/internal/redis"
	"roam-bridge/internal/services"
	"sync"
)

// API owns the robot-side connections: the MQTT publisher for the command
// and status topics and the parameter store. One instance per process, built
// in main and handed to the service.
type API struct {
	publisher interfaces.MessagePublisher
	params    interfaces.ParameterStore
	logger    interfaces.Logger

	mu       sync.Mutex
	shutdown bool
}

// New wraps already connected dependencies.
func New(publisher interfaces.MessagePublisher, params interfaces.ParameterStore, logger interfaces.Logger) *API {
	return &API{
		publisher: publisher,
		params:    params,
		logger:    logger,
	}
}

// Connect dials Redis and the MQTT broker for the robot side.
func Connect(ctx context.Context, cfg *config.Config, logger interfaces.Logger) (*API, error) {
	redisClient, err := redis.NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("redis init failed: %v", err)
	}
	params := services.NewParameterStore(redisClient, cfg.Hostname)

	mqttClient, err := messaging.NewMQTTClient(cfg, cfg.MQTTClientID, messaging.WithNodeWill(cfg.Hostname))
	if err != nil {
		params.Close()
		return nil, fmt.Errorf("mqtt init failed: %v", err)
	}

	logger.Infof("✅ Robot API connected (broker=%s)", cfg.MQTTBroker)
	return New(services.NewMessagePublisher(mqttClient, cfg.Timeout), params, logger), nil
}

// Publisher 로봇 토픽 발행자
func (a *API) Publisher() interfaces.MessagePublisher {
	return a.publisher
}

// Params 파라미터 저장소
func (a *API) Params() interfaces.ParameterStore {
	return a.params
}

// IsConnected 연결 상태 확인
func (a *API) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.shutdown && a.publisher.IsConnected()
}

// Shutdown releases both connections. Only the first call has an effect.
func (a *API) Shutdown() error {
	a.mu.Lock()
	if a.shutdown {
		a.mu.Unlock()
		return nil
	}
	a.shutdown = true
	a.mu.Unlock()

	a.publisher.Disconnect(250)

	if err := a.params.Close(); err != nil {
		a.logger.Warnf("Parameter store close failed: %v", err)
		return err
	}

	a.logger.Infof("Robot API shut down")
	return nil
}
