// internal/services/implementations.go
package services

import (
	"context"
	"fmt"
	"roam-bridge/internal/config"
	"roam-bridge/internal/interfaces"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// Parameter Store Implementation
// =============================================================================

// ParameterStoreImpl keeps the node parameter tree in a single Redis hash.
// Keys use the slash-separated parameter names, e.g. "roamcommand/role".
type ParameterStoreImpl struct {
	client *redis.Client
	hash   string
}

func NewParameterStore(client *redis.Client, namespace string) interfaces.ParameterStore {
	return &ParameterStoreImpl{
		client: client,
		hash:   "params:" + strings.Trim(namespace, "/"),
	}
}

func (p *ParameterStoreImpl) SetParam(ctx context.Context, key string, value interface{}) error {
	return p.client.HSet(ctx, p.hash, key, value).Err()
}

// GetParam returns "" and no error for an unset parameter.
func (p *ParameterStoreImpl) GetParam(ctx context.Context, key string) (string, error) {
	value, err := p.client.HGet(ctx, p.hash, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return value, err
}

func (p *ParameterStoreImpl) GetParams(ctx context.Context, keys ...string) (map[string]string, error) {
	if len(keys) == 0 {
		return p.client.HGetAll(ctx, p.hash).Result()
	}

	values, err := p.client.HMGet(ctx, p.hash, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(keys))
	for i, key := range keys {
		if s, ok := values[i].(string); ok {
			result[key] = s
		}
	}
	return result, nil
}

func (p *ParameterStoreImpl) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *ParameterStoreImpl) Close() error {
	return p.client.Close()
}

// =============================================================================
// Message Publisher Implementation
// =============================================================================

type MessagePublisherImpl struct {
	client  mqtt.Client
	timeout time.Duration
}

func NewMessagePublisher(client mqtt.Client, timeout time.Duration) interfaces.MessagePublisher {
	return &MessagePublisherImpl{client: client, timeout: timeout}
}

func (m *MessagePublisherImpl) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	if !m.client.IsConnected() {
		return fmt.Errorf("MQTT client is not connected")
	}
	return m.wait(m.client.Publish(topic, qos, retained, payload), "publish to "+topic)
}

func (m *MessagePublisherImpl) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error {
	return m.wait(m.client.Subscribe(topic, qos, callback), "subscribe to "+topic)
}

func (m *MessagePublisherImpl) Unsubscribe(topics ...string) error {
	return m.wait(m.client.Unsubscribe(topics...), "unsubscribe")
}

func (m *MessagePublisherImpl) IsConnected() bool {
	return m.client.IsConnected()
}

func (m *MessagePublisherImpl) Disconnect(quiesce uint) {
	if m.client.IsConnected() {
		m.client.Disconnect(quiesce)
	}
}

func (m *MessagePublisherImpl) wait(token mqtt.Token, what string) error {
	if m.timeout > 0 {
		if !token.WaitTimeout(m.timeout) {
			return fmt.Errorf("timeout waiting to %s", what)
		}
	} else {
		token.Wait()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to %s: %v", what, err)
	}
	return nil
}

// =============================================================================
// Config Provider Implementation
// =============================================================================

type ConfigProviderImpl struct {
	cfg *config.Config
}

func NewConfigProvider(cfg *config.Config) interfaces.ConfigProvider {
	return &ConfigProviderImpl{cfg: cfg}
}

func (c *ConfigProviderImpl) GetMasterURI() string {
	return c.cfg.MasterURI
}

func (c *ConfigProviderImpl) GetHostname() string {
	return c.cfg.Hostname
}

func (c *ConfigProviderImpl) GetNodeStatusInterval() time.Duration {
	return c.cfg.NodeStatusInterval
}

func (c *ConfigProviderImpl) GetTimeout() time.Duration {
	return c.cfg.Timeout
}

// =============================================================================
// Logger Implementation
// =============================================================================

// NewLogger returns a logrus entry tagged with the component name.
// *logrus.Entry already satisfies interfaces.Logger.
func NewLogger(level, component string) interfaces.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	return logger.WithField("component", component)
}
