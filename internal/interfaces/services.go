// internal/interfaces/services.go
package interfaces

import (
	"context"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ParameterStore 노드 파라미터 트리 인터페이스 (Redis)
type ParameterStore interface {
	SetParam(ctx context.Context, key string, value interface{}) error
	GetParam(ctx context.Context, key string) (string, error)
	GetParams(ctx context.Context, keys ...string) (map[string]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// MessagePublisher MQTT 메시지 발행 인터페이스
type MessagePublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) error
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) error
	Unsubscribe(topics ...string) error
	IsConnected() bool
	Disconnect(quiesce uint)
}

// ConfigProvider 설정 제공 인터페이스
type ConfigProvider interface {
	GetMasterURI() string
	GetHostname() string
	GetNodeStatusInterval() time.Duration
	GetTimeout() time.Duration
}

// Logger 로깅 인터페이스
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatal(args ...interface{})
	Fatalf(format string, args ...interface{})
}
