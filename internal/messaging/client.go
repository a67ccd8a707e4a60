// internal/messaging/client.go
package messaging

import (
	"encoding/json"
	"fmt"
	"roam-bridge/internal/common/constants"
	"roam-bridge/internal/config"
	"roam-bridge/internal/utils"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// ClientOption 클라이언트 옵션 커스터마이저
type ClientOption func(opts *mqtt.ClientOptions)

// WithNodeWill marks the node stopped on its status topic if the connection
// drops without a clean stop.
func WithNodeWill(hostname string) ClientOption {
	return func(opts *mqtt.ClientOptions) {
		will, _ := json.Marshal(map[string]interface{}{
			"hostname": hostname,
			"status":   constants.NodeStatusStopped,
			"reason":   "connection lost",
		})
		opts.SetBinaryWill(constants.GetRoamStatusTopic(hostname), will, 1, true)
	}
}

// NewMQTTClient 새 MQTT 클라이언트 생성 및 연결
//
// Messages are delivered in arrival order. Handlers must not block on tokens;
// Router hands them to its own worker.
func NewMQTTClient(cfg *config.Config, clientID string, options ...ClientOption) (mqtt.Client, error) {
	utils.Logger.Infof("🏗️ CREATING MQTT Client %s (%s)", clientID, cfg.MQTTBroker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	opts.SetClientID(clientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(10 * time.Second)
	opts.SetOrderMatters(true)
	for _, option := range options {
		option(opts)
	}

	// 연결 상태 콜백
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		utils.Logger.Info("MQTT client connected")
	})

	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		utils.Logger.Errorf("MQTT connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)

	// 연결 시도
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.MQTTBroker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	utils.Logger.Infof("✅ MQTT Client CREATED")
	return client, nil
}
