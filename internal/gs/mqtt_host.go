// internal/gs/mqtt_host.go
package gs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"roam-bridge/internal/common/constants"
	"roam-bridge/internal/interfaces"
	"roam-bridge/internal/messaging"
	"strings"
	"sync"
	"time"
)

// Lifecycle states published on the state topic.
const (
	StateStarted         = "started"
	StateStopped         = "stopped"
	StateCommandReceived = "command_received"
	StateTerminated      = "terminated"
	StateStartFailed     = "start_failed"
)

// ErrNotBound 리시버가 연결되지 않음
var ErrNotBound = errors.New("guest science host has no command receiver")

type stateMessage struct {
	APK       string `json:"apk"`
	State     string `json:"state"`
	Level     string `json:"level"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

type dataMessage struct {
	APK       string      `json:"apk"`
	Type      MessageType `json:"type"`
	Key       string      `json:"key"`
	Payload   string      `json:"payload"`
	Timestamp string      `json:"timestamp"`
}

// MQTTHost connects a CommandReceiver to the guest science manager over MQTT.
type MQTTHost struct {
	apk       string
	publisher interfaces.MessagePublisher
	logger    interfaces.Logger
	router    *messaging.Router

	mu         sync.Mutex
	ctx        context.Context
	receiver   CommandReceiver
	terminated bool
	done       chan struct{}
}

// NewMQTTHost 새 MQTT 게스트 사이언스 호스트 생성
func NewMQTTHost(apk string, publisher interfaces.MessagePublisher, logger interfaces.Logger) *MQTTHost {
	h := &MQTTHost{
		apk:       apk,
		publisher: publisher,
		logger:    logger,
		ctx:       context.Background(),
		done:      make(chan struct{}),
	}
	h.router = messaging.NewRouter(apk, h, h)
	return h
}

// Bind sets the receiver that start, stop and command messages are routed to.
func (h *MQTTHost) Bind(receiver CommandReceiver) {
	h.mu.Lock()
	h.receiver = receiver
	h.mu.Unlock()
}

// Serve starts the routing worker and subscribes to the control and command
// topics. Messages are handled one at a time in arrival order until ctx is
// cancelled. ctx also becomes the parent of sessions started through the
// control topic.
func (h *MQTTHost) Serve(ctx context.Context) error {
	h.mu.Lock()
	if h.receiver == nil {
		h.mu.Unlock()
		return ErrNotBound
	}
	h.ctx = ctx
	h.mu.Unlock()

	go h.router.Run(ctx)

	for _, topic := range h.router.Topics() {
		if err := h.publisher.Subscribe(topic, 1, h.router.RouteMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %v", topic, err)
		}
		h.logger.Infof("✅ Subscribed to topic: %s", topic)
	}
	return nil
}

// Done is closed once Terminate has been called.
func (h *MQTTHost) Done() <-chan struct{} {
	return h.done
}

// HandleControl 시작/종료 제어 메시지 처리
func (h *MQTTHost) HandleControl(action string) {
	receiver := h.boundReceiver()
	if receiver == nil {
		h.logger.Warnf("Control %q dropped: %v", action, ErrNotBound)
		return
	}

	switch strings.ToLower(strings.TrimSpace(action)) {
	case constants.ControlStart:
		h.mu.Lock()
		ctx := h.ctx
		h.mu.Unlock()

		if err := receiver.Start(ctx); err != nil {
			h.logger.Errorf("❌ Guest science start failed: %v", err)
			h.publishState(StateStartFailed, LevelError, err.Error())
		}

	case constants.ControlStop:
		if err := receiver.Stop(); err != nil {
			h.logger.Errorf("❌ Guest science stop failed: %v", err)
		}

	default:
		h.logger.Warnf("Unknown control action: %q", action)
	}
}

// HandleCustomCommand 커스텀 명령 처리
func (h *MQTTHost) HandleCustomCommand(payload string) {
	receiver := h.boundReceiver()
	if receiver == nil {
		h.logger.Warnf("Command dropped: %v", ErrNotBound)
		return
	}
	receiver.HandleCommand(payload)
}

func (h *MQTTHost) SendStarted(level string) error {
	return h.publishState(StateStarted, level, "")
}

func (h *MQTTHost) SendStopped(level string) error {
	return h.publishState(StateStopped, level, "")
}

func (h *MQTTHost) SendReceivedCustomCommand(level string) error {
	return h.publishState(StateCommandReceived, level, "")
}

func (h *MQTTHost) SendData(msgType MessageType, key, payload string) error {
	msg := dataMessage{
		APK:       h.apk,
		Type:      msgType,
		Key:       key,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return h.publishJSON(constants.GetGSDataTopic(h.apk), msg)
}

// Terminate drops the subscriptions and releases Done. Later calls are no-ops.
func (h *MQTTHost) Terminate() error {
	h.mu.Lock()
	if h.terminated {
		h.mu.Unlock()
		return nil
	}
	h.terminated = true
	h.mu.Unlock()

	h.publishState(StateTerminated, LevelInfo, "")

	err := h.publisher.Unsubscribe(h.router.Topics()...)
	if err != nil {
		h.logger.Warnf("Unsubscribe on terminate failed: %v", err)
	}

	close(h.done)
	h.logger.Infof("👋 Guest science host terminated")
	return err
}

func (h *MQTTHost) boundReceiver() CommandReceiver {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.receiver
}

func (h *MQTTHost) publishState(state, level, message string) error {
	msg := stateMessage{
		APK:       h.apk,
		State:     state,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	return h.publishJSON(constants.GetGSStateTopic(h.apk), msg)
}

func (h *MQTTHost) publishJSON(topic string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %v", topic, err)
	}

	if err := h.publisher.Publish(topic, 1, false, data); err != nil {
		h.logger.Errorf("❌ MQTT SEND FAILED: %s - %v", topic, err)
		return err
	}

	h.logger.Debugf("📤 SENT %s: %s", topic, string(data))
	return nil
}
