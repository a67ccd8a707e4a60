// internal/messaging/router.go
package messaging

import (
	"context"

	"roam-bridge/internal/common/constants"
	"roam-bridge/internal/utils"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// routerQueueSize bounds the messages waiting for the worker.
const routerQueueSize = 64

// CommandHandler 커스텀 명령 처리 인터페이스
type CommandHandler interface {
	HandleCustomCommand(payload string)
}

// ControlHandler 게스트 사이언스 시작/종료 처리 인터페이스
type ControlHandler interface {
	HandleControl(action string)
}

// Router 메시지 라우터
//
// RouteMessage only queues; Run handles messages one at a time in arrival
// order. Handlers therefore run off the client's delivery goroutine and may
// wait on publish and unsubscribe tokens.
type Router struct {
	commandTopic   string
	controlTopic   string
	commandHandler CommandHandler
	controlHandler ControlHandler

	queue chan mqtt.Message
	done  chan struct{}
}

// NewRouter 새 메시지 라우터 생성
func NewRouter(apk string, commandHandler CommandHandler, controlHandler ControlHandler) *Router {
	return &Router{
		commandTopic:   constants.GetGSCommandTopic(apk),
		controlTopic:   constants.GetGSControlTopic(apk),
		commandHandler: commandHandler,
		controlHandler: controlHandler,
		queue:          make(chan mqtt.Message, routerQueueSize),
		done:           make(chan struct{}),
	}
}

// Topics 구독해야 하는 토픽 목록
func (r *Router) Topics() []string {
	return []string{r.controlTopic, r.commandTopic}
}

// RouteMessage 메시지를 처리 큐에 추가
func (r *Router) RouteMessage(client mqtt.Client, msg mqtt.Message) {
	select {
	case r.queue <- msg:
	case <-r.done:
		utils.Logger.Warnf("Router stopped, dropping message from %s", msg.Topic())
	}
}

// Run drains the queue until ctx is cancelled.
func (r *Router) Run(ctx context.Context) {
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			utils.Logger.Debugf("Router worker exited")
			return
		case msg := <-r.queue:
			r.dispatch(msg)
		}
	}
}

// dispatch 토픽에 따라 메시지 라우팅
func (r *Router) dispatch(msg mqtt.Message) {
	topic := msg.Topic()
	utils.Logger.Debugf("Routing message from topic: %s", topic)

	switch topic {
	case r.commandTopic:
		r.commandHandler.HandleCustomCommand(string(msg.Payload()))

	case r.controlTopic:
		r.controlHandler.HandleControl(string(msg.Payload()))

	default:
		utils.Logger.Warnf("Unhandled topic: %s", topic)
	}
}
