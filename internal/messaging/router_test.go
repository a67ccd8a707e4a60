package messaging

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

type recordingHandler struct {
	mu       sync.Mutex
	commands []string
	controls []string
	order    []string
}

func (h *recordingHandler) HandleCustomCommand(payload string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, payload)
	h.order = append(h.order, payload)
}

func (h *recordingHandler) HandleControl(action string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.controls = append(h.controls, action)
	h.order = append(h.order, action)
}

func (h *recordingHandler) handled() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

func waitForHandled(t *testing.T, h *recordingHandler, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.handled() < n {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %d messages, got %d", n, h.handled())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRouteMessage(t *testing.T) {
	h := &recordingHandler{}
	router := NewRouter("roamcommandasap", h, h)

	topics := router.Topics()
	if len(topics) != 2 || topics[0] != "gs/roamcommandasap/control" || topics[1] != "gs/roamcommandasap/command" {
		t.Fatalf("Unexpected topics: %v", topics)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go router.Run(ctx)

	router.RouteMessage(nil, &fakeMessage{topic: "gs/roamcommandasap/command", payload: []byte(`{"name":"command1"}`)})
	router.RouteMessage(nil, &fakeMessage{topic: "gs/other/command", payload: []byte("ignored")})
	router.RouteMessage(nil, &fakeMessage{topic: "gs/roamcommandasap/control", payload: []byte("start")})
	waitForHandled(t, h, 2)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.commands) != 1 || h.commands[0] != `{"name":"command1"}` {
		t.Errorf("Unexpected commands: %v", h.commands)
	}
	if len(h.controls) != 1 || h.controls[0] != "start" {
		t.Errorf("Unexpected controls: %v", h.controls)
	}
}

func TestRouteMessageKeepsArrivalOrder(t *testing.T) {
	h := &recordingHandler{}
	router := NewRouter("roam", h, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go router.Run(ctx)

	var want []string
	route := func(topic, payload string) {
		want = append(want, payload)
		router.RouteMessage(nil, &fakeMessage{topic: topic, payload: []byte(payload)})
	}

	route("gs/roam/control", "start")
	for i := 0; i < 200; i++ {
		route("gs/roam/command", fmt.Sprintf(`{"name":"command%d"}`, i%12+1))
	}
	route("gs/roam/control", "stop")
	waitForHandled(t, h, len(want))

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range want {
		if h.order[i] != want[i] {
			t.Fatalf("Message %d: expected '%s', got '%s'", i, want[i], h.order[i])
		}
	}
}

func TestRouteMessageAfterRunExits(t *testing.T) {
	h := &recordingHandler{}
	router := NewRouter("roam", h, h)

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		router.Run(ctx)
		close(exited)
	}()
	cancel()
	<-exited

	finished := make(chan struct{})
	go func() {
		for i := 0; i < routerQueueSize*2; i++ {
			router.RouteMessage(nil, &fakeMessage{topic: "gs/roam/command", payload: []byte("{}")})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("RouteMessage blocked after the worker exited")
	}
}
