package node

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []published
	err      error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, published{topic, qos, retained, payload.([]byte)})
	return nil
}

func (f *fakePublisher) Subscribe(string, byte, mqtt.MessageHandler) error { return nil }
func (f *fakePublisher) Unsubscribe(...string) error                      { return nil }
func (f *fakePublisher) IsConnected() bool                                { return true }
func (f *fakePublisher) Disconnect(uint)                                  {}

func (f *fakePublisher) onTopic(topic string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, m := range f.messages {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

type fakeParams struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeParams() *fakeParams {
	return &fakeParams{values: map[string]string{}}
}

func (f *fakeParams) SetParam(_ context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value.(string)
	return nil
}

func (f *fakeParams) GetParam(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeParams) GetParams(_ context.Context, keys ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, k := range keys {
		out[k] = f.values[k]
	}
	return out, nil
}

func (f *fakeParams) Ping(context.Context) error { return nil }
func (f *fakeParams) Close() error               { return nil }

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func newTestNode() (*RoamStatusNode, *fakePublisher, *fakeParams) {
	pub := &fakePublisher{}
	params := newFakeParams()
	n := NewRoamStatusNode(Configuration{
		MasterURI:      "http://llp:11311",
		Hostname:       "hlp",
		StatusInterval: 10 * time.Millisecond,
	}, pub, params, testLogger())
	return n, pub, params
}

func TestSendCommand(t *testing.T) {
	n, pub, params := newTestNode()

	if err := n.SendCommand(7); err != nil {
		t.Fatalf("SendCommand failed: %v", err)
	}

	msgs := pub.onTopic("roam/hlp/command")
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 command message, got %d", len(msgs))
	}

	var msg commandMessage
	if err := json.Unmarshal(msgs[0].payload, &msg); err != nil {
		t.Fatalf("Failed to parse command message: %v", err)
	}
	if msg.Code != 7 || msg.Hostname != "hlp" {
		t.Errorf("Unexpected command message: %+v", msg)
	}
	if msgs[0].retained {
		t.Error("Command messages must not be retained")
	}

	if got := params.values["roamcommand/last_code"]; got != "7" {
		t.Errorf("Expected last_code '7', got '%s'", got)
	}
	if state := n.Snapshot(); state.LastCode == nil || *state.LastCode != 7 {
		t.Errorf("Expected snapshot last code 7, got %+v", state.LastCode)
	}
}

func TestSetRole(t *testing.T) {
	n, pub, params := newTestNode()

	for _, role := range []string{"chaser", "target", ""} {
		if err := n.SetRole(role); err != nil {
			t.Fatalf("SetRole(%q) failed: %v", role, err)
		}
		if got := params.values["roamcommand/role"]; got != role {
			t.Errorf("Expected role param '%s', got '%s'", role, got)
		}
		if n.Snapshot().Role != Role(role) {
			t.Errorf("Expected snapshot role '%s', got '%s'", role, n.Snapshot().Role)
		}
	}

	msgs := pub.onTopic("roam/hlp/role")
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 role messages, got %d", len(msgs))
	}
	if !msgs[0].retained {
		t.Error("Role messages should be retained")
	}

	if err := n.SetRole("observer"); err == nil {
		t.Error("Expected error for unknown role")
	}
}

func TestSetGround(t *testing.T) {
	n, pub, params := newTestNode()

	if err := n.SetGround(); err != nil {
		t.Fatalf("SetGround failed: %v", err)
	}
	if params.values["roamcommand/ground"] != "true" {
		t.Error("Expected ground param to be 'true'")
	}
	if len(pub.onTopic("roam/hlp/ground")) != 1 {
		t.Error("Expected one ground message")
	}
	if !n.Snapshot().Ground {
		t.Error("Expected snapshot ground true")
	}
}

func TestRunAndSendStopped(t *testing.T) {
	n, pub, params := newTestNode()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for len(pub.onTopic("roam/hlp/status")) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for status heartbeats")
		}
		time.Sleep(5 * time.Millisecond)
	}

	params.mu.Lock()
	status := params.values["roamcommand"]
	master := params.values["roamcommand/master_uri"]
	params.mu.Unlock()
	if status != "running" {
		t.Errorf("Expected status 'running', got '%s'", status)
	}
	if master != "http://llp:11311" {
		t.Errorf("Expected master URI param, got '%s'", master)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after cancel")
	}

	if err := n.SendStopped(); err != nil {
		t.Fatalf("SendStopped failed: %v", err)
	}
	if params.values["roamcommand"] != "stopped" {
		t.Errorf("Expected status 'stopped', got '%s'", params.values["roamcommand"])
	}

	msgs := pub.onTopic("roam/hlp/status")
	var last statusMessage
	if err := json.Unmarshal(msgs[len(msgs)-1].payload, &last); err != nil {
		t.Fatalf("Failed to parse status: %v", err)
	}
	if last.Status != "stopped" {
		t.Errorf("Expected last status 'stopped', got '%s'", last.Status)
	}
}

func TestPublishFailure(t *testing.T) {
	n, pub, _ := newTestNode()
	pub.err = errors.New("not connected")

	if err := n.SendCommand(1); err == nil {
		t.Error("Expected error when publish fails")
	}
	if n.Snapshot().LastCode != nil {
		t.Error("Last code should not change on failure")
	}
}

func TestExecutorShutdownWaits(t *testing.T) {
	n, _, _ := newTestNode()
	exec := NewExecutor(testLogger())

	exec.Execute(context.Background(), n)

	deadline := time.Now().Add(time.Second)
	for n.Snapshot().Status != "running" {
		if time.Now().After(deadline) {
			t.Fatal("Node never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	finished := make(chan struct{})
	go func() {
		exec.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Executor shutdown did not return")
	}
}

func TestImmediateStopWins(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, pub, params := newTestNode()
		exec := NewExecutor(testLogger())

		exec.Execute(context.Background(), n)
		if err := n.SendStopped(); err != nil {
			t.Fatalf("SendStopped failed: %v", err)
		}
		exec.Shutdown()

		params.mu.Lock()
		status := params.values["roamcommand"]
		params.mu.Unlock()
		if status != "stopped" {
			t.Fatalf("Cycle %d: expected param 'stopped', got '%s'", i, status)
		}

		msgs := pub.onTopic("roam/hlp/status")
		var last statusMessage
		if err := json.Unmarshal(msgs[len(msgs)-1].payload, &last); err != nil {
			t.Fatalf("Failed to parse status: %v", err)
		}
		if last.Status != "stopped" || !msgs[len(msgs)-1].retained {
			t.Fatalf("Cycle %d: expected retained 'stopped' status, got '%s'", i, last.Status)
		}
		if got := n.Snapshot().Status; got != "stopped" {
			t.Fatalf("Cycle %d: expected snapshot 'stopped', got '%s'", i, got)
		}
	}
}

func TestRunAfterStopDoesNotStart(t *testing.T) {
	n, pub, _ := newTestNode()
	if err := n.SendStopped(); err != nil {
		t.Fatalf("SendStopped failed: %v", err)
	}
	before := len(pub.onTopic("roam/hlp/status"))

	if err := n.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := len(pub.onTopic("roam/hlp/status")); got != before {
		t.Errorf("Expected no status published after stop, got %d new", got-before)
	}
	if n.Snapshot().Status != "stopped" {
		t.Errorf("Expected 'stopped', got '%s'", n.Snapshot().Status)
	}
}
