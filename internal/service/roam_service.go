// internal/service/roam_service.go
package service

import (
	"context"
	"errors"
	"roam-bridge/internal/command"
	"roam-bridge/internal/common/constants"
	"roam-bridge/internal/gs"
	"roam-bridge/internal/interfaces"
	"roam-bridge/internal/node"
	"sync"
	"time"
)

var (
	ErrNotStarted     = errors.New("guest science session not started")
	ErrAlreadyStarted = errors.New("guest science session already started")
	ErrSessionOver    = errors.New("guest science session already terminated")
)

// Session states.
const (
	StateIdle    = "idle"
	StateRunning = "running"
	StateStopped = "stopped"
)

// RobotAPI is the explicitly owned robot API context.
type RobotAPI interface {
	Publisher() interfaces.MessagePublisher
	Params() interfaces.ParameterStore
	IsConnected() bool
	Shutdown() error
}

// Node is the roam node as seen by the service.
type Node interface {
	command.Node
	node.Runnable
	SendStopped() error
	Snapshot() node.State
}

// NodeFactory builds the node for a session.
type NodeFactory func(cfg node.Configuration, api RobotAPI, logger interfaces.Logger) Node

// NodeExecutor runs the node in the background until Shutdown.
type NodeExecutor interface {
	Execute(ctx context.Context, n node.Runnable)
	Shutdown()
}

// NewRoamStatusNode is the default NodeFactory.
func NewRoamStatusNode(cfg node.Configuration, api RobotAPI, logger interfaces.Logger) Node {
	return node.NewRoamStatusNode(cfg, api.Publisher(), api.Params(), logger)
}

// Status 세션 상태 스냅샷
type Status struct {
	State        string            `json:"state"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	CommandCount int               `json:"commandCount"`
	LastCommand  string            `json:"lastCommand,omitempty"`
	LastResult   string            `json:"lastResult,omitempty"`
	Node         *node.State       `json:"node,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
}

// RoamService is the lifecycle adapter between the guest science host and
// the roam node. Commands are handled one at a time.
type RoamService struct {
	api        RobotAPI
	host       gs.Host
	dispatcher *command.Dispatcher
	config     interfaces.ConfigProvider
	newNode    NodeFactory
	executor   NodeExecutor
	logger     interfaces.Logger

	mu           sync.Mutex
	state        string
	node         Node
	startedAt    time.Time
	commandCount int
	lastCommand  string
	lastResult   string
}

// NewRoamService 새 서비스 생성
func NewRoamService(
	api RobotAPI,
	host gs.Host,
	dispatcher *command.Dispatcher,
	config interfaces.ConfigProvider,
	newNode NodeFactory,
	executor NodeExecutor,
	logger interfaces.Logger,
) *RoamService {
	if newNode == nil {
		newNode = NewRoamStatusNode
	}
	if executor == nil {
		executor = node.NewExecutor(logger)
	}
	return &RoamService{
		api:        api,
		host:       host,
		dispatcher: dispatcher,
		config:     config,
		newNode:    newNode,
		executor:   executor,
		logger:     logger,
		state:      StateIdle,
	}
}

// Start builds the node against the fixed master endpoint, launches it and
// reports started to the host.
func (s *RoamService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrSessionOver
	}

	cfg := node.Configuration{
		MasterURI:      s.config.GetMasterURI(),
		Hostname:       s.config.GetHostname(),
		StatusInterval: s.config.GetNodeStatusInterval(),
		Timeout:        s.config.GetTimeout(),
	}

	n := s.newNode(cfg, s.api, s.logger)
	s.executor.Execute(ctx, n)

	s.node = n
	s.state = StateRunning
	s.startedAt = time.Now()

	s.logger.Infof("🚀 Guest science started (master=%s, host=%s)", cfg.MasterURI, cfg.Hostname)

	if err := s.host.SendStarted(gs.LevelInfo); err != nil {
		s.logger.Warnf("Failed to report started: %v", err)
	}
	return nil
}

// Stop publishes the stopped node status, shuts the API down, reports
// stopped and terminates the host connection. A second Stop is a no-op.
func (s *RoamService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateIdle:
		return ErrNotStarted
	case StateStopped:
		return nil
	}

	if err := s.node.SendStopped(); err != nil {
		s.logger.Errorf("❌ Failed to send stopped status: %v", err)
	}
	s.executor.Shutdown()

	if err := s.api.Shutdown(); err != nil {
		s.logger.Warnf("Robot API shutdown error: %v", err)
	}

	if err := s.host.SendStopped(gs.LevelInfo); err != nil {
		s.logger.Warnf("Failed to report stopped: %v", err)
	}

	s.node = nil
	s.state = StateStopped
	s.logger.Infof("🛑 Guest science stopped")

	return s.host.Terminate()
}

// HandleCommand acknowledges the command, dispatches it and sends exactly
// one data message with the result, which is also returned.
func (s *RoamService) HandleCommand(payload string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.host.SendReceivedCustomCommand(gs.LevelInfo); err != nil {
		s.logger.Warnf("Failed to acknowledge command: %v", err)
	}

	var n command.Node
	if s.node != nil {
		n = s.node
	}

	result := s.dispatcher.Dispatch(n, payload)

	if err := s.host.SendData(gs.MessageTypeJSON, "data", result); err != nil {
		s.logger.Errorf("❌ Failed to send command result: %v", err)
	}

	s.commandCount++
	s.lastCommand = payload
	s.lastResult = result
	return result
}

// Running 세션 실행 여부
func (s *RoamService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateRunning
}

// Status returns a snapshot of the session. Parameters are read only while
// the session runs, since Stop closes the store.
func (s *RoamService) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	status := &Status{
		State:        s.state,
		CommandCount: s.commandCount,
		LastCommand:  s.lastCommand,
		LastResult:   s.lastResult,
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		status.StartedAt = &startedAt
	}
	running := s.state == StateRunning
	if s.node != nil {
		snapshot := s.node.Snapshot()
		status.Node = &snapshot
	}
	s.mu.Unlock()

	if !running {
		return status, nil
	}

	params, err := s.api.Params().GetParams(ctx,
		constants.ParamStatus,
		constants.ParamRole,
		constants.ParamGround,
		constants.ParamLastCode,
		constants.ParamMaster,
	)
	if err != nil {
		return status, err
	}
	status.Params = params
	return status, nil
}

// Healthy reports whether the robot API is still connected.
func (s *RoamService) Healthy() bool {
	return s.api.IsConnected()
}
