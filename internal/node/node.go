// internal/node/node.go
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"roam-bridge/internal/common/constants"
	"roam-bridge/internal/interfaces"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Role 로봇 운용 역할
type Role string

const (
	RoleChaser   Role = "chaser"
	RoleTarget   Role = "target"
	RoleHardware Role = "" // 하드웨어 기본값
)

// IsValidRole 유효한 역할인지 확인
func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleChaser, RoleTarget, RoleHardware:
		return true
	}
	return false
}

// Configuration 노드 전송 설정
type Configuration struct {
	MasterURI      string
	Hostname       string
	StatusInterval time.Duration
	Timeout        time.Duration
}

// State 노드 상태 스냅샷
type State struct {
	Hostname string `json:"hostname"`
	Status   string `json:"status"`
	Role     Role   `json:"role"`
	Ground   bool   `json:"ground"`
	LastCode *int   `json:"lastCode,omitempty"`
}

type commandMessage struct {
	HeaderID  int64  `json:"headerId"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
	Code      int    `json:"code"`
}

type roleMessage struct {
	HeaderID  int64  `json:"headerId"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
	Role      Role   `json:"role"`
}

type statusMessage struct {
	HeaderID  int64  `json:"headerId"`
	Timestamp string `json:"timestamp"`
	Hostname  string `json:"hostname"`
	MasterURI string `json:"masterUri"`
	Status    string `json:"status"`
	Role      Role   `json:"role"`
	Ground    bool   `json:"ground"`
}

// RoamStatusNode publishes roam commands and status on the robot topic layer
// and mirrors its state into the parameter tree. Safe for concurrent use.
type RoamStatusNode struct {
	cfg       Configuration
	publisher interfaces.MessagePublisher
	params    interfaces.ParameterStore
	logger    interfaces.Logger

	headerID int64

	// stateMu orders status transitions so a late Run cannot overwrite a stop.
	stateMu sync.Mutex
	stopped bool

	mu       sync.Mutex
	status   string
	role     Role
	ground   bool
	lastCode *int
}

// NewRoamStatusNode 새 노드 생성
func NewRoamStatusNode(cfg Configuration, publisher interfaces.MessagePublisher,
	params interfaces.ParameterStore, logger interfaces.Logger) *RoamStatusNode {

	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &RoamStatusNode{
		cfg:       cfg,
		publisher: publisher,
		params:    params,
		logger:    logger,
		status:    constants.NodeStatusStopped,
	}
}

// Run marks the node running and publishes a status heartbeat until ctx is
// cancelled. It returns at once if the node was stopped before it got here.
func (n *RoamStatusNode) Run(ctx context.Context) error {
	started, err := n.markRunning(ctx)
	if err != nil || !started {
		return err
	}

	n.logger.Infof("🚀 Roam status node running (host=%s, master=%s)", n.cfg.Hostname, n.cfg.MasterURI)

	ticker := time.NewTicker(n.cfg.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Infof("💤 Roam status node loop exited")
			return nil
		case <-ticker.C:
			if err := n.heartbeat(); err != nil {
				n.logger.Warnf("Status heartbeat failed: %v", err)
			}
		}
	}
}

func (n *RoamStatusNode) markRunning(ctx context.Context) (bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if n.stopped || ctx.Err() != nil {
		n.logger.Infof("Roam status node stopped before it ran")
		return false, nil
	}

	n.mu.Lock()
	n.status = constants.NodeStatusRunning
	n.mu.Unlock()

	if err := n.setParam(constants.ParamMaster, n.cfg.MasterURI); err != nil {
		return false, err
	}
	if err := n.setParam(constants.ParamStatus, constants.NodeStatusRunning); err != nil {
		return false, err
	}
	if err := n.publishStatus(); err != nil {
		return false, err
	}
	return true, nil
}

func (n *RoamStatusNode) heartbeat() error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	if n.stopped {
		return nil
	}
	return n.publishStatus()
}

// SendCommand 명령 코드 발행
func (n *RoamStatusNode) SendCommand(code int) error {
	msg := commandMessage{
		HeaderID:  n.nextHeaderID(),
		Timestamp: now(),
		Hostname:  n.cfg.Hostname,
		Code:      code,
	}
	if err := n.publishJSON(constants.GetRoamCommandTopic(n.cfg.Hostname), 1, false, msg); err != nil {
		return err
	}
	if err := n.setParam(constants.ParamLastCode, strconv.Itoa(code)); err != nil {
		return err
	}

	n.mu.Lock()
	n.lastCode = &code
	n.mu.Unlock()

	n.logger.Infof("Sent roam command %d", code)
	return nil
}

// SetRole 역할 설정
func (n *RoamStatusNode) SetRole(role string) error {
	if !IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}
	if err := n.setParam(constants.ParamRole, role); err != nil {
		return err
	}

	msg := roleMessage{
		HeaderID:  n.nextHeaderID(),
		Timestamp: now(),
		Hostname:  n.cfg.Hostname,
		Role:      Role(role),
	}
	if err := n.publishJSON(constants.GetRoamRoleTopic(n.cfg.Hostname), 1, true, msg); err != nil {
		return err
	}

	n.mu.Lock()
	n.role = Role(role)
	n.mu.Unlock()

	n.logger.Infof("Role set to %q", role)
	return nil
}

// SetGround 지상 모드 설정
func (n *RoamStatusNode) SetGround() error {
	if err := n.setParam(constants.ParamGround, "true"); err != nil {
		return err
	}
	if err := n.publishJSON(constants.GetRoamGroundTopic(n.cfg.Hostname), 1, true, map[string]interface{}{
		"headerId":  n.nextHeaderID(),
		"timestamp": now(),
		"hostname":  n.cfg.Hostname,
		"ground":    true,
	}); err != nil {
		return err
	}

	n.mu.Lock()
	n.ground = true
	n.mu.Unlock()

	n.logger.Infof("Ground mode set")
	return nil
}

// SendStopped 정지 상태 발행
func (n *RoamStatusNode) SendStopped() error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	n.stopped = true
	n.mu.Lock()
	n.status = constants.NodeStatusStopped
	n.mu.Unlock()

	if err := n.setParam(constants.ParamStatus, constants.NodeStatusStopped); err != nil {
		return err
	}
	if err := n.publishStatus(); err != nil {
		return err
	}

	n.logger.Infof("🛑 Roam status node stopped")
	return nil
}

// Snapshot 현재 상태 반환
func (n *RoamStatusNode) Snapshot() State {
	n.mu.Lock()
	defer n.mu.Unlock()

	state := State{
		Hostname: n.cfg.Hostname,
		Status:   n.status,
		Role:     n.role,
		Ground:   n.ground,
	}
	if n.lastCode != nil {
		code := *n.lastCode
		state.LastCode = &code
	}
	return state
}

func (n *RoamStatusNode) publishStatus() error {
	n.mu.Lock()
	msg := statusMessage{
		HeaderID:  n.nextHeaderID(),
		Timestamp: now(),
		Hostname:  n.cfg.Hostname,
		MasterURI: n.cfg.MasterURI,
		Status:    n.status,
		Role:      n.role,
		Ground:    n.ground,
	}
	n.mu.Unlock()

	return n.publishJSON(constants.GetRoamStatusTopic(n.cfg.Hostname), 1, true, msg)
}

// publishJSON JSON 메시지 발행 (내부 헬퍼)
func (n *RoamStatusNode) publishJSON(topic string, qos byte, retained bool, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message for %s: %v", topic, err)
	}

	n.logger.Debugf("📤 SENDING %s: %s", topic, string(data))

	if err := n.publisher.Publish(topic, qos, retained, data); err != nil {
		return fmt.Errorf("publish to %s failed: %v", topic, err)
	}
	return nil
}

func (n *RoamStatusNode) setParam(key string, value interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
	defer cancel()

	if err := n.params.SetParam(ctx, key, value); err != nil {
		return fmt.Errorf("set param %s failed: %v", key, err)
	}
	return nil
}

func (n *RoamStatusNode) nextHeaderID() int64 {
	return atomic.AddInt64(&n.headerID, 1)
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
