// internal/command/dispatcher.go
package command

import (
	"errors"
	"fmt"
	"roam-bridge/internal/interfaces"
	"sort"
)

// Node 디스패처가 호출하는 노드 동작
type Node interface {
	SendCommand(code int) error
	SetRole(role string) error
	SetGround() error
}

// ErrNodeUnavailable 세션이 시작되지 않아 노드가 없음
var ErrNodeUnavailable = errors.New("roam node is not running")

type action func(Node) error

func sendCommand(code int) action {
	return func(n Node) error { return n.SendCommand(code) }
}

func setRole(role string) action {
	return func(n Node) error { return n.SetRole(role) }
}

func setGround(n Node) error {
	return n.SetGround()
}

// Command names accepted from the ground.
const (
	NameCommandMinus1     = "command-1"
	NameSetRoleChaser     = "command_set_role_chaser"
	NameSetRoleTarget     = "command_set_role_target"
	NameSetRoleHardware   = "command_set_role_hardware"
	NameSetGround         = "command_set_ground"
	unrecognizedFallback  = NameCommandMinus1
	numberedCommandPrefix = "command"
)

var commandTable = buildCommandTable()

func buildCommandTable() map[string]action {
	table := map[string]action{
		NameCommandMinus1:   sendCommand(-1),
		NameSetRoleChaser:   setRole("chaser"),
		NameSetRoleTarget:   setRole("target"),
		NameSetRoleHardware: setRole(""),
		NameSetGround:       setGround,
	}
	for code := 1; code <= 12; code++ {
		table[fmt.Sprintf("%s%d", numberedCommandPrefix, code)] = sendCommand(code)
	}
	return table
}

// Names 알려진 명령 이름 목록 (정렬됨)
func Names() []string {
	names := make([]string, 0, len(commandTable))
	for name := range commandTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsKnown 알려진 명령인지 확인
func IsKnown(name string) bool {
	_, ok := commandTable[name]
	return ok
}

// Dispatcher maps a command payload to exactly one node action. It holds no
// per-request state and can be shared.
type Dispatcher struct {
	unknownFallsThrough bool
	logger              interfaces.Logger
}

// Option 디스패처 옵션
type Option func(*Dispatcher)

// WithUnknownFallthrough controls whether an unrecognized name, after
// reporting the error summary, also runs the "command-1" action. Defaults to
// true.
func WithUnknownFallthrough(enabled bool) Option {
	return func(d *Dispatcher) { d.unknownFallsThrough = enabled }
}

// NewDispatcher 새 디스패처 생성
func NewDispatcher(logger interfaces.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		unknownFallsThrough: true,
		logger:              logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UnknownFallsThrough 폴스루 설정 반환
func (d *Dispatcher) UnknownFallsThrough() bool {
	return d.unknownFallsThrough
}

// Dispatch decodes payload, runs the mapped action on n and returns the
// result string for the host. It never fails: parse problems yield
// ResultParseError and every other failure yields ResultUnknownError.
func (d *Dispatcher) Dispatch(n Node, payload string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("❌ Command dispatch panicked: %v", r)
			out = ResultUnknownError
		}
	}()

	envelope, err := ParseEnvelope(payload)
	if err != nil {
		d.logger.Warnf("Failed to parse command %q: %v", payload, err)
		return ResultParseError
	}

	var result Result

	act, known := commandTable[envelope.Name]
	if !known {
		d.logger.Warnf("Unrecognized command: %s", envelope.Name)
		result.Summary = &Summary{
			Status:  SummaryStatusError,
			Message: SummaryMessageUnknownCmd,
		}
		if d.unknownFallsThrough {
			act = commandTable[unrecognizedFallback]
		}
	}

	if act != nil {
		err := ErrNodeUnavailable
		if n != nil {
			err = act(n)
		}
		if err != nil {
			d.logger.Errorf("❌ Command %s failed: %v", envelope.Name, err)
			return ResultUnknownError
		}
	}

	d.logger.Infof("✅ Command %s dispatched", envelope.Name)
	return result.String()
}
