// internal/gs/host.go
package gs

import "context"

// MessageType 호스트로 보내는 데이터 타입
type MessageType string

const (
	MessageTypeJSON   MessageType = "JSON"
	MessageTypeString MessageType = "STRING"
	MessageTypeBinary MessageType = "BINARY"
)

// Severity levels passed with lifecycle acknowledgements.
const (
	LevelInfo  = "info"
	LevelError = "error"
)

// Host is the outbound side of the guest science manager.
type Host interface {
	SendStarted(level string) error
	SendStopped(level string) error
	SendReceivedCustomCommand(level string) error
	SendData(msgType MessageType, key, payload string) error
	Terminate() error
}

// CommandReceiver is what the host drives: start, stop and custom commands.
type CommandReceiver interface {
	Start(ctx context.Context) error
	Stop() error
	HandleCommand(payload string) string
}
