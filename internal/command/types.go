// internal/command/types.go
package command

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Fixed result strings reported back to the host.
const (
	ResultParseError   = "ERROR parsing JSON"
	ResultUnknownError = "Unrecognized ERROR"
)

// Summary status values.
const (
	SummaryStatusError       = "ERROR"
	SummaryMessageUnknownCmd = "Unrecognized command"
)

// ErrParse 명령 페이로드 파싱 실패
var ErrParse = errors.New("command payload is not a JSON object with a name")

// Envelope 수신 명령 봉투
type Envelope struct {
	Name string `json:"name"`
}

// Summary 결과 요약
type Summary struct {
	Status  string `json:"Status"`
	Message string `json:"Message"`
}

// Result 호스트로 보내는 결과 봉투
type Result struct {
	Summary *Summary `json:"Summary,omitempty"`
}

// String renders the result as sent to the host; an empty result is "{}".
func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ResultUnknownError
	}
	return string(data)
}

// ParseEnvelope decodes payload into an Envelope. The top level must be an
// object with a "name" key; other keys are ignored. A non-string name is
// coerced to its JSON text (null becomes "null"), so it never matches a
// known command.
func ParseEnvelope(payload string) (*Envelope, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil || fields == nil {
		return nil, ErrParse
	}

	raw, ok := fields["name"]
	if !ok {
		return nil, ErrParse
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil && len(raw) > 0 && raw[0] == '"' {
		return &Envelope{Name: name}, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, ErrParse
	}
	return &Envelope{Name: compact.String()}, nil
}
