package console

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Request envelope fields for the panel's websocket protocol.
const (
	ScopeConsole = "console"

	OpExecute   = "execute"           // run a console command
	OpSubscribe = "subscribe_console" // start streaming output, sent once per connection
)

// Request is every message this client sends.
type Request struct {
	Scope string `json:"scope"`
	Op    string `json:"op"`
	Args  any    `json:"args"`
}

type ExecuteArgs struct {
	Command string `json:"command"`
}

type SubscribeArgs struct {
	Debug bool `json:"debug"`
}

func Execute(command string) Request {
	return Request{Scope: ScopeConsole, Op: OpExecute, Args: ExecuteArgs{Command: command}}
}

func Subscribe(debug bool) Request {
	return Request{Scope: ScopeConsole, Op: OpSubscribe, Args: SubscribeArgs{Debug: debug}}
}

type Kind int

const (
	KindError Kind = iota
	KindStream
)

// Inbound is a decoded server message: either an error notice or a chunk of console lines.
type Inbound struct {
	Kind  Kind
	Error string
	Lines []string
}

var (
	errUnknownShape = errors.New("neither error nor stream present")
	errNull         = errors.New("null value")
)

// Decode parses {"error": string} or {"stream": [string, ...]}. Anything
// else is a *ProtocolError. If both keys are present the error wins.
func Decode(data []byte) (*Inbound, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ProtocolError{Payload: data, Err: err}
	}
	if fields == nil {
		return nil, &ProtocolError{Payload: data, Err: errNull}
	}

	if raw, ok := fields["error"]; ok {
		var text string
		if err := decodeField(raw, &text); err != nil {
			return nil, &ProtocolError{Payload: data, Err: err}
		}
		return &Inbound{Kind: KindError, Error: text}, nil
	}
	if raw, ok := fields["stream"]; ok {
		var lines []string
		if err := decodeField(raw, &lines); err != nil {
			return nil, &ProtocolError{Payload: data, Err: err}
		}
		return &Inbound{Kind: KindStream, Lines: lines}, nil
	}
	return nil, &ProtocolError{Payload: data, Err: errUnknownShape}
}

// decodeField rejects JSON null, which json.Unmarshal would silently accept.
func decodeField(raw json.RawMessage, v any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errNull
	}
	return json.Unmarshal(raw, v)
}
