package console

import "errors"

// ServerOffMessage is the notice the panel sends while the server is powered off.
const ServerOffMessage = "The server is off!"

const msgServerEnabled = "Server enabled!"

type Class int

const (
	Benign Class = iota
	Transient
	Fatal
)

func (c Class) String() string {
	switch c {
	case Benign:
		return "benign"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Verdict is a classification. Err is the cause for Transient and the
// *TooManyErrorsError for Fatal.
type Verdict struct {
	Class Class
	Err   error
}

// State survives reconnects for the whole run. Only the goroutine consuming
// the stream touches it while a session is live.
type State struct {
	Window    *Window
	Errors    int
	MaxErrors int
	ServerOff bool
}

func NewState(maxErrors int) *State {
	return &State{Window: NewWindow(WindowSize), MaxErrors: maxErrors}
}

// ClassifyNotice handles an {"error": ...} message.
func (s *State) ClassifyNotice(text string, out Presenter) Verdict {
	if text == ServerOffMessage {
		if !s.ServerOff {
			out.Print(ServerOffMessage)
		}
		s.ServerOff = true
		return Verdict{Class: Benign}
	}
	out.Print("Error: " + text)
	return s.count(&RemoteError{Text: text})
}

// ClassifyFault handles a failure of the connection itself.
func (s *State) ClassifyFault(err error, out Presenter) Verdict {
	var te *TransportError
	if !errors.As(err, &te) {
		te = &TransportError{Kind: "transport", Err: err}
	}
	out.Print("Error: " + te.Error())
	return s.count(te)
}

func (s *State) count(cause error) Verdict {
	s.Errors++
	if s.Errors > s.MaxErrors {
		return Verdict{Class: Fatal, Err: &TooManyErrorsError{Count: s.Errors, Cause: cause}}
	}
	return Verdict{Class: Transient, Err: cause}
}

// Stream handles a {"stream": [...]} message: leaves the off state, clears
// the error counter and prints lines not shown before, in order.
func (s *State) Stream(lines []string, out Presenter) {
	if s.ServerOff {
		s.ServerOff = false
		out.Print(msgServerEnabled)
	}
	s.Errors = 0
	for _, line := range lines {
		if s.Window.Seen(line) {
			continue
		}
		out.Print(line)
		s.Window.Record(line)
	}
}
