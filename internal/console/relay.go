package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DirectivePrefix marks a line as meant for csrv itself, not the server.
const DirectivePrefix = "."

const msgBye = "Bye."

type InputKind int

const (
	InputCommand InputKind = iota
	InputQuit
	InputUnknown
	InputEmpty
)

type Input struct {
	Kind    InputKind
	Command string // verbatim line for InputCommand
}

func ParseInput(line string) Input {
	switch {
	case line == "":
		return Input{Kind: InputEmpty}
	case !strings.HasPrefix(line, DirectivePrefix):
		return Input{Kind: InputCommand, Command: line}
	case line == ".q" || line == ".quit":
		return Input{Kind: InputQuit}
	default:
		return Input{Kind: InputUnknown, Command: line}
	}
}

type inputLine struct {
	text string
	err  error
}

// pump owns the InputSource for the whole run. ReadLine cannot be
// interrupted, so relays wait on the channel instead and a line typed while
// reconnecting goes to the next connection.
type pump struct {
	lines chan inputLine
	done  chan struct{}
}

func startPump(src InputSource) *pump {
	p := &pump{lines: make(chan inputLine), done: make(chan struct{})}
	go func() {
		for {
			text, err := src.ReadLine()
			select {
			case p.lines <- inputLine{text: text, err: err}:
			case <-p.done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return p
}

func (p *pump) stop() { close(p.done) }

func (s *Session) relay(ctx context.Context) error {
	for {
		var in inputLine
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in = <-s.input:
		}

		if in.err != nil {
			if errors.Is(in.err, io.EOF) {
				s.out.Print(msgBye)
				return ErrQuit
			}
			return fmt.Errorf("read input: %w", in.err)
		}

		d := ParseInput(in.text)
		switch d.Kind {
		case InputEmpty:
		case InputQuit:
			s.out.Print(msgBye)
			return ErrQuit
		case InputUnknown:
			s.out.Print("Unknown csrv command: " + d.Command)
		case InputCommand:
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return err
				}
			}
			if err := s.t.Send(ctx, Execute(d.Command)); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &TransportError{Kind: "write", Err: err}
			}
			s.log.Debug("command sent", "len", len(d.Command))
		}
	}
}
