package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ehrlich-b/csrv/internal/logger"
)

type Outcome int

const (
	OutcomeReconnect Outcome = iota
	OutcomeAbort
	OutcomeQuit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReconnect:
		return "reconnect"
	case OutcomeAbort:
		return "abort"
	case OutcomeQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Session drives one console connection: subscribe, then stream reader,
// keepalive and command relay run together until one of them ends it.
type Session struct {
	ID string

	t    Transport
	st   *State
	out  Presenter
	opts Options
	log  *slog.Logger

	input   <-chan inputLine // nil disables the relay
	limiter *rate.Limiter

	streamed bool // at least one stream chunk arrived
}

func NewSession(t Transport, st *State, out Presenter, opts Options) *Session {
	id := uuid.NewString()
	return &Session{
		ID:   id,
		t:    t,
		st:   st,
		out:  out,
		opts: opts,
		log:  logger.Log.With("conn_id", id),
	}
}

// Run blocks until the connection ends. The transport is closed on every
// path, after all three activities have returned.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	defer s.t.Close()

	if err := s.t.Send(ctx, Subscribe(false)); err != nil {
		if ctx.Err() != nil {
			return OutcomeAbort, ctx.Err()
		}
		return s.afterFault(&TransportError{Kind: "write", Err: err})
	}
	s.log.Debug("subscribed")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.consume(gctx) })
	g.Go(func() error { return s.keepalive(gctx) })
	g.Go(func() error { return s.relay(gctx) })
	err := g.Wait()

	s.log.Debug("session ended", "reason", err)
	switch {
	case errors.Is(err, errReconnect):
		return OutcomeReconnect, nil
	case errors.Is(err, ErrQuit):
		return OutcomeQuit, nil
	case ctx.Err() != nil:
		return OutcomeAbort, ctx.Err()
	}
	// consume has already counted and printed a fault that went fatal
	var tooMany *TooManyErrorsError
	if errors.As(err, &tooMany) {
		return OutcomeAbort, err
	}
	var te *TransportError
	if errors.As(err, &te) {
		// keepalive or relay failed to send
		return s.afterFault(te)
	}
	return OutcomeAbort, err
}

func (s *Session) afterFault(err error) (Outcome, error) {
	if v := s.st.ClassifyFault(err, s.out); v.Class == Fatal {
		return OutcomeAbort, v.Err
	}
	return OutcomeReconnect, nil
}

// consume is the only writer of s.st while the session is live. It always
// returns a non-nil error so the group cancels the other two.
func (s *Session) consume(ctx context.Context) error {
	for {
		rctx, cancel := context.WithTimeout(ctx, s.opts.ReceiveTimeout)
		f, err := s.t.Receive(rctx)
		timedOut := errors.Is(rctx.Err(), context.DeadlineExceeded)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, ErrClosed) {
				s.log.Info("console closed by peer")
				return errReconnect
			}
			fault := &TransportError{Kind: "read", Err: err}
			if timedOut {
				fault = &TransportError{Kind: "timeout", Err: fmt.Errorf("no console traffic for %s", s.opts.ReceiveTimeout)}
			}
			return s.settle(s.st.ClassifyFault(fault, s.out))
		}

		if s.opts.Debug {
			s.out.Print(fmt.Sprintf("[%s] %s", f.Type, f.Data))
		}
		if f.Type != FrameText {
			s.log.Warn("unexpected frame", "type", f.Type.String(), "bytes", len(f.Data))
			return errReconnect
		}

		msg, err := Decode(f.Data)
		if err != nil {
			return err
		}
		switch msg.Kind {
		case KindError:
			if err := s.settle(s.st.ClassifyNotice(msg.Error, s.out)); err != nil {
				return err
			}
		case KindStream:
			s.streamed = true
			s.st.Stream(msg.Lines, s.out)
		}
	}
}

// settle turns a verdict into the consumer's return value; nil keeps reading.
func (s *Session) settle(v Verdict) error {
	switch v.Class {
	case Benign:
		return nil
	case Transient:
		s.log.Info("transient console error", "error", v.Err, "errors", s.st.Errors)
		return errReconnect
	default:
		return v.Err
	}
}
