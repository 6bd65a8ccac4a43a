package console

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/ehrlich-b/csrv/internal/auth"
	"github.com/ehrlich-b/csrv/internal/logger"
)

const (
	msgLoggedIn     = "Logged in"
	msgReconnecting = "Disconnected from console, reconnecting"
)

// Options are the timings and limits of a run.
type Options struct {
	KeepaliveInterval time.Duration
	KeepaliveCommand  string
	ReceiveTimeout    time.Duration
	ReconnectDelay    time.Duration
	ReconnectMaxDelay time.Duration
	MaxErrors         int
	CommandRate       float64 // commands per second forwarded to the server
	CommandBurst      int
	Debug             bool // print every raw frame
}

func DefaultOptions() Options {
	return Options{
		KeepaliveInterval: 2 * time.Second,
		KeepaliveCommand:  KeepaliveCommand,
		ReceiveTimeout:    10 * time.Second,
		ReconnectDelay:    2 * time.Second,
		ReconnectMaxDelay: 2 * time.Second,
		MaxErrors:         3,
		CommandRate:       5,
		CommandBurst:      10,
	}
}

// Loop logs in once and keeps a console session open until the operator
// quits, the error counter passes MaxErrors, or ctx is cancelled.
type Loop struct {
	Auth    Authenticator
	Dialer  Dialer
	Input   InputSource // nil means output only
	Out     Presenter
	Options Options
}

// Run returns nil when the operator quits. Login failures come back as
// *auth.LoginError before anything is dialed.
func (l *Loop) Run(ctx context.Context, email, password, serverID string) error {
	sess, err := l.Auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	l.Out.Print(msgLoggedIn)

	st := NewState(l.Options.MaxErrors)
	var lines <-chan inputLine
	if l.Input != nil {
		p := startPump(l.Input)
		defer p.stop()
		lines = p.lines
	}
	limiter := rate.NewLimiter(rate.Limit(l.Options.CommandRate), max(l.Options.CommandBurst, 1))
	backoff := NewBackoff(l.Options.ReconnectDelay, l.Options.ReconnectMaxDelay)

	for {
		outcome, err := l.connect(ctx, sess, serverID, st, lines, limiter, backoff)
		switch outcome {
		case OutcomeAbort:
			return err
		case OutcomeQuit:
			return nil
		}

		if !st.ServerOff {
			l.Out.Print(msgReconnecting)
		}
		delay := backoff.Next()
		logger.Info("reconnecting", "server", serverID, "delay", delay, "errors", st.Errors)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (l *Loop) connect(ctx context.Context, sess *auth.Session, serverID string, st *State, lines <-chan inputLine, limiter *rate.Limiter, backoff *Backoff) (Outcome, error) {
	t, err := l.Dialer.Dial(ctx, sess, serverID)
	if err != nil {
		if ctx.Err() != nil {
			return OutcomeAbort, ctx.Err()
		}
		if v := st.ClassifyFault(&TransportError{Kind: "dial", Err: err}, l.Out); v.Class == Fatal {
			return OutcomeAbort, v.Err
		}
		return OutcomeReconnect, nil
	}

	s := NewSession(t, st, l.Out, l.Options)
	s.input = lines
	s.limiter = limiter
	logger.Info("console connected", "server", serverID, "conn_id", s.ID)

	outcome, err := s.Run(ctx)
	if s.streamed {
		backoff.Reset()
	}
	return outcome, err
}
