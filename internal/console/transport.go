package console

import (
	"context"
	"errors"

	"github.com/ehrlich-b/csrv/internal/auth"
)

// ErrClosed is returned by Transport.Receive when the peer closed the connection.
var ErrClosed = errors.New("connection closed by peer")

type FrameType int

const (
	FrameText FrameType = iota
	FrameBinary
)

func (t FrameType) String() string {
	if t == FrameText {
		return "text"
	}
	return "binary"
}

// Frame is one websocket message as received.
type Frame struct {
	Type FrameType
	Data []byte
}

// Transport is one live console connection. Send may be called from several
// goroutines at once. Receive and Send must return promptly once ctx is done.
type Transport interface {
	Send(ctx context.Context, v any) error
	Receive(ctx context.Context) (Frame, error)
	Close() error
}

// Dialer opens a console connection for a server using a logged-in session.
type Dialer interface {
	Dial(ctx context.Context, sess *auth.Session, serverID string) (Transport, error)
}

// Authenticator exchanges account credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

// InputSource yields operator lines. ReadLine blocks; io.EOF ends input.
type InputSource interface {
	ReadLine() (string, error)
}

// Presenter shows lines to the operator. It must be safe for concurrent use.
type Presenter interface {
	Print(line string)
}
