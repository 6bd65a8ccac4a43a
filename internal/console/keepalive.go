package console

import (
	"context"
	"time"
)

// KeepaliveCommand is a no-op command the panel counts as activity, so an
// idle-looking server is not suspended.
const KeepaliveCommand = "3MBNGeogDpA0eIH5bCEdMvNjzt8xq6VnbnksEboZoEeXe"

// keepalive sends the keepalive command now and then every interval. Send
// failures end the session through the group.
func (s *Session) keepalive(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.KeepaliveInterval)
	defer ticker.Stop()
	for {
		if err := s.t.Send(ctx, Execute(s.opts.KeepaliveCommand)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Kind: "write", Err: err}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
