package console

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type recv struct {
	frame Frame
	err   error
}

// fakeTransport replays scripted frames; once the script is exhausted it
// reports ErrClosed unless hold is set, in which case it waits for ctx.
type fakeTransport struct {
	mu      sync.Mutex
	script  []recv
	hold    bool
	sent    []Request
	closes  int
	sendErr error // returned by Send after the first (subscribe) call
	block   bool  // Send after the first call waits for ctx instead
	more    chan recv
	closed  chan struct{}
	sentSig chan struct{}
}

func newFake(frames ...string) *fakeTransport {
	f := &fakeTransport{
		more:    make(chan recv, 16),
		closed:  make(chan struct{}),
		sentSig: make(chan struct{}, 1024),
	}
	for _, fr := range frames {
		f.script = append(f.script, recv{frame: Frame{Type: FrameText, Data: []byte(fr)}})
	}
	return f
}

func (f *fakeTransport) Send(ctx context.Context, v any) error {
	f.mu.Lock()
	first := len(f.sent) == 0
	block, sendErr := f.block, f.sendErr
	f.mu.Unlock()

	if !first && block {
		<-ctx.Done()
		return ctx.Err()
	}
	if !first && sendErr != nil {
		return sendErr
	}

	req, ok := v.(Request)
	if !ok {
		return errors.New("unexpected payload type")
	}
	f.mu.Lock()
	f.sent = append(f.sent, req)
	f.mu.Unlock()
	f.sentSig <- struct{}{}
	return nil
}

func (f *fakeTransport) Receive(ctx context.Context) (Frame, error) {
	f.mu.Lock()
	if len(f.script) > 0 {
		r := f.script[0]
		f.script = f.script[1:]
		f.mu.Unlock()
		return r.frame, r.err
	}
	hold := f.hold
	f.mu.Unlock()

	if !hold {
		return Frame{}, ErrClosed
	}
	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-f.closed:
		return Frame{}, ErrClosed
	case r := <-f.more:
		return r.frame, r.err
	}
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closes == 0 {
		close(f.closed)
	}
	f.closes++
	return nil
}

func (f *fakeTransport) push(frame string) {
	f.more <- recv{frame: Frame{Type: FrameText, Data: []byte(frame)}}
}

func (f *fakeTransport) sentRequests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.sent...)
}

func (f *fakeTransport) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeTransport) commands() []string {
	var out []string
	for _, r := range f.sentRequests() {
		if args, ok := r.Args.(ExecuteArgs); ok && r.Op == OpExecute {
			out = append(out, args.Command)
		}
	}
	return out
}

// recorder is a Presenter that keeps every printed line.
type recorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *recorder) Print(line string) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) count(line string) int {
	n := 0
	for _, l := range r.Lines() {
		if l == line {
			n++
		}
	}
	return n
}

// chanInput is an InputSource fed by the test. Closing lines yields io.EOF.
type chanInput struct {
	lines chan string
}

func newChanInput() *chanInput { return &chanInput{lines: make(chan string)} }

func (c *chanInput) ReadLine() (string, error) {
	l, ok := <-c.lines
	if !ok {
		return "", io.EOF
	}
	return l, nil
}

func testOptions() Options {
	o := DefaultOptions()
	o.KeepaliveInterval = time.Hour
	o.ReceiveTimeout = 5 * time.Second
	o.ReconnectDelay = time.Millisecond
	o.ReconnectMaxDelay = time.Millisecond
	o.CommandRate = 1000
	return o
}

func stream(lines ...string) string {
	data, _ := json.Marshal(map[string][]string{"stream": lines})
	return string(data)
}

func notice(text string) string {
	data, _ := json.Marshal(map[string]string{"error": text})
	return string(data)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
