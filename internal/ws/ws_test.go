package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/ehrlich-b/csrv/internal/auth"
	"github.com/ehrlich-b/csrv/internal/console"
)

func newTestServer(t *testing.T, handler func(*http.Request, *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/websocket/server" {
			http.NotFound(w, r)
			return
		}
		if c, err := r.Cookie("session"); err != nil || c.Value != "abc" {
			http.Error(w, "no session", http.StatusForbidden)
			return
		}
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			t.Logf("accept error: %v", err)
			return
		}
		defer conn.CloseNow()
		handler(r, conn)
	}))
}

func testSession(t *testing.T, base string, withCookie bool) *auth.Session {
	t.Helper()
	jar, _ := cookiejar.New(nil)
	if withCookie {
		u, _ := url.Parse(base)
		jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc"}})
	}
	return &auth.Session{BaseURL: base, HTTP: &http.Client{Jar: jar}}
}

func TestConsoleURL(t *testing.T) {
	tests := []struct {
		base, id, want string
	}{
		{"https://craftserve.pl", "42", "wss://craftserve.pl/websocket/server?sid=42"},
		{"http://127.0.0.1:8080/", "7", "ws://127.0.0.1:8080/websocket/server?sid=7"},
		{"https://craftserve.pl", "a b", "wss://craftserve.pl/websocket/server?sid=a+b"},
	}
	for _, tt := range tests {
		if got := ConsoleURL(tt.base, tt.id); got != tt.want {
			t.Errorf("ConsoleURL(%q, %q) = %q, want %q", tt.base, tt.id, got, tt.want)
		}
	}
}

func TestDialSendReceive(t *testing.T) {
	gotSid := make(chan string, 1)
	gotReq := make(chan []byte, 1)
	srv := newTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		ctx := context.Background()
		gotSid <- r.URL.Query().Get("sid")
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Logf("server read: %v", err)
			return
		}
		gotReq <- data
		conn.Write(ctx, websocket.MessageText, []byte(`{"stream":["Hello"]}`))
		conn.Write(ctx, websocket.MessageBinary, []byte{0x01})
		conn.Close(websocket.StatusNormalClosure, "done")
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d := &Dialer{}
	tr, err := d.Dial(ctx, testSession(t, srv.URL, true), "42")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tr.Close()

	if err := tr.Send(ctx, console.Subscribe(false)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid := <-gotSid; sid != "42" {
		t.Errorf("sid = %q", sid)
	}
	var req map[string]any
	if err := json.Unmarshal(<-gotReq, &req); err != nil {
		t.Fatalf("server got invalid json: %v", err)
	}
	if req["scope"] != "console" || req["op"] != console.OpSubscribe {
		t.Errorf("request = %v", req)
	}

	f, err := tr.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if f.Type != console.FrameText || string(f.Data) != `{"stream":["Hello"]}` {
		t.Errorf("frame = %v %q", f.Type, f.Data)
	}

	f, err = tr.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive binary: %v", err)
	}
	if f.Type != console.FrameBinary {
		t.Errorf("type = %v, want binary", f.Type)
	}

	if _, err := tr.Receive(ctx); !errors.Is(err, console.ErrClosed) {
		t.Errorf("after close: err = %v, want ErrClosed", err)
	}
}

func TestDialRejectedWithoutCookie(t *testing.T) {
	srv := newTestServer(t, func(*http.Request, *websocket.Conn) {})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := (&Dialer{}).Dial(ctx, testSession(t, srv.URL, false), "42")
	if !errors.Is(err, ErrAuthRejected) {
		t.Fatalf("err = %v, want ErrAuthRejected", err)
	}
}

type stubAuth struct{ sess *auth.Session }

func (a stubAuth) Login(context.Context, string, string) (*auth.Session, error) {
	return a.sess, nil
}

type lines struct {
	mu  sync.Mutex
	out []string
}

func (l *lines) Print(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = append(l.out, s)
}

func (l *lines) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.out...)
}

type chanInput chan string

func (c chanInput) ReadLine() (string, error) {
	s, ok := <-c
	if !ok {
		return "", io.EOF
	}
	return s, nil
}

// The panel replays history on every subscribe; the second connection
// must only add what the first did not show.
func TestLoopOverWebsocket(t *testing.T) {
	var mu sync.Mutex
	var conns int
	commands := make(chan string, 4)
	srv := newTestServer(t, func(r *http.Request, conn *websocket.Conn) {
		mu.Lock()
		conns++
		n := conns
		mu.Unlock()

		ctx := context.Background()
		if _, _, err := conn.Read(ctx); err != nil { // subscribe
			return
		}
		if n == 1 {
			conn.Write(ctx, websocket.MessageText, []byte(`{"stream":["Hello","Hello","World"]}`))
			conn.Close(websocket.StatusGoingAway, "restart")
			return
		}
		conn.Write(ctx, websocket.MessageText, []byte(`{"stream":["Hello","World","Again"]}`))
		for {
			_, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			var req struct {
				Op   string `json:"op"`
				Args struct {
					Command string `json:"command"`
				} `json:"args"`
			}
			json.Unmarshal(data, &req)
			if req.Op == "execute" && !strings.HasPrefix(req.Args.Command, "3MBN") {
				commands <- req.Args.Command
			}
		}
	})
	defer srv.Close()

	out := &lines{}
	in := make(chanInput)
	opts := console.DefaultOptions()
	opts.ReconnectDelay = 10 * time.Millisecond
	opts.ReconnectMaxDelay = 10 * time.Millisecond
	l := &console.Loop{
		Auth:    stubAuth{testSession(t, srv.URL, true)},
		Dialer:  &Dialer{},
		Input:   in,
		Out:     out,
		Options: opts,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx, "e", "p", "42") }()

	for !containsLine(out.snapshot(), "Again") {
		select {
		case <-ctx.Done():
			t.Fatal("second connection never streamed")
		case <-time.After(5 * time.Millisecond):
		}
	}
	in <- "say hi"
	select {
	case c := <-commands:
		if c != "say hi" {
			t.Errorf("command = %q", c)
		}
	case <-ctx.Done():
		t.Fatal("command never reached the panel")
	}
	in <- ".quit"
	if err := <-done; err != nil {
		t.Fatalf("Run = %v", err)
	}

	want := []string{"Logged in", "Hello", "World", "Disconnected from console, reconnecting", "Again", "Bye."}
	got := out.snapshot()
	if len(got) != len(want) {
		t.Fatalf("output = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func containsLine(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
