package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/ehrlich-b/csrv/internal/logger"
)

// LoginError is returned when the panel rejects the credentials. Reason is
// whatever the login page displayed, empty if nothing could be found.
type LoginError struct {
	Reason string
}

func (e *LoginError) Error() string {
	if e.Reason == "" {
		return "login failed"
	}
	return "login failed: " + e.Reason
}

// Session is the credential produced by a successful login. HTTP carries the
// panel's session cookies and is reused to open the console websocket.
type Session struct {
	BaseURL string
	HTTP    *http.Client
}

// Client logs into the hosting panel.
type Client struct {
	BaseURL string // e.g. "https://craftserve.pl"
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Login posts the login form. The panel answers 303 -> /account on success
// and re-renders the form (200) with an alert on failure.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	hc := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	form := url.Values{"email": {email}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil, &LoginError{Reason: scrapeReason(resp.Body)}
	case http.StatusSeeOther:
		loc, err := resp.Location()
		if err != nil {
			return nil, fmt.Errorf("login redirect: %w", err)
		}
		if want := c.BaseURL + "/account"; loc.String() != want {
			return nil, fmt.Errorf("login redirected to %s, want %s", loc, want)
		}
	default:
		return nil, fmt.Errorf("unexpected login response: %s", resp.Status)
	}

	logger.Info("logged in", "email", email)
	return &Session{BaseURL: c.BaseURL, HTTP: hc}, nil
}
