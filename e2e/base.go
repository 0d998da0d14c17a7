//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"dm-chat/infrastructure/gateway"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

// Client is one browser-like user: its own cookie jar, so the session cookie follows every call.
type Client struct {
	s    *BaseSuite
	http *http.Client
	base *url.URL
}

func (s *BaseSuite) NewClient() *Client {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	base, err := url.Parse(s.Config.ServerURL)
	s.Require().NoError(err)
	return &Client{
		s:    s,
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		base: base,
	}
}

// Step prints a colorized header for a scenario step in logs
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Call sends a JSON request and decodes the JSON answer into out when not nil.
func (c *Client) Call(method, path string, body, out any) int {
	var reader io.Reader
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		c.s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.base.JoinPath(path).String(), reader)
	c.s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	c.s.Require().NoError(err, "Failed to reach server at "+c.base.String())
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	c.s.Require().NoError(err)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	// Log full bodies if E2E_DEBUG_JSON is enabled
	if c.s.Config.DebugJSON {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, string(raw))
		fmt.Fprintln(&logBuilder, "RESPONSE:")
		fmt.Fprintln(&logBuilder, string(payload))
	}
	c.s.T().Log(logBuilder.String())

	if out != nil && len(payload) > 0 {
		c.s.Require().NoError(json.Unmarshal(payload, out))
	}
	return resp.StatusCode
}

// Dial opens the realtime connection with the cookies of the client.
func (c *Client) Dial(ctx context.Context) *websocket.Conn {
	wsURL := *c.base
	wsURL.Scheme = strings.Replace(wsURL.Scheme, "http", "ws", 1)
	wsURL.Path = "/ws"

	header := http.Header{}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		header.Add("Cookie", cookie.String())
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	c.s.Require().NoError(err, "Failed to open realtime connection")
	c.s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// Expect reads the next frame of the connection within the timeout.
func (s *BaseSuite) Expect(conn *websocket.Conn, timeout time.Duration) gateway.Envelope {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	var env gateway.Envelope
	s.Require().NoError(conn.ReadJSON(&env))
	return env
}
