package testutil

import (
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/cory-johannsen/makavia/internal/frontend/telnet"
)

// GameClient plays the game over a real Telnet connection in tests. Output is
// read as plain text with Telnet negotiation and ANSI colour removed.
type GameClient struct {
	t       *testing.T
	conn    net.Conn
	raw     []byte
	pending string
}

// NewGameClient dials addr.
//
// Precondition: a game server is listening on addr.
// Postcondition: the connection is closed when the test ends.
func NewGameClient(t *testing.T, addr string) *GameClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &GameClient{t: t, conn: conn}
}

// Expect reads until the plain text output contains want and returns the
// text up to and including it. Output after want is kept for the next call.
//
// Precondition: want is non-empty.
func (c *GameClient) Expect(want string, timeout time.Duration) string {
	c.t.Helper()
	if out, ok := c.take(want); ok {
		return out
	}
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	tmp := make([]byte, 1024)
	for {
		n, err := c.conn.Read(tmp)
		if n > 0 {
			c.raw = append(c.raw, tmp[:n]...)
			if out, ok := c.take(want); ok {
				return out
			}
		}
		if err != nil {
			c.t.Fatalf("waiting for %q: got %q, error: %v", want, c.plain(), err)
		}
	}
}

func (c *GameClient) plain() string {
	return c.pending + telnet.StripANSI(string(telnet.FilterIAC(c.raw)))
}

func (c *GameClient) take(want string) (string, bool) {
	text := c.plain()
	i := strings.Index(text, want)
	if i < 0 {
		return "", false
	}
	end := i + len(want)
	c.pending = text[end:]
	c.raw = c.raw[:0]
	return text[:end], true
}

// Send writes one command line.
func (c *GameClient) Send(line string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		c.t.Fatalf("sending %q: %v", line, err)
	}
}

// Do sends a command and waits for want.
func (c *GameClient) Do(line, want string, timeout time.Duration) string {
	c.t.Helper()
	c.Send(line)
	return c.Expect(want, timeout)
}

// Close hangs up.
func (c *GameClient) Close() {
	_ = c.conn.Close()
}
