package telnet

import (
	"bufio"
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Telnet command and option bytes (RFC 854, RFC 858).
const (
	IAC  byte = 255
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250
	GA   byte = 249
	NOP  byte = 241
	SE   byte = 240

	OptEcho            byte = 1
	OptSuppressGoAhead byte = 3
	OptLinemode        byte = 34
)

// MaxCommandLength bounds one line of player input.
const MaxCommandLength = 256

// ErrLineTooLong is returned by ReadLine when a player sends more than
// MaxCommandLength characters without a line break. The rest of the line is discarded.
var ErrLineTooLong = errors.New("command too long")

// Conn is one player's Telnet connection. Writes are serialised so pushed
// combat events never interleave with command output.
type Conn struct {
	id     string
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps raw. Zero timeouts disable the corresponding deadline.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		raw:          raw,
		reader:       bufio.NewReader(raw),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ID returns the connection's unique identifier, used as the game session id.
func (c *Conn) ID() string { return c.id }

// Negotiate offers to suppress go-ahead so prompts need no GA marker.
func (c *Conn) Negotiate() error {
	return c.send([]byte{IAC, WILL, OptSuppressGoAhead})
}

// ReadLine returns the next command line without its terminator. Telnet
// commands are dropped, backspace and delete erase the previous character,
// and other control characters except tab are ignored.
//
// Postcondition: len(line) <= MaxCommandLength, or ErrLineTooLong.
func (c *Conn) ReadLine() (string, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}
	line := make([]byte, 0, 64)
	overflow := false
	for {
		b, err := c.reader.ReadByte()
		if err != nil {
			return string(line), err
		}
		switch {
		case b == IAC:
			if err := c.skipCommand(); err != nil {
				return string(line), err
			}
		case b == '\n':
			return c.finish(line, overflow)
		case b == '\r':
			if next, err := c.reader.Peek(1); err == nil && (next[0] == '\n' || next[0] == 0) {
				_, _ = c.reader.ReadByte()
			}
			return c.finish(line, overflow)
		case b == '\b' || b == 0x7f:
			if len(line) > 0 {
				line = line[:len(line)-1]
			}
		case b < 32 && b != '\t':
		case len(line) >= MaxCommandLength:
			overflow = true
		default:
			line = append(line, b)
		}
	}
}

func (c *Conn) finish(line []byte, overflow bool) (string, error) {
	if overflow {
		return "", ErrLineTooLong
	}
	return string(line), nil
}

// skipCommand consumes the rest of a command whose IAC byte was just read.
func (c *Conn) skipCommand() error {
	cmd, err := c.reader.ReadByte()
	if err != nil {
		return err
	}
	switch cmd {
	case WILL, WONT, DO, DONT:
		_, err = c.reader.ReadByte()
		return err
	case SB:
		for prev := byte(0); ; {
			b, err := c.reader.ReadByte()
			if err != nil {
				return err
			}
			if prev == IAC && b == SE {
				return nil
			}
			prev = b
		}
	}
	return nil
}

func (c *Conn) send(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(p)
	return err
}

// WriteLine sends text followed by CRLF.
func (c *Conn) WriteLine(text string) error {
	return c.send([]byte(text + "\r\n"))
}

// WriteLines sends the lines as one block, each followed by CRLF.
func (c *Conn) WriteLines(lines []string) error {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\r\n")
	}
	return c.send([]byte(b.String()))
}

// WriteText sends already formatted text unchanged.
func (c *Conn) WriteText(text string) error {
	return c.send([]byte(text))
}

// WritePrompt sends the input prompt without a line break.
func (c *Conn) WritePrompt(prompt string) error {
	return c.send([]byte(prompt))
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the player's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// FilterIAC strips Telnet commands from captured output, keeping a single
// 0xFF for each escaped IAC IAC pair. A trailing lone IAC is kept.
func FilterIAC(input []byte) []byte {
	out := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		if input[i] != IAC || i+1 == len(input) {
			out = append(out, input[i])
			continue
		}
		switch input[i+1] {
		case IAC:
			out = append(out, IAC)
			i++
		case WILL, WONT, DO, DONT:
			i += 2
		case SB:
			i += 2
			for i < len(input) && !(input[i-1] == IAC && input[i] == SE) {
				i++
			}
		default:
			i++
		}
	}
	return out
}
