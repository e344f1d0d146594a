package telnet

import (
	"io"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func pipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return NewConn(server, 0, 0), client
}

func TestConn_WriteLinesAndReadLine(t *testing.T) {
	c, client := pipe(t)
	assert.NotEmpty(t, c.ID())

	go func() { _ = c.WriteLines([]string{"one", "two"}) }()
	buf := make([]byte, 64)
	n, err := io.ReadAtLeast(client, buf, len("one\r\ntwo\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "one\r\ntwo\r\n", string(buf[:n]))

	go func() {
		_, _ = client.Write([]byte{'u', 's', IAC, WILL, OptEcho, 'e', ' ', '1', '\r', '\n'})
	}()
	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "use 1", line)
}

func TestConn_ReadLineEditsAndTerminators(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte("chooze\b\bse 2\r\x00"))
		_, _ = client.Write([]byte("fi\x7fight\n"))
		_, _ = client.Write([]byte{IAC, SB, 24, 0, 'x', IAC, SE, 'q', 'u', 'i', 't', '\r', '\n'})
	}()

	for _, want := range []string{"choose 2", "fight", "quit"} {
		line, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
}

func TestConn_ReadLineRejectsOverlongCommand(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte(strings.Repeat("a", MaxCommandLength+10) + "\r\n"))
		_, _ = client.Write([]byte("status\r\n"))
	}()

	_, err := c.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "status", line)
}

func TestConn_ReadLineEOF(t *testing.T) {
	c, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte("par"))
		_ = client.Close()
	}()
	line, err := c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "par", line)
}

func TestFilterIAC(t *testing.T) {
	cases := map[string]struct {
		in   []byte
		want []byte
	}{
		"plain":           {[]byte("hello"), []byte("hello")},
		"will":            {[]byte{IAC, WILL, OptEcho, 'h', 'i'}, []byte("hi")},
		"do mid text":     {[]byte{'a', IAC, DO, OptLinemode, 'b'}, []byte("ab")},
		"dont only":       {[]byte{IAC, DONT, OptEcho}, []byte{}},
		"subnegotiation":  {[]byte{IAC, SB, 24, 0, 'x', 't', 'e', 'r', 'm', IAC, SE, 'z'}, []byte("z")},
		"escaped IAC":     {[]byte{'a', IAC, IAC, 'b'}, []byte{'a', IAC, 'b'}},
		"nop":             {[]byte{'x', IAC, NOP, 'y'}, []byte("xy")},
		"negotiation run": {[]byte{IAC, WILL, OptSuppressGoAhead, IAC, WONT, OptEcho, 'o', 'k'}, []byte("ok")},
		"trailing IAC":    {[]byte{'k', IAC}, []byte{'k', IAC}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, FilterIAC(tc.in))
		})
	}
}

// Property: text interleaved with well-formed commands filters back to the text.
func TestPropertyFilterIAC_RecoversText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chunks := rapid.SliceOfN(rapid.SliceOfN(rapid.ByteRange(0, 254), 0, 20), 1, 10).Draw(t, "chunks")
		var in []byte
		want := []byte{}
		for i, chunk := range chunks {
			want = append(want, chunk...)
			in = append(in, chunk...)
			switch rapid.IntRange(0, 3).Draw(t, "command") {
			case 0:
				verb := rapid.SampledFrom([]byte{WILL, WONT, DO, DONT}).Draw(t, "verb")
				in = append(in, IAC, verb, rapid.Byte().Draw(t, "option"))
			case 1:
				in = append(in, IAC, SB, OptLinemode, byte(i), IAC, SE)
			case 2:
				in = append(in, IAC, IAC)
				want = append(want, IAC)
			}
		}
		assert.Equal(t, want, FilterIAC(in))
	})
}

// Property: FilterIAC output length is always <= input length.
func TestPropertyFilterIAC_OutputNeverLongerThanInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		input := rapid.SliceOfN(rapid.Byte(), 0, 200).Draw(t, "input")
		assert.LessOrEqual(t, len(FilterIAC(input)), len(input))
	})
}
