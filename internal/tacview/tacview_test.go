package tacview

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts one client, records its handshake and answers with
// header followed by body.
func fakeServer(t *testing.T, header, body string) (Options, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	hello := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		msg, err := bufio.NewReader(conn).ReadString(0)
		if err != nil {
			return
		}
		hello <- msg
		if header == "" {
			// stay silent until the client gives up
			io.Copy(io.Discard, conn)
			return
		}
		io.WriteString(conn, header+"\x00"+body)
		io.Copy(io.Discard, conn)
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return Options{Host: host, Port: port, Password: "secret", DialTimeout: 2 * time.Second}, hello
}

func TestDial_HandshakeAndLines(t *testing.T) {
	opts, hello := fakeServer(t,
		"XtraLib.Stream.0\nTacview.RealTimeTelemetry.0\nHost DCS\n",
		"FileType=text/acmi/tacview\r\n#0.5\na1,T=1|2|3\n")

	c, err := Dial(context.Background(), opts)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "XtraLib.Stream.0\nTacview.RealTimeTelemetry.0\nClient OpenRadar\nsecret\x00", <-hello)
	assert.Contains(t, c.Header(), "Host DCS")

	for _, want := range []string{"FileType=text/acmi/tacview", "#0.5", "a1,T=1|2|3"} {
		line, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}
}

func TestDial_CustomClientName(t *testing.T) {
	opts, hello := fakeServer(t, "XtraLib.Stream.0\nTacview.RealTimeTelemetry.0\n", "")
	opts.ClientName = "Magic"

	c, err := Dial(context.Background(), opts)
	require.NoError(t, err)
	defer c.Close()
	assert.Contains(t, <-hello, "Client Magic\n")
}

func TestDial_BadHeader(t *testing.T) {
	opts, _ := fakeServer(t, "HTTP/1.1 400 Bad Request\r\n", "")

	_, err := Dial(context.Background(), opts)
	assert.ErrorIs(t, err, ErrHandshake)
}

func TestDial_SilentServerTimesOut(t *testing.T) {
	opts, _ := fakeServer(t, "", "")
	opts.DialTimeout = 100 * time.Millisecond

	start := time.Now()
	_, err := Dial(context.Background(), opts)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDial_ContextCancelStopsHandshake(t *testing.T) {
	opts, _ := fakeServer(t, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, opts)
	assert.Error(t, err)
}

func TestDial_Refused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	_, err = Dial(context.Background(), Options{Host: "127.0.0.1", Port: addr.Port, DialTimeout: time.Second})
	assert.Error(t, err)
}

func TestConn_CloseUnblocksRead(t *testing.T) {
	opts, _ := fakeServer(t, "XtraLib.Stream.0\nTacview.RealTimeTelemetry.0\n", "")
	c, err := Dial(context.Background(), opts)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.ReadLine()
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, net.ErrClosed), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not return after Close")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.acmi")
	require.NoError(t, os.WriteFile(path, []byte("FileVersion=2.2\r\n#1\nlast-line-without-newline"), 0644))

	src, err := OpenFile(path)
	require.NoError(t, err)
	defer src.Close()

	var lines []string
	for {
		line, err := src.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
	assert.Equal(t, []string{"FileVersion=2.2", "#1", "last-line-without-newline"}, lines)
	assert.NoError(t, src.Close())
}

func TestOpenFile_Missing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "nope.acmi"))
	assert.Error(t, err)
}

func TestNewFileSource(t *testing.T) {
	src := NewFileSource(io.NopCloser(strings.NewReader("a\nb\n")))
	first, err := src.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a", first)
	var _ LineSource = src
	var _ LineSource = (*Conn)(nil)
}

func TestOptionsAddress(t *testing.T) {
	assert.Equal(t, "127.0.0.1:42674", Options{Host: "127.0.0.1", Port: 42674}.Address())
}
