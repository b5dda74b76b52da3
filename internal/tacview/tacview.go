// Package tacview reads telemetry lines from a Tacview real-time telemetry
// server or from a recorded .acmi text file.
package tacview

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	streamHeader = "XtraLib.Stream.0\nTacview.RealTimeTelemetry.0\n"

	defaultClientName  = "OpenRadar"
	defaultDialTimeout = 10 * time.Second
)

// ErrHandshake is returned when the server greets with an unexpected header.
var ErrHandshake = errors.New("unexpected tacview handshake")

// LineSource yields newline-framed telemetry lines.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// Options configures Dial.
type Options struct {
	Host        string
	Port        int
	Password    string
	ClientName  string
	DialTimeout time.Duration
}

// Address returns host:port.
func (o Options) Address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Conn is a handshaken real-time telemetry connection.
type Conn struct {
	conn   net.Conn
	reader *lineReader
	header string
	once   sync.Once
}

// Dial connects and performs the client/server handshake. The dial timeout
// also bounds the handshake.
func Dial(ctx context.Context, opts Options) (*Conn, error) {
	if opts.ClientName == "" {
		opts.ClientName = defaultClientName
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	dialer := net.Dialer{Timeout: opts.DialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", opts.Address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Address(), err)
	}

	c := &Conn{conn: nc, reader: newLineReader(nc)}
	if err := c.handshake(ctx, opts); err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

func (c *Conn) handshake(ctx context.Context, opts Options) error {
	deadline := time.Now().Add(opts.DialTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set handshake deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Now())
	})
	defer stop()

	hello := fmt.Sprintf("%sClient %s\n%s\x00", streamHeader, opts.ClientName, opts.Password)
	if _, err := io.WriteString(c.conn, hello); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}

	header, err := c.reader.r.ReadString(0)
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}
	header = strings.TrimSuffix(header, "\x00")
	if !strings.HasPrefix(header, streamHeader) {
		return fmt.Errorf("%w: %q", ErrHandshake, header)
	}
	c.header = header

	if err := ctx.Err(); err != nil {
		return err
	}
	return c.conn.SetDeadline(time.Time{})
}

// Header returns the server's handshake text.
func (c *Conn) Header() string {
	return c.header
}

// ReadLine blocks for the next line. After Close it returns an error
// wrapping net.ErrClosed.
func (c *Conn) ReadLine() (string, error) {
	return c.reader.ReadLine()
}

// Close closes the connection. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// FileSource reads lines from a recorded .acmi text file.
type FileSource struct {
	f      io.Closer
	reader *lineReader
	once   sync.Once
}

// OpenFile opens a recording for replay.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return NewFileSource(f), nil
}

// NewFileSource wraps any reader as a line source.
func NewFileSource(rc io.ReadCloser) *FileSource {
	return &FileSource{f: rc, reader: newLineReader(rc)}
}

// ReadLine returns the next line, or io.EOF at the end of the file.
func (s *FileSource) ReadLine() (string, error) {
	return s.reader.ReadLine()
}

// Close closes the file.
func (s *FileSource) Close() error {
	var err error
	s.once.Do(func() {
		err = s.f.Close()
	})
	return err
}

type lineReader struct {
	r *bufio.Reader
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine strips the trailing "\n" and "\r". A final unterminated line is
// returned before io.EOF.
func (l *lineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line[:len(line)-1], "\r"), nil
}
