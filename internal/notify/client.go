package notify

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Timeouts and buffer sizes for the notification exchange.
const (
	// defaultResponseTimeout bounds the wait for the response status line.
	defaultResponseTimeout = 3000 * time.Millisecond

	// writeTimeout bounds the request write.
	writeTimeout = 5 * time.Second

	// pollInterval is the read deadline used per wait iteration. Between
	// polls the panel source is serviced, so the interval sets the
	// servicing cadence during the blocking wait.
	pollInterval = 50 * time.Millisecond

	// drainDeadline bounds the post-classification drain of the
	// connection before close.
	drainDeadline = 250 * time.Millisecond

	// responseBufferSize is the size of the response read buffer. Only
	// the status line and a diagnostic body snippet are kept.
	responseBufferSize = 1024

	// userAgent identifies the bridge in the request headers.
	userAgent = "dscbridge/1.0"
)

// Result classifies a notification delivery attempt.
type Result int

const (
	// Failed means the message was not confirmed delivered: connection
	// failure, response timeout, or a non-2xx status.
	Failed Result = iota

	// Delivered means the endpoint confirmed the message with a 2xx status.
	Delivered
)

func (r Result) String() string {
	if r == Delivered {
		return "delivered"
	}
	return "failed"
}

// Servicer is the panel-source hook invoked between response polls.
//
// The HTTP wait is long relative to the panel bus cadence; skipping
// decoder service during the wait overflows its buffer. The bridge passes
// the panel source here.
type Servicer interface {
	Service() bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Config holds notification endpoint settings.
type Config struct {
	// Host and Port identify the HTTPS endpoint.
	Host string
	Port int

	// Path is the request path.
	Path string

	// AuthToken is the pre-encoded Basic credential.
	AuthToken string

	// To and From are phone numbers without the leading "+".
	To   string
	From string

	// ResponseTimeout bounds the wait for the response status line.
	// Default: 3000 ms.
	ResponseTimeout time.Duration
}

// Client sends one-shot push/SMS notifications over a hand-framed
// HTTP/1.1 exchange.
//
// Each Send opens a fresh TLS connection, writes a single POST, waits a
// bounded time for the status line while continuing to service the panel
// source, classifies the outcome by the leading status digit, drains the
// connection and closes it. Connections are never reused. There is no
// retry inside Send; callers invoke it transiently for one-shot events.
//
// Not safe for concurrent use; the single-threaded run loop is the only
// caller.
type Client struct {
	cfg      Config
	servicer Servicer

	// dial is swappable for tests. The default establishes a TLS
	// connection to cfg.Host:cfg.Port.
	dial func() (net.Conn, error)

	logger Logger
}

// New creates a notification client.
//
// Parameters:
//   - cfg: Endpoint configuration
//   - servicer: Panel source serviced during response waits (may be nil)
//
// Returns:
//   - *Client: Ready for use
func New(cfg Config, servicer Servicer) *Client {
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = defaultResponseTimeout
	}
	c := &Client{
		cfg:      cfg,
		servicer: servicer,
	}
	c.dial = c.dialTLS
	return c
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Send delivers one message to the notification endpoint.
//
// The request body is To=+<to>&From=+<from>&Body=<prefix><message>, with
// the message text form-encoded. A leading response status digit of '2'
// is Delivered; any other digit, a timeout, or a connection failure is
// Failed. The returned error describes the failure cause and is nil on
// Delivered.
//
// Parameters:
//   - prefix: Configured message prefix
//   - message: Message text
//
// Returns:
//   - Result: Delivered or Failed
//   - error: nil on Delivered, cause otherwise
func (c *Client) Send(prefix, message string) (Result, error) {
	conn, err := c.dial()
	if err != nil {
		return Failed, fmt.Errorf("%w: dial: %w", ErrTransportUnavailable, err)
	}
	defer conn.Close()

	request := c.buildRequest(prefix, message)

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return Failed, fmt.Errorf("%w: set write deadline: %w", ErrTransportUnavailable, err)
	}
	if _, err := conn.Write(request); err != nil {
		return Failed, fmt.Errorf("%w: write: %w", ErrTransportUnavailable, err)
	}

	response, err := c.awaitResponse(conn)
	if err != nil {
		c.drain(conn)
		return Failed, err
	}

	result, err := classify(response)

	// Both outcomes drain remaining bytes before close so the transport's
	// buffers are consistent for the next call's fresh connection.
	c.drain(conn)

	if c.logger != nil {
		c.logger.Debug("notification sent", "result", result.String())
	}
	return result, err
}

// buildRequest assembles the hand-framed HTTP/1.1 POST.
func (c *Client) buildRequest(prefix, message string) []byte {
	body := "To=+" + c.cfg.To + "&From=+" + c.cfg.From +
		"&Body=" + prefix + message

	var buf bytes.Buffer
	buf.WriteString("POST " + c.cfg.Path + " HTTP/1.1\r\n")
	buf.WriteString("Authorization: Basic " + c.cfg.AuthToken + "\r\n")
	buf.WriteString("Host: " + c.cfg.Host + "\r\n")
	buf.WriteString("User-Agent: " + userAgent + "\r\n")
	buf.WriteString("Accept: */*\r\n")
	buf.WriteString("Content-Type: application/x-www-form-urlencoded\r\n")
	buf.WriteString("Content-Length: " + strconv.Itoa(len(body)) + "\r\n")
	buf.WriteString("Connection: Close\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.Bytes()
}

// awaitResponse waits for enough of the response to classify, bounded by
// the response timeout. Between short read polls the panel source is
// serviced at its normal cadence so the decoder is never starved.
func (c *Client) awaitResponse(conn net.Conn) ([]byte, error) {
	deadline := time.Now().Add(c.cfg.ResponseTimeout)
	buf := make([]byte, responseBufferSize)
	n := 0

	for {
		if c.servicer != nil {
			c.servicer.Service()
		}

		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: no status line within %v", ErrResponseTimeout, c.cfg.ResponseTimeout)
		}

		poll := time.Now().Add(pollInterval)
		if poll.After(deadline) {
			poll = deadline
		}
		if err := conn.SetReadDeadline(poll); err != nil {
			return nil, fmt.Errorf("%w: set read deadline: %w", ErrTransportUnavailable, err)
		}

		m, err := conn.Read(buf[n:])
		n += m

		if statusComplete(buf[:n]) {
			return buf[:n], nil
		}

		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue // poll expired, service the source again
			}
			return nil, fmt.Errorf("%w: read: %w", ErrTransportUnavailable, err)
		}
		if n == len(buf) {
			// Buffer full without a recognisable status line.
			return nil, fmt.Errorf("%w: malformed status line", ErrTransportUnavailable)
		}
	}
}

// statusComplete reports whether the buffer holds the status line's first
// space and the character after it (the leading status digit).
func statusComplete(b []byte) bool {
	i := bytes.IndexByte(b, ' ')
	return i >= 0 && i+1 < len(b)
}

// classify maps a response to a Result by the leading status digit.
// The status line is scanned only up to its first space; the following
// character is the leading digit of the numeric status code.
func classify(response []byte) (Result, error) {
	i := bytes.IndexByte(response, ' ')
	if i < 0 || i+1 >= len(response) {
		return Failed, fmt.Errorf("%w: malformed status line", ErrTransportUnavailable)
	}

	if response[i+1] == '2' {
		return Delivered, nil
	}

	// Surface the raw response for diagnostics; it is not retried.
	return Failed, fmt.Errorf("%w: %s", ErrNonSuccessStatus, bytes.TrimSpace(response))
}

// drain consumes any remaining bytes on the connection before close.
// Best-effort and bounded; the connection is discarded either way.
func (c *Client) drain(conn net.Conn) {
	if err := conn.SetReadDeadline(time.Now().Add(drainDeadline)); err != nil {
		return
	}
	buf := make([]byte, responseBufferSize)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

// dialTLS establishes the TLS connection to the configured endpoint.
func (c *Client) dialTLS() (net.Conn, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	return tls.Dial("tcp", addr, &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: c.cfg.Host,
	})
}
