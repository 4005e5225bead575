package notify

import (
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Host:            "api.twilio.com",
		Port:            443,
		Path:            "/2010-04-01/Accounts/AC1234/Messages.json",
		AuthToken:       "dGVzdDp0b2tlbg==",
		To:              "16505551234",
		From:            "16505556789",
		ResponseTimeout: 500 * time.Millisecond,
	}
}

// fakeEndpoint swaps the client's dial for a net.Pipe whose far end reads
// one request, optionally delays, writes the canned response and closes.
// The captured request is delivered on the returned channel.
func fakeEndpoint(c *Client, response string, delay time.Duration) <-chan []byte {
	requests := make(chan []byte, 1)
	c.dial = func() (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			defer server.Close()
			buf := make([]byte, 4096)
			n, _ := server.Read(buf)
			requests <- append([]byte(nil), buf[:n]...)
			if delay > 0 {
				time.Sleep(delay)
			}
			if response != "" {
				server.Write([]byte(response))
			}
		}()
		return client, nil
	}
	return requests
}

func TestSendClassification(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		wantResult Result
		wantErr    error
	}{
		{
			name:       "200 delivered",
			response:   "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok",
			wantResult: Delivered,
		},
		{
			name:       "201 delivered",
			response:   "HTTP/1.1 201 Created\r\n\r\n",
			wantResult: Delivered,
		},
		{
			name:       "404 failed",
			response:   "HTTP/1.1 404 Not Found\r\n\r\n",
			wantResult: Failed,
			wantErr:    ErrNonSuccessStatus,
		},
		{
			name:       "500 failed",
			response:   "HTTP/1.1 500 Internal Server Error\r\n\r\n",
			wantResult: Failed,
			wantErr:    ErrNonSuccessStatus,
		},
		{
			name:       "401 failed",
			response:   "HTTP/1.1 401 Unauthorized\r\n\r\n",
			wantResult: Failed,
			wantErr:    ErrNonSuccessStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testConfig(), nil)
			fakeEndpoint(c, tt.response, 0)

			result, err := c.Send("Security system ", "in alarm: Zone 3")

			if result != tt.wantResult {
				t.Errorf("Send() result = %v, want %v", result, tt.wantResult)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("Send() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Send() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendRequestFraming(t *testing.T) {
	c := New(testConfig(), nil)
	requests := fakeEndpoint(c, "HTTP/1.1 200 OK\r\n\r\n", 0)

	if _, err := c.Send("Security system ", "is armed: Partition 1"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	request := string(<-requests)
	headers, body, found := strings.Cut(request, "\r\n\r\n")
	if !found {
		t.Fatalf("request missing header terminator: %q", request)
	}

	lines := strings.Split(headers, "\r\n")
	if lines[0] != "POST /2010-04-01/Accounts/AC1234/Messages.json HTTP/1.1" {
		t.Errorf("request line = %q", lines[0])
	}

	wantBody := "To=+16505551234&From=+16505556789&Body=Security system is armed: Partition 1"
	if body != wantBody {
		t.Errorf("body = %q, want %q", body, wantBody)
	}

	wantHeaders := []string{
		"Authorization: Basic dGVzdDp0b2tlbg==",
		"Host: api.twilio.com",
		"User-Agent: " + userAgent,
		"Accept: */*",
		"Content-Type: application/x-www-form-urlencoded",
		"Content-Length: 76",
		"Connection: Close",
	}
	for i, want := range wantHeaders {
		if i+1 >= len(lines) {
			t.Fatalf("request has %d header lines, want %d", len(lines)-1, len(wantHeaders))
		}
		if lines[i+1] != want {
			t.Errorf("header %d = %q, want %q", i, lines[i+1], want)
		}
	}
	if len(wantBody) != 76 {
		t.Fatalf("test fixture: body length is %d, update Content-Length expectation", len(wantBody))
	}
}

func TestSendResponseTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ResponseTimeout = 150 * time.Millisecond
	c := New(cfg, nil)

	// Endpoint holds the connection open well past the timeout without
	// writing a byte.
	fakeEndpoint(c, "", 2*time.Second)

	start := time.Now()
	result, err := c.Send("Security system ", "in alarm")
	elapsed := time.Since(start)

	if result != Failed {
		t.Errorf("Send() result = %v, want Failed", result)
	}
	if !errors.Is(err, ErrResponseTimeout) {
		t.Errorf("Send() error = %v, want ErrResponseTimeout", err)
	}
	if elapsed > time.Second {
		t.Errorf("Send() took %v, want bounded near the 150ms timeout", elapsed)
	}
}

func TestSendEndpointClosedEarly(t *testing.T) {
	c := New(testConfig(), nil)

	// Endpoint closes after reading the request without responding.
	fakeEndpoint(c, "", 0)

	result, err := c.Send("Security system ", "in alarm")

	if result != Failed {
		t.Errorf("Send() result = %v, want Failed", result)
	}
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Errorf("Send() error = %v, want ErrTransportUnavailable", err)
	}
}

func TestSendDialFailure(t *testing.T) {
	c := New(testConfig(), nil)
	c.dial = func() (net.Conn, error) {
		return nil, errors.New("connection refused")
	}

	result, err := c.Send("Security system ", "in alarm")

	if result != Failed {
		t.Errorf("Send() result = %v, want Failed", result)
	}
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Errorf("Send() error = %v, want ErrTransportUnavailable", err)
	}
}

type countingServicer struct {
	calls atomic.Int32
}

func (s *countingServicer) Service() bool {
	s.calls.Add(1)
	return true
}

func TestSendServicesPanelDuringWait(t *testing.T) {
	servicer := &countingServicer{}
	c := New(testConfig(), servicer)

	// Delay the response long enough for several poll cycles.
	fakeEndpoint(c, "HTTP/1.1 200 OK\r\n\r\n", 200*time.Millisecond)

	result, err := c.Send("Security system ", "is disarmed: Partition 1")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if result != Delivered {
		t.Errorf("Send() result = %v, want Delivered", result)
	}

	if calls := servicer.calls.Load(); calls < 2 {
		t.Errorf("panel source serviced %d times during wait, want at least 2", calls)
	}
}

func TestSendDefaultTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ResponseTimeout = 0
	c := New(cfg, nil)

	if c.cfg.ResponseTimeout != defaultResponseTimeout {
		t.Errorf("ResponseTimeout = %v, want %v", c.cfg.ResponseTimeout, defaultResponseTimeout)
	}
}
