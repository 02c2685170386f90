package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// dial opens a TCP connection honoring ctx's deadline, classifying
// connect-stage failures into ErrUnreachable or ErrTimeout.
func dial(ctx context.Context, host string, port int) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, fmt.Sprintf("%d", port)))
	if err != nil {
		return nil, classifyDialError(err)
	}
	return conn, nil
}

func classifyDialError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	// Connection refused, no route to host, network unreachable all land
	// here — the device simply isn't answering.
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// readLine reads up to a trailing '\n' (or EOF) and returns the line with
// surrounding whitespace trimmed. It honors ctx's deadline by setting it
// on conn before reading.
func readLine(ctx context.Context, conn net.Conn, maxBytes int) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	buf := make([]byte, 0, maxBytes)
	chunk := make([]byte, 1)
	for len(buf) < maxBytes {
		n, err := conn.Read(chunk)
		if n > 0 {
			if chunk[0] == '\n' {
				break
			}
			buf = append(buf, chunk[0])
		}
		if err != nil {
			if len(buf) > 0 {
				break
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return "", fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}
	return trimSpace(buf), nil
}

func trimSpace(b []byte) string {
	s := string(b)
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
