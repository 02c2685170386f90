package protocol

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// telnetFake runs a minimal Optoma-style login+command loop: a banner
// line, a username prompt/line, a password prompt/line, then one command
// line answered with ackLine.
func telnetFake(t *testing.T, ackLine string) (host string, port int) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		conn.Write([]byte("Welcome\r\n"))
		r.ReadString('\r')
		conn.Write([]byte("Password:\r\n"))
		r.ReadString('\r')
		r.ReadString('\r')
		conn.Write([]byte(ackLine + "\r\n"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func withCredentials(d *device.Device) *device.Device {
	d.Credentials = &device.Credentials{Username: "admin", Password: "secret"}
	return d
}

func TestTelnetProjector_PowerOn(t *testing.T) {
	host, port := telnetFake(t, "P")
	d := withCredentials(&device.Device{ID: "d1", Host: host, Port: port})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := (TelnetProjector{}).PowerOn(ctx, d); err != nil {
		t.Fatalf("PowerOn() error = %v", err)
	}
}

func TestTelnetProjector_PowerOn_UnexpectedAck(t *testing.T) {
	host, port := telnetFake(t, "ERR")
	d := withCredentials(&device.Device{ID: "d1", Host: host, Port: port})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := TelnetProjector{}.PowerOn(ctx, d)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("PowerOn() error = %v, want ErrProtocol", err)
	}
}

func TestTelnetProjector_QueryPower(t *testing.T) {
	host, port := telnetFake(t, "1")
	d := withCredentials(&device.Device{ID: "d1", Host: host, Port: port})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := TelnetProjector{}.QueryPower(ctx, d)
	if err != nil {
		t.Fatalf("QueryPower() error = %v", err)
	}
	if state != PowerOn {
		t.Errorf("QueryPower() = %v, want PowerOn", state)
	}
}

func TestTelnetProjector_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close() // nothing listens on this port now

	d := withCredentials(&device.Device{ID: "d1", Host: "127.0.0.1", Port: addr.Port})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err = TelnetProjector{}.PowerOn(ctx, d)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("PowerOn() error = %v, want ErrUnreachable", err)
	}
}

func TestTelnetProjector_Timeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// Accept the connection but never speak: the client's read
		// deadline should fire.
		time.Sleep(5 * time.Second)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	d := withCredentials(&device.Device{ID: "d1", Host: "127.0.0.1", Port: addr.Port})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = TelnetProjector{}.PowerOn(ctx, d)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("PowerOn() error = %v, want ErrTimeout", err)
	}
}
