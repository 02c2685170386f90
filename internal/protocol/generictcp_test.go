package protocol

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

func TestGenericTCP_PowerActionsUnsupported(t *testing.T) {
	d := &device.Device{ID: "d1", Host: "127.0.0.1", Port: 1}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := (GenericTCP{}).PowerOn(ctx, d); !errors.Is(err, ErrProtocol) {
		t.Errorf("PowerOn() error = %v, want ErrProtocol", err)
	}
	if err := (GenericTCP{}).PowerOff(ctx, d); !errors.Is(err, ErrProtocol) {
		t.Errorf("PowerOff() error = %v, want ErrProtocol", err)
	}
}

func TestGenericTCP_QueryPower_Reachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	d := &device.Device{ID: "d1", Host: "127.0.0.1", Port: addr.Port}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := GenericTCP{}.QueryPower(ctx, d)
	if err != nil {
		t.Fatalf("QueryPower() error = %v", err)
	}
	if state != PowerOn {
		t.Errorf("QueryPower() = %v, want PowerOn", state)
	}
}

func TestGenericTCP_QueryPower_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	d := &device.Device{ID: "d1", Host: "127.0.0.1", Port: addr.Port}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = GenericTCP{}.QueryPower(ctx, d)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("QueryPower() error = %v, want ErrUnreachable", err)
	}
}
