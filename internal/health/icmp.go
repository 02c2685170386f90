package health

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

const icmpProtocolNumber = 1 // ICMP for IPv4

// probeICMP sends one ICMP echo request and waits for the matching
// reply. Opening a raw ICMP socket requires CAP_NET_RAW; when that
// fails (unprivileged process, sandboxed container) the caller falls
// back to a TCP connect probe instead.
func probeICMP(ctx context.Context, host string) (Result, bool) {
	ip, err := resolveIPv4(host)
	if err != nil {
		return Result{Detail: err.Error()}, true
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		if errors.Is(err, syscall.EPERM) || errors.Is(err, os.ErrPermission) {
			return Result{}, false
		}
		return Result{Detail: err.Error()}, true
	}
	defer conn.Close()

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("avengine-health")},
	}
	payload, err := msg.Marshal(nil)
	if err != nil {
		return Result{Detail: err.Error()}, true
	}

	deadline := time.Now().Add(probeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	start := time.Now()
	if _, err := conn.WriteTo(payload, &net.IPAddr{IP: ip}); err != nil {
		return Result{Detail: err.Error()}, true
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return Result{Detail: "no ICMP reply: " + err.Error()}, true
		}
		if !peer.(*net.IPAddr).IP.Equal(ip) {
			continue
		}
		reply, err := icmp.ParseMessage(icmpProtocolNumber, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		echo, ok := reply.Body.(*icmp.Echo)
		if !ok || echo.ID != id {
			continue
		}
		latency := time.Since(start)
		return Result{Reachable: true, LatencyMS: latency.Milliseconds()}, true
	}
}

func resolveIPv4(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip.To4(), nil
	}
	addrs, err := net.DefaultResolver.LookupIP(context.Background(), "ip4", host)
	if err != nil {
		return nil, err
	}
	return addrs[0], nil
}
