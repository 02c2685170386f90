package protocol

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/d0ssh1/Auto-Aquarium/internal/device"
)

// JSONRPCProjector drives Barco-style projectors over a raw TCP JSON-RPC
// 2.0 channel. Each message is framed with a 4-byte big-endian length
// prefix ahead of the JSON payload.
type JSONRPCProjector struct{}

const jsonrpcMaxFrame = 64 * 1024

type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (JSONRPCProjector) PowerOn(ctx context.Context, d *device.Device) error {
	_, err := jsonrpcCall(ctx, d, "system.poweron", nil)
	return err
}

func (JSONRPCProjector) PowerOff(ctx context.Context, d *device.Device) error {
	_, err := jsonrpcCall(ctx, d, "system.poweroff", nil)
	return err
}

func (JSONRPCProjector) QueryPower(ctx context.Context, d *device.Device) (PowerState, error) {
	result, err := jsonrpcCall(ctx, d, "system.powerstate", nil)
	if err != nil {
		return PowerUnknown, err
	}
	var state struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(result, &state); err != nil {
		return PowerUnknown, fmt.Errorf("%w: malformed powerstate result: %v", ErrProtocol, err)
	}
	switch state.State {
	case "on":
		return PowerOn, nil
	case "off":
		return PowerOff, nil
	default:
		return PowerUnknown, fmt.Errorf("%w: unrecognised power state %q", ErrProtocol, state.State)
	}
}

func jsonrpcCall(ctx context.Context, d *device.Device, method string, params interface{}) (json.RawMessage, error) {
	port := d.Port
	if port == 0 {
		port = 9090
	}
	conn, err := dial(ctx, d.Host, port)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := jsonrpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrProtocol, err)
	}
	if err := writeFrame(conn, payload); err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	frame, err := readFrame(conn)
	if err != nil {
		return nil, err
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrProtocol, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: rpc error %d: %s", ErrProtocol, resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func writeFrame(w interface{ Write([]byte) (int, error) }, payload []byte) error {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))
	if _, err := w.Write(header); err != nil {
		return classifyDialError(err)
	}
	if _, err := w.Write(payload); err != nil {
		return classifyDialError(err)
	}
	return nil
}

func readFrame(r interface{ Read([]byte) (int, error) }) ([]byte, error) {
	header := make([]byte, 4)
	if err := readFull(r, header); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header)
	if n == 0 || n > jsonrpcMaxFrame {
		return nil, fmt.Errorf("%w: implausible frame length %d", ErrProtocol, n)
	}
	body := make([]byte, n)
	if err := readFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) error {
	read := 0
	for read < len(buf) {
		n, err := r.Read(buf[read:])
		read += n
		if err != nil {
			if read == len(buf) {
				return nil
			}
			return classifyDialError(err)
		}
	}
	return nil
}
