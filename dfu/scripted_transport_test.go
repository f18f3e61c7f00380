package dfu

import (
	"errors"
	"testing"

	"github.com/nrf5dfu/nrf-update/internal/slip"
)

// scriptedTransport replays a fixed sequence of response frames and records
// every frame the engine sent, so tests can assert both what the engine
// said and what it did with what it heard back.
type scriptedTransport struct {
	t         *testing.T
	responses [][]byte // raw (pre-SLIP) response frames, in order
	sent      [][]byte // decoded raw frames (including WRITE_OBJECT bursts)
	closed    bool
}

func newScriptedTransport(t *testing.T, responses ...[]byte) *scriptedTransport {
	return &scriptedTransport{t: t, responses: responses}
}

func (st *scriptedTransport) Send(data []byte) error {
	if len(data) == 0 || data[len(data)-1] != slip.End {
		return errors.New("frame not END-terminated")
	}
	st.sent = append(st.sent, slip.Decode(data[:len(data)-1]))
	return nil
}

func (st *scriptedTransport) ReceiveUntil(buf []byte, delimiter byte) (int, error) {
	if len(st.responses) == 0 {
		return 0, errors.New("scripted transport: no response left")
	}
	resp := st.responses[0]
	st.responses = st.responses[1:]

	encoded := slip.Encode(resp)
	encoded = encoded[:len(encoded)-1] // ReceiveUntil excludes the delimiter
	n := copy(buf, encoded)
	return n, nil
}

func (st *scriptedTransport) Close() error {
	st.closed = true
	return nil
}

// response builds a raw (pre-SLIP) success response frame for opcode op
// with the given payload.
func response(op opcode, payload ...byte) []byte {
	frame := []byte{byte(opResponse), byte(op), resultSuccess}
	return append(frame, payload...)
}

// failResponse builds a raw response frame carrying a non-success result.
func failResponse(op opcode, result byte) []byte {
	return []byte{byte(opResponse), byte(op), result}
}
