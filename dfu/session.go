package dfu

import (
	"github.com/nrf5dfu/nrf-update/internal/dfulog"
)

// receiveBufferSize bounds a raw SLIP-framed response as read off the
// transport before decoding. SLIP byte-stuffing can at most double a
// frame's length, so this comfortably covers messageBufferSize.
const receiveBufferSize = 2*messageBufferSize + 16

// session carries the state that spans an entire update call: the
// transport, the negotiated MTU and PRN interval, and the running CRC that
// is carried forward across every object, command and data alike.
type session struct {
	transport Transport
	log       *dfulog.Logger

	mtu uint16
	prn uint16
	crc uint32
}

func newSession(t Transport, log *dfulog.Logger) *session {
	return &session{transport: t, log: log}
}
