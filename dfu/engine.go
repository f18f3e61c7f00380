package dfu

import (
	"fmt"
	"io"

	"github.com/nrf5dfu/nrf-update/internal/slip"
	"github.com/nrf5dfu/nrf-update/internal/wire"
)

// sendCommand frames op+payload, sends it, and waits for exactly one
// response frame. This is the normal request/response pattern; WRITE_OBJECT
// is the sole exception (see writeObjectChunk) since PRN=0 means the
// bootloader does not acknowledge individual data packets.
func (s *session) sendCommand(op opcode, payload []byte) ([]byte, error) {
	if err := s.sendFrame(op, payload); err != nil {
		return nil, err
	}
	return s.readResponse(op)
}

func (s *session) sendFrame(op opcode, payload []byte) error {
	frame := make([]byte, 0, 1+len(payload))
	frame = append(frame, byte(op))
	frame = append(frame, payload...)
	s.log.Frame("-->", frame)

	if err := s.transport.Send(slip.Encode(frame)); err != nil {
		return newErr(KindTransportIO, fmt.Sprintf("failed to send 0x%02x", byte(op)), err)
	}
	return nil
}

func (s *session) readResponse(expected opcode) ([]byte, error) {
	raw := make([]byte, receiveBufferSize)
	n, err := s.transport.ReceiveUntil(raw, slip.End)
	if err != nil {
		return nil, newErr(KindTransportIO, "receive failed", err)
	}

	frame := slip.Decode(raw[:n])
	s.log.Frame("<--", frame)

	if len(frame) < 3 {
		return nil, newErr(KindFramingShort, fmt.Sprintf("response too short: %d bytes", len(frame)), nil)
	}
	if opcode(frame[0]) != opResponse {
		return nil, newErr(KindFramingOpcode, fmt.Sprintf("leading byte 0x%02x is not RESPONSE", frame[0]), nil)
	}
	if opcode(frame[1]) != expected {
		return nil, newErr(KindOpcodeMismatch, fmt.Sprintf("echoed opcode 0x%02x, expected 0x%02x", frame[1], byte(expected)), nil)
	}
	if frame[2] != resultSuccess {
		return nil, newErr(KindResultFailure, fmt.Sprintf("result code 0x%02x", frame[2]), nil)
	}
	return frame[3:], nil
}

func (s *session) ping() error {
	s.log.Infof("sending ping...")
	if _, err := s.sendCommand(opPing, []byte{0x01}); err != nil {
		return err
	}
	s.log.Infof("[OK]")
	return nil
}

func (s *session) setPRN(prn uint16) error {
	payload := make([]byte, 2)
	wire.PutUint16(prn, payload)

	s.log.Infof("setting receipt notify to %d...", prn)
	if _, err := s.sendCommand(opSetPRN, payload); err != nil {
		return err
	}
	s.prn = prn
	s.log.Infof("[OK]")
	return nil
}

func (s *session) getMTU() error {
	s.log.Infof("getting MTU...")
	payload, err := s.sendCommand(opGetMTU, nil)
	if err != nil {
		return err
	}
	if len(payload) < 2 {
		return newErr(KindPayloadShort, "MTU response too short", nil)
	}

	mtu := wire.Uint16(payload)
	if mtu < 4 || mtu%2 != 0 {
		return newErr(KindInvalidMTU, fmt.Sprintf("MTU %d is not a positive even integer >= 4", mtu), nil)
	}
	chunkSize := chunkSizeForMTU(mtu)
	if chunkSize <= 0 {
		return newErr(KindInvalidMTU, fmt.Sprintf("MTU %d yields non-positive chunk size", mtu), nil)
	}
	if chunkSize > messageBufferSize-1 {
		return newErr(KindInvalidMTU, fmt.Sprintf("MTU %d chunk size %d exceeds message buffer", mtu, chunkSize), nil)
	}

	s.mtu = mtu
	s.log.Infof("[OK]: MTU is %d", mtu)
	return nil
}

// chunkSizeForMTU is the data payload size of a single WRITE_OBJECT chunk
// for a given negotiated MTU.
func chunkSizeForMTU(mtu uint16) int {
	return (int(mtu)-1)/2 - 1
}

type selectResult struct {
	maxSize uint32
	offset  uint32
	crc     uint32
}

func (s *session) objectSelect(t objectType) (selectResult, error) {
	name := "DATA"
	if t == objectCommand {
		name = "COMMAND"
	}
	s.log.Infof("selecting object type %s...", name)

	payload, err := s.sendCommand(opObjectSelect, []byte{byte(t)})
	if err != nil {
		return selectResult{}, err
	}
	if len(payload) < 12 {
		return selectResult{}, newErr(KindPayloadShort, "OBJECT_SELECT response too short", nil)
	}

	result := selectResult{
		maxSize: wire.Uint32(payload[0:4]),
		offset:  wire.Uint32(payload[4:8]),
		crc:     wire.Uint32(payload[8:12]),
	}
	s.log.Infof("[OK]: max_size=0x%x offset=0x%x crc=0x%x", result.maxSize, result.offset, result.crc)
	return result, nil
}

func (s *session) objectCreate(t objectType, size uint32) error {
	name := "DATA"
	if t == objectCommand {
		name = "COMMAND"
	}
	s.log.Infof("creating object type %s, size 0x%x...", name, size)

	payload := make([]byte, 5)
	payload[0] = byte(t)
	wire.PutUint32(size, payload[1:])

	if _, err := s.sendCommand(opObjectCreate, payload); err != nil {
		return err
	}
	s.log.Infof("[OK]")
	return nil
}

func (s *session) getCRC() (offset, crc uint32, err error) {
	s.log.Infof("fetching CRC...")
	payload, err := s.sendCommand(opGetCRC, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(payload) < 8 {
		return 0, 0, newErr(KindPayloadShort, "GET_CRC response too short", nil)
	}
	offset = wire.Uint32(payload[0:4])
	crc = wire.Uint32(payload[4:8])
	s.log.Infof("[OK]: offset=0x%x crc=0x%x", offset, crc)
	return offset, crc, nil
}

func (s *session) setExecute() error {
	s.log.Infof("setting execute...")
	if _, err := s.sendCommand(opSetExecute, nil); err != nil {
		return err
	}
	s.log.Infof("[OK]")
	return nil
}

// writeObjectChunk sends a WRITE_OBJECT command carrying up to chunkSize
// bytes and does not wait for a response: with PRN=0 the bootloader never
// acknowledges individual data packets, only the checkpoint GET_CRC at the
// end of the object.
func (s *session) writeObjectChunk(chunk []byte) error {
	return s.sendFrame(opWriteObject, chunk)
}

// streamObject reads length bytes from src (already positioned at the
// start of the chunk), writes them as a burst of WRITE_OBJECT chunks
// sized to the negotiated MTU, then checkpoints with GET_CRC. The running
// CRC is carried forward across every object of the whole update, seeded
// from 0 by the very first byte sent.
func (s *session) streamObject(src io.Reader, length uint32, startOffset uint32) error {
	chunkSize := chunkSizeForMTU(s.mtu)
	buf := make([]byte, chunkSize)

	var sent uint32
	for sent < length {
		want := chunkSize
		if remaining := int(length - sent); remaining < want {
			want = remaining
		}
		if _, err := io.ReadFull(src, buf[:want]); err != nil {
			return newErr(KindFileIO, "failed to read source file", err)
		}
		s.crc = wire.CRC32(buf[:want], s.crc)
		if err := s.writeObjectChunk(buf[:want]); err != nil {
			return err
		}
		sent += uint32(want)
	}

	deviceOffset, deviceCRC, err := s.getCRC()
	if err != nil {
		return err
	}
	if deviceCRC != s.crc {
		return newErr(KindVerifyCRC, fmt.Sprintf("expected 0x%08x, device reported 0x%08x", s.crc, deviceCRC), nil)
	}
	wantOffset := startOffset + sent
	if deviceOffset != wantOffset {
		return newErr(KindVerifyOffset, fmt.Sprintf("expected 0x%x, device reported 0x%x", wantOffset, deviceOffset), nil)
	}
	return nil
}
