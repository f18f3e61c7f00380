package dfu

import (
	"testing"

	"github.com/nrf5dfu/nrf-update/internal/dfulog"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, responses ...[]byte) (*session, *scriptedTransport) {
	transport := newScriptedTransport(t, responses...)
	return newSession(transport, dfulog.Discard()), transport
}

func TestPingResultFailure(t *testing.T) {
	s, _ := newTestSession(t, failResponse(opPing, 0x02))

	err := s.ping()
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindResultFailure, dfuErr.Kind)
}

func TestReadResponseTooShort(t *testing.T) {
	s, _ := newTestSession(t, []byte{byte(opResponse)})

	_, err := s.sendCommand(opPing, nil)
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindFramingShort, dfuErr.Kind)
}

func TestReadResponseLeadingByteNotResponse(t *testing.T) {
	s, _ := newTestSession(t, []byte{0x00, byte(opPing), resultSuccess})

	_, err := s.sendCommand(opPing, nil)
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindFramingOpcode, dfuErr.Kind)
}

func TestGetMTURejectsBelowMinimum(t *testing.T) {
	s, _ := newTestSession(t, response(opGetMTU, mtuPayload(2)...))

	err := s.getMTU()
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindInvalidMTU, dfuErr.Kind)
}

func TestGetMTURejectsOdd(t *testing.T) {
	s, _ := newTestSession(t, response(opGetMTU, mtuPayload(5)...))

	err := s.getMTU()
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindInvalidMTU, dfuErr.Kind)
}

func TestGetMTUBoundaryFourYieldsZeroChunk(t *testing.T) {
	s, _ := newTestSession(t, response(opGetMTU, mtuPayload(4)...))

	err := s.getMTU()
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindInvalidMTU, dfuErr.Kind)
}

func TestGetMTUAccepts(t *testing.T) {
	s, _ := newTestSession(t, response(opGetMTU, mtuPayload(64)...))

	require.NoError(t, s.getMTU())
	require.Equal(t, uint16(64), s.mtu)
}

func TestObjectSelectPayloadTooShort(t *testing.T) {
	s, _ := newTestSession(t, response(opObjectSelect, 0x01, 0x02))

	_, err := s.objectSelect(objectCommand)
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindPayloadShort, dfuErr.Kind)
}

func TestGetCRCPayloadTooShort(t *testing.T) {
	s, _ := newTestSession(t, response(opGetCRC, 0x01, 0x02, 0x03))

	_, _, err := s.getCRC()
	dfuErr := asDFUError(t, err)
	require.Equal(t, KindPayloadShort, dfuErr.Kind)
}
