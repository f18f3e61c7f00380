// Package dfu implements the nRF5 Secure DFU bootloader protocol: the
// SLIP-framed request/response exchange, the object-based transfer state
// machine (select -> create -> stream -> verify -> execute), MTU-aware
// chunking, and incremental CRC-32 validation against the target's
// reported state.
package dfu

import (
	"fmt"
	"io"
	"os"

	"github.com/nrf5dfu/nrf-update/internal/dfulog"
	"github.com/nrf5dfu/nrf-update/internal/serialport"
)

// Options configures a single Update call.
type Options struct {
	// Device is the serial device path, e.g. /dev/ttyACM0. Ignored if
	// Transport is set.
	Device string

	// InitPacketPath is the signed init-packet (.dat) file.
	InitPacketPath string

	// FirmwarePath is the firmware image (.bin) file.
	FirmwarePath string

	// LogLevel controls verbosity. The zero value is Silent; callers that
	// want the original tool's default verbosity should pass
	// dfulog.Error explicitly (cmd/nrf-update's -l flag defaults to it).
	LogLevel dfulog.Level

	// LogOutput receives log records; defaults to os.Stderr.
	LogOutput io.Writer

	// PRN overrides the packet-receipt-notification interval. The
	// engine always streams WRITE_OBJECT without waiting for a
	// response regardless of this value (PRN=0 behavior); a non-zero
	// PRN here only affects what the device is told, as a documented
	// extension point for a future non-zero-PRN ack path.
	PRN uint16

	// Transport, if set, is used instead of opening Device. Intended
	// for tests.
	Transport Transport
}

// Update performs, in order, and aborts on the first failure: ping, set
// PRN, get MTU, send the init-packet as a COMMAND object, then send the
// firmware as one or more DATA objects. The transport is always closed on
// return. On failure the error is logged once at ERROR level before being
// returned to the caller.
func Update(opts Options) error {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	log := dfulog.New(opts.LogLevel, out)

	transport := opts.Transport
	if transport == nil {
		t, err := serialport.Open(opts.Device)
		if err != nil {
			err = newErr(KindTransportOpen, "failed to open "+opts.Device, err)
			log.Errorf("%s", err)
			return err
		}
		transport = t
	}
	defer transport.Close()

	s := newSession(transport, log)

	if err := s.ping(); err != nil {
		log.Errorf("%s", err)
		return err
	}
	if err := s.setPRN(opts.PRN); err != nil {
		log.Errorf("%s", err)
		return err
	}
	if err := s.getMTU(); err != nil {
		log.Errorf("%s", err)
		return err
	}
	if err := s.sendInitPacket(opts.InitPacketPath); err != nil {
		log.Errorf("%s", err)
		return err
	}
	if err := s.sendFirmware(opts.FirmwarePath); err != nil {
		log.Errorf("%s", err)
		return err
	}

	return nil
}

func (s *session) sendInitPacket(path string) error {
	s.log.Infof("opening %s...", path)
	f, err := os.Open(path)
	if err != nil {
		return newErr(KindFileIO, "failed to open "+path, err)
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return newErr(KindFileIO, "failed to stat "+path, err)
	}

	sel, err := s.objectSelect(objectCommand)
	if err != nil {
		return err
	}
	if uint64(size) > uint64(sel.maxSize) {
		return newErr(KindSizeExceeded, fmt.Sprintf("init-packet is %d bytes, max is %d", size, sel.maxSize), nil)
	}

	if err := s.objectCreate(objectCommand, uint32(size)); err != nil {
		return err
	}
	if err := s.streamObject(f, uint32(size), 0); err != nil {
		return err
	}
	return s.setExecute()
}

func (s *session) sendFirmware(path string) error {
	s.log.Infof("opening %s...", path)
	f, err := os.Open(path)
	if err != nil {
		return newErr(KindFileIO, "failed to open "+path, err)
	}
	defer f.Close()

	size, err := fileSize(f)
	if err != nil {
		return newErr(KindFileIO, "failed to stat "+path, err)
	}
	fileSize := uint32(size)

	sel, err := s.objectSelect(objectData)
	if err != nil {
		return err
	}
	// Resume is intentionally not supported: force the offset to 0 even
	// when the device reports a non-zero resume point.
	if sel.offset != 0 {
		s.log.Infof("device reports resume offset 0x%x, ignoring (resume is not supported)", sel.offset)
	}
	if sel.maxSize == 0 && fileSize > 0 {
		return newErr(KindSizeExceeded, "device reports a max_size of 0 for DATA objects", nil)
	}

	for objOffset := uint32(0); objOffset < fileSize; objOffset += sel.maxSize {
		objSize := sel.maxSize
		if fileSize-objOffset < objSize {
			objSize = fileSize - objOffset
		}

		if err := s.objectCreate(objectData, objSize); err != nil {
			return err
		}
		if _, err := f.Seek(int64(objOffset), io.SeekStart); err != nil {
			return newErr(KindFileIO, "failed to seek "+path, err)
		}
		if err := s.streamObject(f, objSize, objOffset); err != nil {
			return err
		}
		if err := s.setExecute(); err != nil {
			return err
		}
	}
	return nil
}

func fileSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
