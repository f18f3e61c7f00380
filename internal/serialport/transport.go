// Package serialport opens and configures a POSIX character device for the
// DFU transport: 8N1 at 115200 baud with hardware flow control, exclusive
// advisory lock, blocking writes, and a bounded read-until-delimiter with a
// per-byte inactivity timeout.
package serialport

import (
	"io"
	"time"
)

// ByteGapTimeout is the maximum time ReceiveUntil will wait for each
// individual byte before giving up. The bootloader is expected to answer
// well within this window; hitting it means the link or the device is dead.
const ByteGapTimeout = 1 * time.Second

// Transport is the opaque byte stream the DFU engine drives: blocking send,
// and bounded receive-until-delimiter with a per-byte timeout.
type Transport struct {
	port *Port
}

// Open configures the device at path for DFU use: 8N1 at 115200 baud with
// RTS/CTS flow control, canonical mode/echo/signals disabled, a blocking
// single-byte read (VMIN=1, VTIME=0), and a flushed input queue.
func Open(path string) (*Transport, error) {
	port, err := openPort(path)
	if err != nil {
		return nil, err
	}

	attrs, err := port.GetAttr()
	if err != nil {
		port.Close()
		return nil, wrapErr("failed to read termios", err)
	}

	attrs.MakeRaw()
	attrs.SetSpeed(B115200)
	attrs.Cflag &= ^(PARENB | PARODD | CMSPAR | CSTOPB | CSIZE)
	attrs.Cflag |= CLOCAL | CREAD | CS8 | CRTSCTS
	attrs.Iflag = 0
	attrs.Oflag = 0
	attrs.Lflag = 0
	attrs.Cc[VMIN] = 1
	attrs.Cc[VTIME] = 0

	if err := port.SetAttr(TCSANOW, attrs); err != nil {
		port.Close()
		return nil, wrapErr("failed to configure termios", err)
	}

	if err := port.Flush(TCIFLUSH); err != nil {
		port.Close()
		return nil, wrapErr("failed to flush input", err)
	}

	return &Transport{port: port}, nil
}

// Send writes every byte of data to the device, failing on any short or
// errored write.
func (t *Transport) Send(data []byte) error {
	n, err := t.port.Write(data)
	if err != nil {
		return wrapErr("write failed", err)
	}
	if n != len(data) {
		return wrapErr("short write", io.ErrShortWrite)
	}
	return nil
}

// ReceiveUntil reads one byte at a time into buf, stopping at and excluding
// delimiter, or once len(buf) bytes have been placed, whichever comes
// first. Each byte must arrive within ByteGapTimeout of the previous one.
func (t *Transport) ReceiveUntil(buf []byte, delimiter byte) (int, error) {
	n := 0
	var b [1]byte
	for n < len(buf) {
		read, err := t.port.ReadTimeout(b[:], ByteGapTimeout)
		if err != nil {
			return n, wrapErr("receive timed out", err)
		}
		if read == 0 {
			continue
		}
		if b[0] == delimiter {
			break
		}
		buf[n] = b[0]
		n++
	}
	return n, nil
}

func (t *Transport) Close() error {
	return t.port.Close()
}

// WrapPort adapts an already-open, already-configured Port (e.g. one half
// of an OpenPTY pair in tests) into a Transport without going through Open's
// locking and termios setup.
func WrapPort(port *Port) *Transport {
	return &Transport{port: port}
}
