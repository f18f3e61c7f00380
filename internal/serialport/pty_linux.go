package serialport

import (
	"fmt"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

// OpenPTY opens a pseudoterminal pair for tests: the master behaves like a
// DFU bootloader stub feeding/consuming raw bytes, the slave is what gets
// passed to Open-shaped code under test. The slave is put in raw mode so
// bytes pass through without line buffering or echo.
func OpenPTY() (master, slave *Port, err error) {
	masterFd, err := syscall.Open("/dev/ptmx", syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, nil, wrapErr("failed to open /dev/ptmx", err)
	}

	var lock int32
	if err := ioctl.Ioctl(uintptr(masterFd), tiocsptlck, uintptr(unsafe.Pointer(&lock))); err != nil {
		syscall.Close(masterFd)
		return nil, nil, wrapErr("failed to unlock pty", err)
	}

	var n uint32
	if err := ioctl.Ioctl(uintptr(masterFd), tiocgptn, uintptr(unsafe.Pointer(&n))); err != nil {
		syscall.Close(masterFd)
		return nil, nil, wrapErr("failed to read pty number", err)
	}

	slaveFd, err := syscall.Open(fmt.Sprintf("/dev/pts/%d", n), syscall.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		syscall.Close(masterFd)
		return nil, nil, wrapErr("failed to open pty slave", err)
	}

	slave = newPort(slaveFd)
	attrs, err := slave.GetAttr()
	if err == nil {
		attrs.MakeRaw()
		err = slave.SetAttr(TCSANOW, attrs)
	}
	if err != nil {
		slave.Close()
		syscall.Close(masterFd)
		return nil, nil, wrapErr("failed to put pty slave in raw mode", err)
	}

	return newPort(masterFd), slave, nil
}
