package serialport

import (
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapErrNilPassesThrough(t *testing.T) {
	require.NoError(t, wrapErr("whatever", nil))
}

func TestWrapErrFormatsMessageAndCause(t *testing.T) {
	err := wrapErr("failed to read termios", syscall.EBADF)
	require.EqualError(t, err, "failed to read termios: "+syscall.EBADF.Error())
}

func TestWrapErrUnwrapsToErrno(t *testing.T) {
	err := wrapErr("write failed", syscall.EIO)
	require.True(t, errors.Is(err, syscall.EIO))
}

func TestErrLockedIsEWOULDBLOCK(t *testing.T) {
	require.True(t, errors.Is(ErrLocked, syscall.EWOULDBLOCK))
}
