package dfu

// Transport is the opaque byte stream the engine drives: blocking send and
// bounded receive-until-delimiter. serialport.Transport implements this;
// tests substitute a scripted in-memory double.
type Transport interface {
	Send(data []byte) error
	ReceiveUntil(buf []byte, delimiter byte) (int, error)
	Close() error
}
