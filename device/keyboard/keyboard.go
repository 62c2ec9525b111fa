// Package keyboard implements a minimal PS/2 keyboard driver that collects
// raw scancodes from the keyboard interrupt.
package keyboard

import (
	"io"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

const (
	dataPort   = 0x60
	statusPort = 0x64

	statusOutputFull = 0x01

	// bufferSize must be a power of two.
	bufferSize = 64

	// maxFlush bounds the number of stale bytes drained at init time.
	maxFlush = 16
)

var (
	portReadByteFn = cpu.PortReadByte
)

// Keyboard buffers the scancodes read by the keyboard interrupt handler. When
// the buffer is full the oldest scancode is overwritten. Both ends of the
// buffer run inside interrupt gates so they never interleave.
type Keyboard struct {
	buf   [bufferSize]byte
	head  int
	count int
}

// NewKeyboard returns a new keyboard driver.
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// ServiceInterrupt reads the pending scancode from the controller. It is
// invoked by the keyboard interrupt handler.
func (kb *Keyboard) ServiceInterrupt() {
	sc := portReadByteFn(dataPort)

	if kb.count == bufferSize {
		kb.head = (kb.head + 1) & (bufferSize - 1)
		kb.count--
	}

	kb.buf[(kb.head+kb.count)&(bufferSize-1)] = sc
	kb.count++
}

// ReadScancode pops the oldest buffered scancode. The second return value is
// false if the buffer is empty. It backs the scancode system call.
func (kb *Keyboard) ReadScancode() (byte, bool) {
	if kb.count == 0 {
		return 0, false
	}

	sc := kb.buf[kb.head]
	kb.head = (kb.head + 1) & (bufferSize - 1)
	kb.count--
	return sc, true
}

// DriverName returns the name of this driver.
func (kb *Keyboard) DriverName() string {
	return "ps2_keyboard"
}

// DriverVersion returns the version of this driver.
func (kb *Keyboard) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit discards any bytes the controller buffered before boot so that
// the first keyboard interrupt is not lost behind them.
func (kb *Keyboard) DriverInit(w io.Writer) *kernel.Error {
	var flushed int
	for ; flushed < maxFlush && portReadByteFn(statusPort)&statusOutputFull != 0; flushed++ {
		portReadByteFn(dataPort)
	}

	kfmt.Fprintf(w, "flushed %d byte(s)\n", flushed)
	return nil
}

func probeForKeyboard() device.Driver {
	return NewKeyboard()
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderInput,
		Probe: probeForKeyboard,
	})
}
