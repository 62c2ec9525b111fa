// Package syscall implements the synchronous system call gate. A thread
// raises the system call vector with the call number in EAX and its argument
// in EBX; the result is returned in EAX. System calls never enter the
// scheduler: the calling thread always resumes right after its INT
// instruction.
package syscall

import (
	"io"

	"github.com/KorobovMS/tornados/kernel/gate"
	"github.com/KorobovMS/tornados/kernel/sched"
)

// Number identifies a system call.
type Number uint32

// The supported system calls.
const (
	// SysTicks returns the number of scheduler ticks since boot.
	SysTicks Number = iota

	// SysThreadID returns the pool slot of the calling thread.
	SysThreadID

	// SysPutChar prints the low byte of its argument on the console and
	// returns 1, or 0 if no console is attached.
	SysPutChar

	// SysReadScancode pops the oldest buffered keyboard scancode. It returns
	// SysErrNoData when nothing is buffered or no keyboard is attached.
	SysReadScancode
)

const (
	// SysErrUnknown is returned for unsupported system call numbers.
	SysErrUnknown = 0xffffffff

	// SysErrNoData is returned by calls that have nothing to report.
	SysErrNoData = 0xfffffffe
)

// ScancodeReader is implemented by keyboard drivers that buffer scancodes.
type ScancodeReader interface {
	ReadScancode() (byte, bool)
}

var (
	ticksFn    = sched.Ticks
	threadIDFn = sched.CurrentIndex

	// console receives SysPutChar output.
	console io.ByteWriter

	// keyboard feeds SysReadScancode.
	keyboard ScancodeReader
)

// SetConsole sets the writer used by SysPutChar.
func SetConsole(w io.ByteWriter) {
	console = w
}

// SetKeyboard sets the scancode source used by SysReadScancode.
func SetKeyboard(kbd ScancodeReader) {
	keyboard = kbd
}

// Handle services the system call described by regs and stores the result in
// regs.EAX. It is registered as the handler for gate.Syscall.
func Handle(regs *gate.Registers) {
	regs.EAX = Dispatch(Number(regs.EAX), regs.EBX)
}

// Dispatch executes system call num with the supplied argument.
func Dispatch(num Number, arg uint32) uint32 {
	switch num {
	case SysTicks:
		return ticksFn()
	case SysThreadID:
		return uint32(threadIDFn())
	case SysPutChar:
		if console == nil {
			return 0
		}
		console.WriteByte(byte(arg))
		return 1
	case SysReadScancode:
		if keyboard == nil {
			return SysErrNoData
		}
		if sc, ok := keyboard.ReadScancode(); ok {
			return uint32(sc)
		}
		return SysErrNoData
	}

	return SysErrUnknown
}
