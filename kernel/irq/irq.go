// Package irq installs the interrupt routing policy: the timer line drives
// the scheduler, the keyboard and serial lines are forwarded to their
// drivers, the system call vector reaches the syscall table and everything
// else is fatal.
package irq

import (
	"github.com/KorobovMS/tornados/device/pic"
	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/gate"
	"github.com/KorobovMS/tornados/kernel/kfmt"
	"github.com/KorobovMS/tornados/kernel/sched"
	"github.com/KorobovMS/tornados/kernel/syscall"
)

// PIC vector bases used when remapping the controllers. The master lines
// start right after the CPU exception range.
const (
	MasterBase = uint8(gate.Timer)
	SlaveBase  = MasterBase + 8
)

// IRQ lines served by the routing policy.
const (
	timerIRQ    = uint8(gate.Timer) - MasterBase
	keyboardIRQ = uint8(gate.Keyboard) - MasterBase
	serialIRQ   = uint8(gate.Serial) - MasterBase
)

// LineDevice is implemented by drivers that own an IRQ line. ServiceInterrupt
// is called from interrupt context before the line is acknowledged.
type LineDevice interface {
	ServiceInterrupt()
}

var (
	// The following functions are mocked by tests.
	ackFn             = pic.Acknowledge
	saveFn            = sched.Save
	scheduleFn        = sched.Schedule
	currentIndexFn    = sched.CurrentIndex
	currentFn         = sched.Current
	syscallFn         = syscall.Handle
	panicFn           = kfmt.Panic
	handleInterruptFn = gate.HandleInterrupt
	setUnhandledFn    = gate.SetUnhandledHandler

	errUnhandledVector = &kernel.Error{Module: "irq", Message: "unhandled interrupt"}
)

var (
	keyboardDev LineDevice
	serialDev   LineDevice
)

// Init registers the handlers for the timer, keyboard, serial and system call
// vectors and installs the fatal path for every other vector. Either device
// may be nil in which case its line is still acknowledged.
func Init(keyboard, serial LineDevice) {
	keyboardDev = keyboard
	serialDev = serial

	handleInterruptFn(gate.Timer, cpu.Ring0, onTimer)
	handleInterruptFn(gate.Keyboard, cpu.Ring0, onKeyboard)
	handleInterruptFn(gate.Serial, cpu.Ring0, onSerial)
	handleInterruptFn(gate.Syscall, cpu.Ring3, onSyscall)
	setUnhandledFn(onUnhandled)
}

// onTimer preempts the running thread. It does not return unless the
// scheduler has been mocked.
//
//go:nosplit
func onTimer(regs *gate.Registers) {
	saveFn(regs)
	ackFn(timerIRQ)
	scheduleFn()
}

func onKeyboard(_ *gate.Registers) {
	if keyboardDev != nil {
		keyboardDev.ServiceInterrupt()
	}
	ackFn(keyboardIRQ)
}

func onSerial(_ *gate.Registers) {
	if serialDev != nil {
		serialDev.ServiceInterrupt()
	}
	ackFn(serialIRQ)
}

func onSyscall(regs *gate.Registers) {
	syscallFn(regs)
}

// onUnhandled reports the vector together with the state of the interrupted
// thread and halts the system.
func onUnhandled(regs *gate.Registers) {
	w := kfmt.GetOutputSink()

	kfmt.Printf("\nunhandled interrupt %d (error code 0x%x) in thread %d\n", regs.Vector, regs.ErrorCode, currentIndexFn())
	kfmt.Printf("Interrupted registers:\n")
	regs.DumpTo(w)

	cur := currentFn()
	kfmt.Printf("Thread descriptor (%s):\n", cur.State.String())
	cur.DumpTo(w)

	panicFn(errUnhandledVector)
}
