// Package kmain contains the boot sequence that brings up the interrupt
// plumbing and hands the CPU over to the scheduler.
package kmain

import (
	"github.com/KorobovMS/tornados/device/pic"
	"github.com/KorobovMS/tornados/device/pit"
	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/gate"
	"github.com/KorobovMS/tornados/kernel/hal"
	"github.com/KorobovMS/tornados/kernel/irq"
	"github.com/KorobovMS/tornados/kernel/kfmt"
	"github.com/KorobovMS/tornados/kernel/sched"
	"github.com/KorobovMS/tornados/kernel/syscall"
)

const (
	// TimerHz is the preemption frequency.
	TimerHz = 100

	// All lines are masked except for the timer, keyboard and serial
	// lines on the master and the whole slave.
	masterMask = 0xff &^ (1<<0 | 1<<1 | 1<<4)
	slaveMask  = 0xff

	busyWaitIterations = 1000000
)

var (
	// The following functions are mocked by tests.
	disableInterruptsFn = cpu.DisableInterrupts
	detectHardwareFn    = hal.DetectHardware
	serialPortFn        = hal.SerialPort
	keyboardFn          = hal.Keyboard
	gateInitFn          = gate.Init
	startFn             = sched.Start
	panicFn             = kfmt.Panic

	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
	errNoSerial      = &kernel.Error{Module: "kmain", Message: "serial port not available"}
	errBadTimerRate  = &kernel.Error{Module: "kmain", Message: "timer rate out of range"}

	// spin keeps busyWait from being optimized away.
	spin uint32
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. The rt0 code sets up the GDT with the flat kernel and
// user segments, a TSS whose ESP0 points at the kernel interrupt stack, a
// TLS selector in GS and a g0 whose stack bounds start at address 0 before
// jumping here with the address of the multiboot info payload.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	// Interrupts stay off until the first thread is restored with IF set.
	disableInterruptsFn()
	detectHardwareFn()

	port := serialPortFn()
	if port == nil {
		panicFn(errNoSerial)
		return
	}
	kfmt.Printf("[kmain] booting kernel, multiboot info at 0x%x\n", multibootInfoPtr)

	gateInitFn()
	pic.Remap(irq.MasterBase, irq.SlaveBase)
	pic.Mask(masterMask, slaveMask)
	if pit.SetFrequency(TimerHz) == 0 {
		panicFn(errBadTimerRate)
		return
	}

	if term := hal.ActiveTTY(); term != nil {
		port.SetEcho(term)
		syscall.SetConsole(term)
	} else {
		syscall.SetConsole(port)
	}

	// Keep a typed nil keyboard from reaching irq as a non-nil interface.
	var kbd irq.LineDevice
	if k := keyboardFn(); k != nil {
		kbd = k
		syscall.SetKeyboard(k)
	}
	irq.Init(kbd, port)

	sched.Init()
	sched.CreateKernelThread(sched.EntryPoint(kernelThread))
	sched.CreateUserThread(sched.EntryPoint(userThread))
	startFn()

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

// kernelThread runs at ring 0 and prints a marker to the serial port.
func kernelThread() {
	for {
		if port := serialPortFn(); port != nil {
			port.WriteByte('1')
		}
		busyWait()
	}
}

// userThread runs at ring 3 and prints the tick counter and any keyboard
// scancodes through system calls.
//
// GS is not usable at ring 3, so every function on this path is nosplit.
//
//go:nosplit
func userThread() {
	for {
		printDecimal(syscall.Invoke(syscall.SysTicks, 0))
		syscall.Invoke(syscall.SysPutChar, ' ')
		echoScancodes()
		busyWait()
	}
}

// echoScancodes prints every buffered scancode as "k<code> ".
//
//go:nosplit
func echoScancodes() {
	for {
		sc := syscall.Invoke(syscall.SysReadScancode, 0)
		if sc == syscall.SysErrNoData {
			return
		}

		syscall.Invoke(syscall.SysPutChar, 'k')
		printDecimal(sc)
		syscall.Invoke(syscall.SysPutChar, ' ')
	}
}

// printDecimal writes v in base 10 through the console system call.
//
//go:nosplit
func printDecimal(v uint32) {
	var (
		buf [10]byte
		i   = len(buf)
	)

	for {
		i--
		buf[i] = '0' + byte(v%10)
		v /= 10
		if v == 0 {
			break
		}
	}

	for ; i < len(buf); i++ {
		syscall.Invoke(syscall.SysPutChar, uint32(buf[i]))
	}
}

//go:nosplit
func busyWait() {
	for i := 0; i < busyWaitIterations; i++ {
		spin++
	}
}
