// Package sched implements a preemptive round-robin scheduler for a fixed
// pool of kernel (ring 0) and user (ring 3) threads.
//
// All pool mutation performed by the scheduler happens inside the timer
// interrupt handler which runs with interrupts disabled. On a single core this
// serializes every access to the pool so no locking is required. State
// transition requests issued from thread context are single stores that take
// effect on the next timer tick.
package sched

import (
	"io"
	"unsafe"

	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/gate"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

const (
	// MaxThreads is the capacity of the thread pool.
	MaxThreads = 5

	// StackSize is the size of the private stack that backs each pool slot.
	StackSize = 16 * 1024

	// IdleIndex is the cursor value used while the idle thread runs.
	IdleIndex = MaxThreads

	idleStackSize = 4 * 1024
	stackAlign    = 16
)

// State describes whether a thread is eligible for selection.
type State uint32

const (
	// StateRunning marks a thread as eligible to be selected. It does not
	// imply that the thread is currently on the CPU.
	StateRunning State = iota

	// StateWaiting marks a suspended thread.
	StateWaiting

	// StateStopped is terminal; the slot is never selected or reused again.
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateWaiting:
		return "waiting"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Thread holds the resumable CPU context of a thread. The field layout is
// accessed by restoreThread through the offsets in go_asm.h.
type Thread struct {
	EAX    uint32
	EBX    uint32
	ECX    uint32
	EDX    uint32
	ESI    uint32
	EDI    uint32
	EBP    uint32
	ESP    uint32
	EIP    uint32
	EFlags uint32
	CS     uint32
	SS     uint32

	State State

	used bool
}

// DumpTo outputs the thread context to w.
func (t *Thread) DumpTo(w io.Writer) {
	kfmt.Fprintf(w, "EAX = %8x EBX = %8x ECX = %8x EDX = %8x\n", t.EAX, t.EBX, t.ECX, t.EDX)
	kfmt.Fprintf(w, "ESI = %8x EDI = %8x EBP = %8x ESP = %8x\n", t.ESI, t.EDI, t.EBP, t.ESP)
	kfmt.Fprintf(w, "EIP = %8x EFL = %8x CS  = %8x SS  = %8x\n", t.EIP, t.EFlags, t.CS, t.SS)
}

var (
	threads     [MaxThreads]Thread
	threadCount int
	cursor      = IdleIndex
	ticks       uint32

	stacks    [MaxThreads][StackSize + stackAlign]byte
	idleStack [idleStackSize + stackAlign]byte
	idle      Thread

	// The following functions are mocked by tests.
	restoreThreadFn = restoreThread
	panicFn         = kfmt.Panic
	idleEntryFn     = func() uintptr { return EntryPoint(idleLoop) }
	exitEntryFn     = func() uintptr { return EntryPoint(threadExit) }

	errPoolExhausted = &kernel.Error{Module: "sched", Message: "no free thread slots"}
)

// EntryPoint returns the address of the first instruction of fn.
func EntryPoint(fn func()) uintptr {
	if fn == nil {
		return 0
	}

	// A func value points at a closure record whose first word is the
	// code pointer.
	fnVal := *(*uintptr)(unsafe.Pointer(&fn))
	return *(*uintptr)(unsafe.Pointer(fnVal))
}

// stackTop returns the 16-byte aligned initial stack pointer for a stack
// region.
func stackTop(stack []byte) uintptr {
	end := uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))
	return end &^ (stackAlign - 1)
}

// Init prepares the idle thread. It must be called before Start.
func Init() {
	idle = Thread{
		ESP:    uint32(stackTop(idleStack[:])),
		EIP:    uint32(idleEntryFn()),
		EFlags: cpu.FlagsReserved | cpu.FlagsIF,
		CS:     cpu.KernelCS,
		SS:     cpu.KernelDS,
		State:  StateRunning,
		used:   true,
	}
}

// CreateKernelThread allocates the next pool slot for a ring 0 thread that
// starts executing at entry. If entry returns, the thread stops itself.
// Running out of slots is fatal.
func CreateKernelThread(entry uintptr) {
	idx := threadCount
	t := allocThread(entry, cpu.KernelCS, cpu.KernelDS)
	if t == nil {
		return
	}

	// Seed a return address as if entry had been CALLed.
	sp := stackTop(stacks[idx][:]) - 4
	*(*uint32)(unsafe.Pointer(sp)) = uint32(exitEntryFn())
	t.ESP = uint32(sp)
}

// CreateUserThread allocates the next pool slot for a ring 3 thread that
// starts executing at entry. User threads must never return from entry.
// Running out of slots is fatal.
func CreateUserThread(entry uintptr) {
	allocThread(entry, cpu.UserCS, cpu.UserDS)
}

func allocThread(entry uintptr, cs, ss uint32) *Thread {
	if threadCount == MaxThreads {
		panicFn(errPoolExhausted)
		return nil
	}

	idx := threadCount
	threads[idx] = Thread{
		ESP:    uint32(stackTop(stacks[idx][:])),
		EIP:    uint32(entry),
		EFlags: cpu.FlagsReserved | cpu.FlagsIF,
		CS:     cs,
		SS:     ss,
		State:  StateRunning,
		used:   true,
	}
	threadCount++

	return &threads[idx]
}

// Stop permanently deactivates the thread at slot idx.
func Stop(idx int) {
	setState(idx, StateStopped)
}

// Suspend marks the thread at slot idx as not eligible for selection.
func Suspend(idx int) {
	setState(idx, StateWaiting)
}

// Resume marks the thread at slot idx as eligible for selection.
func Resume(idx int) {
	setState(idx, StateRunning)
}

// setState applies a transition. Requests targeting stopped, unoccupied or
// out-of-range slots are ignored.
func setState(idx int, state State) {
	if idx < 0 || idx >= threadCount {
		return
	}

	if t := &threads[idx]; t.used && t.State != StateStopped {
		t.State = state
	}
}

// Current returns a copy of the context of the thread selected by the
// scheduler. The idle thread context is returned while no pool thread runs.
func Current() Thread {
	return *currentThread()
}

// CurrentIndex returns the slot of the thread selected by the scheduler or
// IdleIndex.
func CurrentIndex() int {
	return cursor
}

// Ticks returns the number of timer preemptions handled so far.
func Ticks() uint32 {
	return ticks
}

func currentThread() *Thread {
	if cursor == IdleIndex {
		return &idle
	}
	return &threads[cursor]
}

// Save copies the interrupted context from the snapshot into the descriptor
// of the current thread. It is a no-op while the idle thread runs. Save must
// only be called from the timer interrupt handler.
//
//go:nosplit
func Save(regs *gate.Registers) {
	if cursor == IdleIndex {
		return
	}

	t := &threads[cursor]
	t.EAX = regs.EAX
	t.EBX = regs.EBX
	t.ECX = regs.ECX
	t.EDX = regs.EDX
	t.ESI = regs.ESI
	t.EDI = regs.EDI
	t.EBP = regs.EBP
	t.EIP = regs.EIP
	t.CS = regs.CS
	t.EFlags = regs.EFlags
	t.ESP, t.SS = regs.InterruptedStack()
}

// Schedule selects the next runnable thread and switches to it. It must only
// be called from the timer interrupt handler and it never returns.
//
//go:nosplit
func Schedule() {
	ticks++
	cursor = nextRunnable(cursor)
	restoreThreadFn(currentThread())
}

// Start switches to the first pool thread or to the idle thread if the pool
// is empty. It never returns.
func Start() {
	cursor = IdleIndex
	if threadCount > 0 && threads[0].used {
		cursor = 0
	}

	kfmt.Printf("[sched] starting with %d thread(s)\n", threadCount)
	restoreThreadFn(currentThread())
}

// nextRunnable scans the pool cyclically starting right after from and
// returns the first running slot. The slot at from is checked last. If no
// slot is running it returns IdleIndex.
func nextRunnable(from int) int {
	start := from + 1
	if from == IdleIndex {
		start = 0
	}

	for i := 0; i < MaxThreads; i++ {
		idx := (start + i) % MaxThreads
		if t := &threads[idx]; t.used && t.State == StateRunning {
			return idx
		}
	}

	return IdleIndex
}

// idleLoop is the body of the idle thread.
//
//go:nosplit
func idleLoop() {
	for {
		cpu.WaitForInterrupt()
	}
}

// threadExit receives control when the entry point of a kernel thread
// returns. The slot is stopped and the thread idles until the next tick
// switches away from it for good.
//
//go:nosplit
func threadExit() {
	Stop(cursor)
	for {
		cpu.WaitForInterrupt()
	}
}
