// Package gate builds the interrupt descriptor table and hosts the entry
// stubs that turn every interrupt, exception and software interrupt into a
// call to a Go handler with a uniform register snapshot.
package gate

import (
	"encoding/binary"
	"io"
	"unsafe"

	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

// Registers is the snapshot that the entry stubs leave on the stack when an
// interrupt occurs. Its field order is the reverse of the push order in
// commonEntry and must be kept in sync with it.
type Registers struct {
	EBP uint32
	EDI uint32
	ESI uint32
	EDX uint32
	ECX uint32
	EBX uint32
	EAX uint32

	// Vector is the interrupt number pushed by the entry stub.
	Vector uint32

	// ErrorCode is the CPU-supplied error code or 0 for vectors that do
	// not push one.
	ErrorCode uint32

	// The return frame used by IRETL. ESP and SS are only pushed by the
	// CPU when the interrupt crossed from ring 3 to ring 0.
	EIP    uint32
	CS     uint32
	EFlags uint32
	ESP    uint32
	SS     uint32
}

// RegisterBlockSize is the number of snapshot bytes that are always present:
// the general purpose registers, vector, error code and the EIP/CS/EFLAGS
// part of the return frame.
const RegisterBlockSize = uint32(unsafe.Offsetof(Registers{}.ESP))

// FromUserMode returns true if the interrupted code was running at ring 3.
func (r *Registers) FromUserMode() bool {
	return cpu.SelectorPrivilege(r.CS) == cpu.Ring3
}

// InterruptedStack returns the stack pointer and stack segment of the
// interrupted code. A ring 3 interrupt carries both in the return frame. A
// ring 0 interrupt runs on the interrupted stack, so its stack pointer is the
// address right past the return frame and its stack segment is the kernel
// data segment.
func (r *Registers) InterruptedStack() (esp, ss uint32) {
	if r.FromUserMode() {
		return r.ESP, r.SS
	}

	return uint32(uintptr(unsafe.Pointer(r))) + RegisterBlockSize, cpu.KernelDS
}

// DumpTo outputs the register contents to w.
func (r *Registers) DumpTo(w io.Writer) {
	esp, ss := r.InterruptedStack()
	kfmt.Fprintf(w, "EAX = %8x EBX = %8x ECX = %8x EDX = %8x\n", r.EAX, r.EBX, r.ECX, r.EDX)
	kfmt.Fprintf(w, "ESI = %8x EDI = %8x EBP = %8x ESP = %8x\n", r.ESI, r.EDI, r.EBP, esp)
	kfmt.Fprintf(w, "EIP = %8x EFL = %8x CS  = %8x SS  = %8x\n", r.EIP, r.EFlags, r.CS, ss)
}

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// NMI (non-maskable-interrupt) is a hardware interrupt that indicates
	// issues with RAM or unrecoverable hardware problems.
	NMI = InterruptNumber(2)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DoubleFault occurs when an exception occurs while the CPU is trying
	// to deliver another exception.
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when loading a segment or gate whose
	// present bit is clear.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when the stack segment limit checks fail.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs on a failed page translation.
	PageFaultException = InterruptNumber(14)

	// AlignmentCheck occurs when alignment checks are enabled and an
	// unaligned memory access is performed.
	AlignmentCheck = InterruptNumber(17)

	// ControlProtection occurs on a control-flow enforcement violation.
	ControlProtection = InterruptNumber(21)

	// Timer is the PIT line (IRQ 0) after the PIC has been remapped.
	Timer = InterruptNumber(0x20)

	// Keyboard is the PS/2 keyboard line (IRQ 1).
	Keyboard = InterruptNumber(0x21)

	// Serial is the COM1 line (IRQ 4).
	Serial = InterruptNumber(0x24)

	// Syscall is the software interrupt used for system calls.
	Syscall = InterruptNumber(0x80)
)

// HasErrorCode returns true if the CPU pushes an error code when delivering
// the specified vector.
func HasErrorCode(num InterruptNumber) bool {
	switch num {
	case DoubleFault, InvalidTSS, SegmentNotPresent, StackSegmentFault,
		GPFException, PageFaultException, AlignmentCheck, ControlProtection:
		return true
	}
	return false
}

// Descriptor is a 32-bit IDT gate: offset[15:0], the code segment selector,
// a reserved byte, the type/attribute byte and offset[31:16].
type Descriptor uint64

const (
	// gateInterrupt32 is the type of a 32-bit interrupt gate. Interrupt
	// gates clear IF on entry.
	gateInterrupt32 = 0xe

	// gatePresent marks a gate as present.
	gatePresent = 1 << 7
)

// Attributes returns the type/attribute byte for a present 32-bit interrupt
// gate that may be invoked from code running at dpl or a more privileged
// level.
func Attributes(dpl cpu.PrivilegeLevel) uint8 {
	return gatePresent | uint8(dpl&3)<<5 | gateInterrupt32
}

// NewDescriptor encodes a gate pointing at handler.
func NewDescriptor(handler uintptr, selector uint16, attr uint8) Descriptor {
	offset := uint64(handler)
	return Descriptor(offset&0xffff |
		uint64(selector)<<16 |
		uint64(attr)<<40 |
		(offset>>16&0xffff)<<48)
}

// Offset returns the handler address encoded in the gate.
func (d Descriptor) Offset() uintptr {
	return uintptr(d&0xffff | (d>>48&0xffff)<<16)
}

// Selector returns the code segment selector encoded in the gate.
func (d Descriptor) Selector() uint16 {
	return uint16(d >> 16)
}

// Attr returns the type/attribute byte of the gate.
func (d Descriptor) Attr() uint8 {
	return uint8(d >> 40)
}

// Present returns true if the present bit of the gate is set.
func (d Descriptor) Present() bool {
	return d.Attr()&gatePresent != 0
}

// DPL returns the most privileged level allowed to invoke the gate with an
// INT instruction.
func (d Descriptor) DPL() cpu.PrivilegeLevel {
	return cpu.PrivilegeLevel(d.Attr() >> 5 & 3)
}

const numVectors = 256

var (
	// idt is the table loaded into IDTR. It is only written while
	// interrupts are disabled.
	idt [numVectors]Descriptor

	// idtr holds the 16-bit limit and 32-bit base loaded by LIDT.
	idtr [6]byte

	// handlers holds the Go handler for each vector; nil vectors fall
	// through to unhandledFn.
	handlers [numVectors]func(*Registers)

	// unhandledFn receives every interrupt without a registered handler.
	unhandledFn = defaultUnhandled

	// kernelTLS is the GS selector installed by rt0. commonEntry reloads it
	// on every interrupt since IRET to ring 3 may have cleared GS.
	kernelTLS uint32

	loadIDTFn   = loadIDT
	entryAddrFn = entryAddr
	readGSFn    = readGS
	panicFn     = kfmt.Panic

	errUnhandledInterrupt = &kernel.Error{Module: "gate", Message: "unhandled interrupt"}
)

// Init points every vector at its entry stub and loads the table into the
// CPU. Vectors without a registered handler, including the reserved ones,
// end up in the unhandled interrupt path. Init must run with interrupts
// disabled and before anything has touched the GS value set up by rt0.
func Init() {
	kernelTLS = readGSFn()

	for vec := 0; vec < numVectors; vec++ {
		idt[vec] = NewDescriptor(entryAddrFn(uint8(vec)), uint16(cpu.KernelCS), Attributes(cpu.Ring0))
	}

	binary.LittleEndian.PutUint16(idtr[0:], uint16(unsafe.Sizeof(idt)-1))
	binary.LittleEndian.PutUint32(idtr[2:], uint32(uintptr(unsafe.Pointer(&idt[0]))))
	loadIDTFn(uintptr(unsafe.Pointer(&idtr[0])))
}

// HandleInterrupt registers handler for the specified vector and rewrites the
// vector's gate so that code running at dpl may raise it with INT. Calling it
// again for the same vector replaces the previous handler.
func HandleInterrupt(num InterruptNumber, dpl cpu.PrivilegeLevel, handler func(*Registers)) {
	handlers[num] = handler
	idt[num] = NewDescriptor(entryAddrFn(uint8(num)), uint16(cpu.KernelCS), Attributes(dpl))
}

// SetUnhandledHandler installs the function that receives interrupts for
// which no handler has been registered.
func SetUnhandledHandler(handler func(*Registers)) {
	unhandledFn = handler
}

// Dispatch routes a snapshot to the handler registered for its vector. It is
// called by commonEntry with the address of the snapshot it pushed. If the
// selected handler returns, commonEntry restores the (possibly modified)
// snapshot and returns to the interrupted code.
//
//go:nosplit
func Dispatch(regs *Registers) {
	if handler := handlers[uint8(regs.Vector)]; handler != nil {
		handler(regs)
		return
	}

	unhandledFn(regs)
}

func defaultUnhandled(regs *Registers) {
	kfmt.Printf("\n[gate] unhandled interrupt %d (error code 0x%x)\n", regs.Vector, regs.ErrorCode)
	regs.DumpTo(kfmt.GetOutputSink())
	panicFn(errUnhandledInterrupt)
}
