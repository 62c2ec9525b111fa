// Package cpu exposes the handful of privileged x86 instructions the kernel
// needs together with the segment selectors and EFLAGS bits laid out by the
// boot code.
package cpu

// Segment selectors installed by the boot GDT. The low two bits of a
// selector hold its requested privilege level.
const (
	KernelCS uint32 = 0x08
	KernelDS uint32 = 0x10
	UserCS   uint32 = 0x18 | uint32(Ring3)
	UserDS   uint32 = 0x20 | uint32(Ring3)
)

// PrivilegeLevel is an x86 protection ring.
type PrivilegeLevel uint8

const (
	// Ring0 is the kernel privilege level.
	Ring0 PrivilegeLevel = 0

	// Ring3 is the user privilege level.
	Ring3 PrivilegeLevel = 3
)

// SelectorPrivilege returns the requested privilege level encoded in a
// segment selector.
func SelectorPrivilege(sel uint32) PrivilegeLevel {
	return PrivilegeLevel(sel & 3)
}

// EFLAGS bits.
const (
	// FlagsReserved is bit 1 of EFLAGS which always reads as 1.
	FlagsReserved uint32 = 1 << 1

	// FlagsIF enables maskable hardware interrupts.
	FlagsIF uint32 = 1 << 9
)
