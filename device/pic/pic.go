// Package pic programs the pair of cascaded 8259 programmable interrupt
// controllers.
package pic

import "github.com/KorobovMS/tornados/kernel/cpu"

const (
	masterCmd  = 0x20
	masterData = 0x21
	slaveCmd   = 0xa0
	slaveData  = 0xa1

	cmdEOI = 0x20

	icw1ICW4 = 0x01
	icw1Init = 0x10
	icw4x86  = 0x01

	// The slave is wired to IRQ 2 of the master.
	cascadeIRQ = 2
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// Remap moves the master and slave controller vector ranges to masterBase and
// slaveBase. The current line masks are preserved.
func Remap(masterBase, slaveBase uint8) {
	masterMask := portReadByteFn(masterData)
	slaveMask := portReadByteFn(slaveData)

	portWriteByteFn(masterCmd, icw1Init|icw1ICW4)
	portWriteByteFn(slaveCmd, icw1Init|icw1ICW4)
	portWriteByteFn(masterData, masterBase)
	portWriteByteFn(slaveData, slaveBase)
	portWriteByteFn(masterData, 1<<cascadeIRQ)
	portWriteByteFn(slaveData, cascadeIRQ)
	portWriteByteFn(masterData, icw4x86)
	portWriteByteFn(slaveData, icw4x86)

	portWriteByteFn(masterData, masterMask)
	portWriteByteFn(slaveData, slaveMask)
}

// Mask sets the interrupt masks of both controllers. A set bit disables the
// corresponding IRQ line.
func Mask(master, slave uint8) {
	portWriteByteFn(masterData, master)
	portWriteByteFn(slaveData, slave)
}

// Acknowledge signals the end of interrupt for the specified IRQ line. Lines
// served by the slave controller need an EOI on both controllers.
func Acknowledge(irq uint8) {
	if irq >= 8 {
		portWriteByteFn(slaveCmd, cmdEOI)
	}
	portWriteByteFn(masterCmd, cmdEOI)
}
