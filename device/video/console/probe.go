package console

import (
	"unsafe"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/kernel/cpu"
)

const (
	// The text mode framebuffer set up by the BIOS for mode 0x3.
	vgaTextFramebuffer = 0xb8000
	vgaTextColumns     = 80
	vgaTextRows        = 25
)

var (
	portWriteByteFn = cpu.PortWriteByte

	// framebufferFn returns a slice of count uint16 cells overlaying the
	// memory at addr. Memory is identity mapped so no page mapping is
	// required.
	framebufferFn = func(addr uintptr, count int) []uint16 {
		return unsafe.Slice((*uint16)(unsafe.Pointer(addr)), count)
	}
)

// probeForVgaTextConsole returns a driver for the BIOS text mode console. A
// multiboot loader that leaves the machine in text mode always provides one.
func probeForVgaTextConsole() device.Driver {
	return NewVgaTextConsole(vgaTextColumns, vgaTextRows, vgaTextFramebuffer)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderConsole,
		Probe: probeForVgaTextConsole,
	})
}
