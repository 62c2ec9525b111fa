//go:build !386

package cpu

// Hosted builds (tests and tools) never execute privileged instructions;
// packages that need them swap these out through their own func variables.

// DisableInterrupts is a no-op outside the kernel image.
func DisableInterrupts() {}

// Halt panics outside the kernel image.
func Halt() {
	panic("cpu: Halt called in a hosted build")
}

// WaitForInterrupt is a no-op outside the kernel image.
func WaitForInterrupt() {}

// PortWriteByte is a no-op outside the kernel image.
func PortWriteByte(_ uint16, _ uint8) {}

// PortReadByte reads 0xff (a floating bus) outside the kernel image.
func PortReadByte(_ uint16) uint8 {
	return 0xff
}
