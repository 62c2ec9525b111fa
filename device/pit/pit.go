// Package pit programs channel 0 of the 8253/8254 programmable interval
// timer which drives the scheduler tick on IRQ 0.
package pit

import "github.com/KorobovMS/tornados/kernel/cpu"

const (
	// BaseFrequency is the input clock of the PIT in Hz.
	BaseFrequency = 1193182

	channel0Data = 0x40
	commandPort  = 0x43

	// Channel 0, lobyte/hibyte access, mode 3 (square wave), binary.
	cmdChannel0SquareWave = 0x36
)

var (
	portWriteByteFn = cpu.PortWriteByte
)

// Divisor returns the reload value that makes channel 0 fire closest to hz
// times per second. A reload value of 0 stands for 65536, the slowest rate.
func Divisor(hz uint32) uint16 {
	if hz == 0 || BaseFrequency/hz > 0xffff {
		return 0
	}

	if div := BaseFrequency / hz; div > 1 {
		return uint16(div)
	}
	return 1
}

// SetFrequency programs channel 0 to raise IRQ 0 hz times per second and
// returns the reload value used.
func SetFrequency(hz uint32) uint16 {
	div := Divisor(hz)

	portWriteByteFn(commandPort, cmdChannel0SquareWave)
	portWriteByteFn(channel0Data, uint8(div))
	portWriteByteFn(channel0Data, uint8(div>>8))

	return div
}
