// Package serial drives a 16550 compatible UART. It is the earliest output
// device available to the kernel and the source of serial line interrupts.
package serial

import (
	"io"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

// COM1 is the I/O base of the first serial port.
const COM1 uint16 = 0x3f8

// Register offsets from the port base. With DLAB set in the line control
// register the first two registers hold the baud rate divisor.
const (
	regData    = 0
	regIER     = 1
	regDivLo   = 0
	regDivHi   = 1
	regFIFO    = 2
	regLineCtl = 3
	regModem   = 4
	regLineSts = 5
)

const (
	lineCtlDLAB = 0x80
	lineCtl8N1  = 0x03

	// Enable and clear both FIFOs with a 14 byte trigger level.
	fifoEnable = 0xc7

	modemDTR      = 0x01
	modemRTS      = 0x02
	modemOut1     = 0x04
	modemOut2     = 0x08
	modemLoopback = 0x10

	lineStsDataReady = 0x01
	lineStsTxEmpty   = 0x20

	ierDataAvailable = 0x01

	selfTestByte = 0xae
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte

	errSelfTest = &kernel.Error{Module: "serial", Message: "loopback self-test failed"}
)

// Port is a 16550 UART configured for 115200 baud, 8N1.
type Port struct {
	base uint16

	// echo receives every byte read by ServiceInterrupt.
	echo io.ByteWriter

	received uint32
}

// NewPort returns a driver for the UART at the supplied I/O base.
func NewPort(base uint16) *Port {
	return &Port{base: base}
}

// SetEcho sets the writer that receives the bytes read from the line.
func (p *Port) SetEcho(w io.ByteWriter) {
	p.echo = w
}

// Received returns the number of bytes read from the line so far.
func (p *Port) Received() uint32 {
	return p.received
}

// WriteByte implements io.ByteWriter. It busy-waits until the transmit
// holding register is empty.
func (p *Port) WriteByte(b byte) error {
	for portReadByteFn(p.base+regLineSts)&lineStsTxEmpty == 0 {
	}

	portWriteByteFn(p.base+regData, b)
	return nil
}

// Write implements io.Writer.
func (p *Port) Write(data []byte) (int, error) {
	for _, b := range data {
		p.WriteByte(b)
	}

	return len(data), nil
}

// ServiceInterrupt drains the receive buffer, forwarding each byte to the
// echo writer. It is invoked by the serial line interrupt handler.
func (p *Port) ServiceInterrupt() {
	for portReadByteFn(p.base+regLineSts)&lineStsDataReady != 0 {
		b := portReadByteFn(p.base + regData)
		p.received++

		if p.echo != nil {
			p.echo.WriteByte(b)
		}
	}
}

// DriverName returns the name of this driver.
func (p *Port) DriverName() string {
	return "uart16550"
}

// DriverVersion returns the version of this driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit programs the UART, verifies it by sending a byte through the
// loopback path and finally enables the receive interrupt.
func (p *Port) DriverInit(w io.Writer) *kernel.Error {
	portWriteByteFn(p.base+regIER, 0)
	portWriteByteFn(p.base+regLineCtl, lineCtlDLAB)
	portWriteByteFn(p.base+regDivLo, 1)
	portWriteByteFn(p.base+regDivHi, 0)
	portWriteByteFn(p.base+regLineCtl, lineCtl8N1)
	portWriteByteFn(p.base+regFIFO, fifoEnable)
	portWriteByteFn(p.base+regModem, modemDTR|modemRTS|modemOut2)

	portWriteByteFn(p.base+regModem, modemRTS|modemOut1|modemOut2|modemLoopback)
	portWriteByteFn(p.base+regData, selfTestByte)
	if got := portReadByteFn(p.base + regData); got != selfTestByte {
		kfmt.Fprintf(w, "loopback returned 0x%x\n", got)
		return errSelfTest
	}

	// Normal operation; OUT2 gates the interrupt line.
	portWriteByteFn(p.base+regModem, modemDTR|modemRTS|modemOut1|modemOut2)
	portWriteByteFn(p.base+regIER, ierDataAvailable)

	kfmt.Fprintf(w, "port 0x%x, 115200 baud\n", p.base)
	return nil
}

func probeForCOM1() device.Driver {
	return NewPort(COM1)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderEarly,
		Probe: probeForCOM1,
	})
}
