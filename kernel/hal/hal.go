// Package hal probes for the devices the kernel drives and keeps track of the
// active instance of each device class.
package hal

import (
	"bytes"
	"sort"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/device/keyboard"
	"github.com/KorobovMS/tornados/device/serial"
	"github.com/KorobovMS/tornados/device/tty"
	"github.com/KorobovMS/tornados/device/video/console"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	activeConsole  console.Device
	activeTTY      tty.Device
	activeSerial   *serial.Port
	activeKeyboard *keyboard.Keyboard

	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var (
	devices managedDevices
	strBuf  bytes.Buffer

	// sink fans kfmt output out to the serial port and the active TTY.
	sink logSink
)

// ActiveTTY returns the currently active TTY
func ActiveTTY() tty.Device {
	return devices.activeTTY
}

// SerialPort returns the initialized serial port or nil if none was found.
func SerialPort() *serial.Port {
	return devices.activeSerial
}

// Keyboard returns the initialized keyboard or nil if none was found.
func Keyboard() *keyboard.Keyboard {
	return devices.activeKeyboard
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers.
func DetectHardware() {
	// Get driver list and sort by detection priority
	drivers := device.DriverList()
	sort.Sort(drivers)

	probe(drivers)
}

// probe executes the probe function for each driver and invokes
// onDriverInit for each successfully initialized driver.
func probe(driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		strBuf.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&strBuf, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.Prefix = strBuf.Bytes()

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		devices.activeDrivers = append(devices.activeDrivers, drv)

		// The first successful probe may have attached a log sink.
		w.Sink = kfmt.GetOutputSink()
	}
}

// onDriverInit is invoked by probe() whenever a piece of hardware is detected
// and successfully initialized.
func onDriverInit(drv device.Driver) {
	switch drvImpl := drv.(type) {
	case *serial.Port:
		if devices.activeSerial != nil {
			return
		}

		devices.activeSerial = drvImpl
		kfmt.SetOutputSink(&sink)
	case *keyboard.Keyboard:
		if devices.activeKeyboard == nil {
			devices.activeKeyboard = drvImpl
		}
	case console.Device:
		if devices.activeConsole != nil {
			return
		}

		devices.activeConsole = drvImpl
		if devices.activeTTY != nil {
			linkTTYToConsole()
		}
	case tty.Device:
		if devices.activeTTY != nil {
			return
		}

		devices.activeTTY = drvImpl
		if devices.activeConsole != nil {
			linkTTYToConsole()
		}
	}
}

// linkTTYToConsole connects the active TTY device to the active console device
// and syncs their contents.
func linkTTYToConsole() {
	devices.activeTTY.AttachTo(devices.activeConsole)
	kfmt.SetOutputSink(&sink)

	// Sync terminal contents with console
	devices.activeTTY.SetState(tty.StateActive)
}

// logSink is an io.Writer that copies its input to the active serial port
// and the active TTY, whichever of them are available.
type logSink struct{}

// Write implements io.Writer.
func (logSink) Write(p []byte) (int, error) {
	if devices.activeSerial != nil {
		devices.activeSerial.Write(p)
	}

	if devices.activeTTY != nil && devices.activeTTY.State() == tty.StateActive {
		devices.activeTTY.Write(p)
	}

	return len(p), nil
}
