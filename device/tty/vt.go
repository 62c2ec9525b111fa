package tty

import (
	"io"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/device/video/console"
	"github.com/KorobovMS/tornados/kernel"
)

// VT is a terminal with scrollback that renders onto a console device. It
// interprets \r, \n, \b and \t (expanded to tabWidth spaces); every other
// byte is printed as is.
type VT struct {
	cons console.Device

	termWidth      uint32
	termHeight     uint32
	viewportWidth  uint32
	viewportHeight uint32

	// scrollback is the number of lines kept above the viewport.
	scrollback uint32

	// Cell contents; each cell takes 3 bytes: char, fg, bg.
	data []uint8

	tabWidth         uint8
	defaultFg, curFg uint8
	defaultBg, curBg uint8
	cursorX          uint32
	cursorY          uint32
	viewportY        uint32
	dataOffset       uint
	state            State
}

// NewVT creates a new terminal. The buffer backing it is allocated when it
// is attached to a console.
func NewVT(tabWidth uint8, scrollback uint32) *VT {
	return &VT{
		tabWidth:   tabWidth,
		scrollback: scrollback,
		cursorX:    1,
		cursorY:    1,
	}
}

// AttachTo connects the terminal to cons and resets its contents using the
// console dimensions and default colors.
func (t *VT) AttachTo(cons console.Device) {
	if cons == nil {
		return
	}

	t.cons = cons
	t.viewportWidth, t.viewportHeight = cons.Dimensions()
	t.viewportY = 0
	t.defaultFg, t.defaultBg = cons.DefaultColors()
	t.curFg, t.curBg = t.defaultFg, t.defaultBg
	t.termWidth, t.termHeight = t.viewportWidth, t.viewportHeight+t.scrollback
	t.cursorX, t.cursorY = 1, 1
	t.dataOffset = 0

	t.data = make([]uint8, t.termWidth*t.termHeight*3)
	for i := 0; i < len(t.data); i += 3 {
		t.data[i] = ' '
		t.data[i+1] = t.defaultFg
		t.data[i+2] = t.defaultBg
	}
}

// State returns the TTY's state.
func (t *VT) State() State {
	return t.state
}

// SetState updates the TTY's state. Activating the terminal copies the
// visible part of its buffer to the console.
func (t *VT) SetState(newState State) {
	if t.state == newState {
		return
	}

	t.state = newState
	if t.state != StateActive || t.cons == nil {
		return
	}

	for y := uint32(1); y <= t.viewportHeight; y++ {
		offset := (y - 1 + t.viewportY) * (t.viewportWidth * 3)
		for x := uint32(1); x <= t.viewportWidth; x, offset = x+1, offset+3 {
			t.cons.Write(t.data[offset], t.data[offset+1], t.data[offset+2], x, y)
		}
	}
}

// CursorPosition returns the current cursor position.
func (t *VT) CursorPosition() (uint32, uint32) {
	return t.cursorX, t.cursorY
}

// SetCursorPosition sets the current cursor position to (x,y).
func (t *VT) SetCursorPosition(x, y uint32) {
	if t.cons == nil {
		return
	}

	t.cursorX, t.cursorY = clip(x, t.viewportWidth), clip(y, t.viewportHeight)
	t.updateDataOffset()
}

func clip(v, max uint32) uint32 {
	switch {
	case v < 1:
		return 1
	case v > max:
		return max
	}
	return v
}

// Write implements io.Writer.
func (t *VT) Write(data []byte) (int, error) {
	for count, b := range data {
		if err := t.WriteByte(b); err != nil {
			return count, err
		}
	}

	return len(data), nil
}

// WriteByte implements io.ByteWriter.
func (t *VT) WriteByte(b byte) error {
	if t.cons == nil {
		return io.ErrClosedPipe
	}

	switch b {
	case '\r':
		t.cursorX = 1
		t.updateDataOffset()
	case '\n':
		t.lineFeed()
	case '\b':
		if t.cursorX > 1 {
			t.SetCursorPosition(t.cursorX-1, t.cursorY)
			t.put(' ', false)
		}
	case '\t':
		for i := uint8(0); i < t.tabWidth; i++ {
			t.put(' ', true)
		}
	default:
		t.put(b, true)
	}

	return nil
}

// put stores b with the current colors at the cursor, mirrors it to the
// console while the terminal is active and optionally advances the cursor,
// wrapping at the end of the line.
func (t *VT) put(b byte, advance bool) {
	if t.state == StateActive {
		t.cons.Write(b, t.curFg, t.curBg, t.cursorX, t.cursorY)
	}

	t.data[t.dataOffset] = b
	t.data[t.dataOffset+1] = t.curFg
	t.data[t.dataOffset+2] = t.curBg

	if !advance {
		return
	}

	t.dataOffset += 3
	t.cursorX++
	if t.cursorX > t.viewportWidth {
		t.lineFeed()
	}
}

// lineFeed moves the cursor to the start of the next line. At the bottom of
// the viewport the viewport slides down into the scrollback area; once the
// buffer is exhausted its contents are shifted up by one line.
func (t *VT) lineFeed() {
	t.cursorX = 1

	if t.cursorY < t.viewportHeight {
		t.cursorY++
		t.updateDataOffset()
		return
	}

	if t.viewportY+t.viewportHeight < t.termHeight {
		t.viewportY++
	} else {
		stride := int(t.viewportWidth * 3)
		start := int(t.viewportY) * stride
		end := int(t.viewportY+t.viewportHeight-1) * stride

		copy(t.data[start:end], t.data[start+stride:end+stride])
		for offset := end; offset < end+stride; offset += 3 {
			t.data[offset] = ' '
			t.data[offset+1] = t.defaultFg
			t.data[offset+2] = t.defaultBg
		}
	}

	if t.state == StateActive {
		t.cons.Scroll(console.ScrollDirUp, 1)
		t.cons.Fill(1, t.cursorY, t.termWidth, 1, t.defaultFg, t.defaultBg)
	}

	t.updateDataOffset()
}

// updateDataOffset points dataOffset at the buffer cell under the cursor.
func (t *VT) updateDataOffset() {
	t.dataOffset = uint((t.viewportY+(t.cursorY-1))*(t.viewportWidth*3) + ((t.cursorX - 1) * 3))
}

// DriverName returns the name of this driver.
func (t *VT) DriverName() string {
	return "vt"
}

// DriverVersion returns the version of this driver.
func (t *VT) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit initializes this driver.
func (t *VT) DriverInit(_ io.Writer) *kernel.Error { return nil }

func probeForVT() device.Driver {
	return NewVT(DefaultTabWidth, DefaultScrollback)
}

func init() {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderTTY,
		Probe: probeForVT,
	})
}
