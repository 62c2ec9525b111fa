package console

import (
	"io"

	"github.com/KorobovMS/tornados/kernel"
	"github.com/KorobovMS/tornados/kernel/kfmt"
)

const (
	// lastColor is the highest of the 16 colors available in text mode.
	lastColor = 15

	// Text is printed yellow on blue.
	textFg = 14
	textBg = 1

	// blankCell is a space on black, the contents of a cleared screen.
	blankCell = uint16(' ')

	// CRT controller registers used to hide the hardware cursor. Bit 5 of
	// the cursor start register turns the cursor off.
	crtcIndexPort   = 0x3d4
	crtcDataPort    = 0x3d5
	crtcCursorStart = 0x0a
	cursorDisable   = 0x20
)

// cell packs a character and its colors into a framebuffer word: the
// character in the low byte, the foreground in bits 8-11 and the background
// in bits 12-15.
func cell(ch byte, fg, bg uint8) uint16 {
	return uint16(bg&0xf)<<12 | uint16(fg&0xf)<<8 | uint16(ch)
}

// VgaTextConsole drives the color text mode framebuffer. Cells are addressed
// with 1-based coordinates; the top-left cell is (1, 1).
type VgaTextConsole struct {
	cols, rows uint32

	fbAddr uintptr
	fb     []uint16
}

// NewVgaTextConsole returns a console with the given size whose framebuffer
// lives at fbAddr. The framebuffer is not touched until DriverInit.
func NewVgaTextConsole(cols, rows uint32, fbAddr uintptr) *VgaTextConsole {
	return &VgaTextConsole{cols: cols, rows: rows, fbAddr: fbAddr}
}

// Dimensions returns the console width and height in characters.
func (cons *VgaTextConsole) Dimensions() (uint32, uint32) {
	return cons.cols, cons.rows
}

// DefaultColors returns the colors used for kernel text.
func (cons *VgaTextConsole) DefaultColors() (fg uint8, bg uint8) {
	return textFg, textBg
}

// offset returns the framebuffer index of the 1-based cell (x, y).
func (cons *VgaTextConsole) offset(x, y uint32) uint32 {
	return (y-1)*cons.cols + (x - 1)
}

// Clear blanks the whole screen.
func (cons *VgaTextConsole) Clear() {
	for i := range cons.fb {
		cons.fb[i] = blankCell
	}
}

// Fill blanks a rectangle using the given colors. The rectangle is clipped
// to the screen; a corner outside the screen is moved onto its edge.
func (cons *VgaTextConsole) Fill(x, y, width, height uint32, fg, bg uint8) {
	x = clamp(x, cons.cols)
	y = clamp(y, cons.rows)
	if room := cons.cols - x + 1; width > room {
		width = room
	}
	if room := cons.rows - y + 1; height > room {
		height = room
	}

	blank := cell(' ', fg, bg)
	for row := y; row < y+height; row++ {
		start := cons.offset(x, row)
		line := cons.fb[start : start+width]
		for i := range line {
			line[i] = blank
		}
	}
}

// clamp moves a 1-based coordinate into [1, limit].
func clamp(v, limit uint32) uint32 {
	switch {
	case v < 1:
		return 1
	case v > limit:
		return limit
	}
	return v
}

// Scroll moves the screen contents by the given number of lines. The lines
// uncovered by the move keep their old contents. Scrolling by more lines than
// the screen holds does nothing.
func (cons *VgaTextConsole) Scroll(dir ScrollDir, lines uint32) {
	if lines == 0 || lines > cons.rows {
		return
	}

	shift := lines * cons.cols
	switch dir {
	case ScrollDirUp:
		copy(cons.fb, cons.fb[shift:])
	case ScrollDirDown:
		copy(cons.fb[shift:], cons.fb[:uint32(len(cons.fb))-shift])
	}
}

// Write puts ch at (x, y). Writes outside the screen are ignored and colors
// outside the text mode palette fall back to the default colors.
func (cons *VgaTextConsole) Write(ch byte, fg, bg uint8, x, y uint32) {
	if x < 1 || x > cons.cols || y < 1 || y > cons.rows {
		return
	}

	if fg > lastColor {
		fg = textFg
	}
	if bg > lastColor {
		bg = textBg
	}

	cons.fb[cons.offset(x, y)] = cell(ch, fg, bg)
}

// DriverName returns the name of this driver.
func (cons *VgaTextConsole) DriverName() string {
	return "vga_text_console"
}

// DriverVersion returns the version of this driver.
func (cons *VgaTextConsole) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

// DriverInit maps the framebuffer, blanks the screen and hides the hardware
// cursor.
func (cons *VgaTextConsole) DriverInit(w io.Writer) *kernel.Error {
	cons.fb = framebufferFn(cons.fbAddr, int(cons.cols*cons.rows))
	cons.Clear()

	portWriteByteFn(crtcIndexPort, crtcCursorStart)
	portWriteByteFn(crtcDataPort, cursorDisable)

	kfmt.Fprintf(w, "framebuffer at 0x%x (%dx%d)\n", cons.fbAddr, cons.cols, cons.rows)
	return nil
}
