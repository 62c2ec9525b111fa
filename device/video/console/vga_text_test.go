package console

import (
	"bytes"
	"testing"

	"github.com/KorobovMS/tornados/device"
	"github.com/KorobovMS/tornados/kernel/cpu"
)

func newTestConsole() (*VgaTextConsole, []uint16) {
	fb := make([]uint16, 80*25)
	cons := NewVgaTextConsole(80, 25, vgaTextFramebuffer)
	cons.fb = fb
	return cons, fb
}

func TestVgaTextDimensions(t *testing.T) {
	var cons Device = NewVgaTextConsole(40, 50, 0)
	if w, h := cons.Dimensions(); w != 40 || h != 50 {
		t.Fatalf("expected console dimensions to be 40x50; got %dx%d", w, h)
	}
}

func TestVgaTextDefaultColors(t *testing.T) {
	cons := NewVgaTextConsole(80, 25, 0)
	if fg, bg := cons.DefaultColors(); fg != 14 || bg != 1 {
		t.Fatalf("expected console default colors to be fg:14, bg:1; got fg:%d, bg: %d", fg, bg)
	}
}

func TestVgaTextFill(t *testing.T) {
	specs := []struct {
		// Input rect
		x, y, w, h uint32

		// Expected area to be cleared
		expStartX, expStartY, expEndX, expEndY uint32
	}{
		{
			0, 0, 500, 500,
			1, 1, 80, 25,
		},
		{
			10, 10, 11, 50,
			10, 10, 20, 25,
		},
		{
			10, 10, 110, 1,
			10, 10, 80, 10,
		},
		{
			90, 25, 20, 20,
			80, 25, 80, 25,
		},
		{
			12, 12, 5, 6,
			12, 12, 16, 17,
		},
		{
			80, 25, 1, 1,
			80, 25, 80, 25,
		},
	}

	cons, fb := newTestConsole()
	cw, ch := cons.Dimensions()

	testPat := uint16(0xDEAD)
	clearPat := blankCell

nextSpec:
	for specIndex, spec := range specs {
		for i := 0; i < len(fb); i++ {
			fb[i] = testPat
		}

		cons.Fill(spec.x, spec.y, spec.w, spec.h, 0, 0)

		var x, y uint32
		for y = 1; y <= ch; y++ {
			for x = 1; x <= cw; x++ {
				fbVal := fb[((y-1)*cw)+(x-1)]

				if x < spec.expStartX || y < spec.expStartY || x > spec.expEndX || y > spec.expEndY {
					if fbVal != testPat {
						t.Errorf("[spec %d] expected char at (%d, %d) not to be cleared", specIndex, x, y)
						continue nextSpec
					}
				} else {
					if fbVal != clearPat {
						t.Errorf("[spec %d] expected char at (%d, %d) to be cleared", specIndex, x, y)
						continue nextSpec
					}
				}
			}
		}
	}
}

func TestVgaTextFillColors(t *testing.T) {
	cons, fb := newTestConsole()

	cons.Fill(2, 3, 2, 1, 14, 1)

	exp := uint16(0x1e20)
	for _, x := range []uint32{2, 3} {
		if got := fb[2*80+x-1]; got != exp {
			t.Errorf("expected cell (%d, 3) to be 0x%x; got 0x%x", x, exp, got)
		}
	}

	if fb[2*80+3] != 0 {
		t.Error("expected the cell right of the rectangle to be left alone")
	}
}

func TestVgaTextClear(t *testing.T) {
	cons, fb := newTestConsole()
	for i := range fb {
		fb[i] = 0x1e41
	}

	cons.Clear()

	for i, v := range fb {
		if v != blankCell {
			t.Fatalf("expected cell %d to be blank; got 0x%x", i, v)
		}
	}
}

func TestVgaTextScroll(t *testing.T) {
	cons, fb := newTestConsole()
	cw, ch := cons.Dimensions()

	fillPattern := func() {
		var x, y, index uint32
		for y = 0; y < ch; y++ {
			for x = 0; x < cw; x++ {
				fb[index] = uint16((y << 8) | x)
				index++
			}
		}
	}

	t.Run("up", func(t *testing.T) {
	nextSpec:
		for specIndex, lines := range []uint32{0, 1, 2} {
			fillPattern()
			cons.Scroll(ScrollDirUp, lines)

			var x, y, index uint32
			for y = 0; y < ch-lines; y++ {
				for x = 0; x < cw; x++ {
					expVal := uint16(((y + lines) << 8) | x)
					if fb[index] != expVal {
						t.Errorf("[spec %d] expected value at (%d, %d) to be %d; got %d", specIndex, x, y, expVal, fb[index])
						continue nextSpec
					}
					index++
				}
			}
		}
	})

	t.Run("down", func(t *testing.T) {
	nextSpec:
		for specIndex, lines := range []uint32{0, 1, 2} {
			fillPattern()
			cons.Scroll(ScrollDirDown, lines)

			var x, y uint32
			index := lines * cw
			for y = lines; y < ch-lines; y++ {
				for x = 0; x < cw; x++ {
					expVal := uint16(((y - lines) << 8) | x)
					if fb[index] != expVal {
						t.Errorf("[spec %d] expected value at (%d, %d) to be %d; got %d", specIndex, x, y, expVal, fb[index])
						continue nextSpec
					}
					index++
				}
			}
		}
	})

	t.Run("too many lines", func(t *testing.T) {
		fillPattern()
		cons.Scroll(ScrollDirUp, ch+1)
		if fb[0] != 0 || fb[cw] != 1<<8 {
			t.Fatal("expected scrolling by more lines than the console height to be a no-op")
		}
	})
}

func TestVgaTextWrite(t *testing.T) {
	cons, fb := newTestConsole()
	defaultFg, defaultBg := cons.DefaultColors()

	resetFb := func() {
		for i := 0; i < len(fb); i++ {
			fb[i] = 0
		}
	}

	t.Run("off-screen", func(t *testing.T) {
		specs := []struct {
			x, y uint32
		}{
			{0, 1},
			{1, 0},
			{81, 26},
			{90, 24},
			{79, 30},
		}

	nextSpec:
		for specIndex, spec := range specs {
			resetFb()
			cons.Write('!', 1, 2, spec.x, spec.y)

			for i := 0; i < len(fb); i++ {
				if got := fb[i]; got != 0 {
					t.Errorf("[spec %d] expected Write() with off-screen coords to be a no-op", specIndex)
					continue nextSpec
				}
			}
		}
	})

	specs := []struct {
		descr      string
		fg, bg     uint8
		expFg      uint8
		expBg      uint8
		x, y       uint32
		expFbIndex int
	}{
		{"success", 1, 2, 1, 2, 1, 1, 0},
		{"last cell", 15, 15, 15, 15, 80, 25, 80*25 - 1},
		{"fg out of range", 128, 2, defaultFg, 2, 3, 2, 82},
		{"bg out of range", 8, 255, 8, defaultBg, 1, 1, 0},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			resetFb()
			cons.Write('!', spec.fg, spec.bg, spec.x, spec.y)

			expVal := ((uint16(spec.expBg)<<4)|uint16(spec.expFg))<<8 | uint16('!')
			if got := fb[spec.expFbIndex]; got != expVal {
				t.Errorf("expected call to Write() to set fb[%d] to 0x%x; got 0x%x", spec.expFbIndex, expVal, got)
			}
		})
	}
}

func TestVgaTextDriverInterface(t *testing.T) {
	defer func(origFb func(uintptr, int) []uint16) {
		framebufferFn = origFb
		portWriteByteFn = cpu.PortWriteByte
	}(framebufferFn)

	var (
		fb         = make([]uint16, 80*25)
		mappedAddr uintptr
		portWrites [][2]uint16
	)

	framebufferFn = func(addr uintptr, count int) []uint16 {
		mappedAddr = addr
		return fb[:count]
	}
	portWriteByteFn = func(port uint16, val uint8) {
		portWrites = append(portWrites, [2]uint16{port, uint16(val)})
	}

	cons := NewVgaTextConsole(80, 25, vgaTextFramebuffer)
	var dev device.Driver = cons

	if dev.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := dev.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}

	var buf bytes.Buffer
	if err := dev.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	if mappedAddr != vgaTextFramebuffer {
		t.Fatalf("expected framebuffer at 0x%x; got 0x%x", vgaTextFramebuffer, mappedAddr)
	}

	for i, v := range fb {
		if v != blankCell {
			t.Fatalf("expected cell %d to be blanked to 0x%x; got 0x%x", i, blankCell, v)
		}
	}

	expWrites := [][2]uint16{{0x3d4, 0x0a}, {0x3d5, 0x20}}
	if len(portWrites) != len(expWrites) || portWrites[0] != expWrites[0] || portWrites[1] != expWrites[1] {
		t.Fatalf("expected port writes %v; got %v", expWrites, portWrites)
	}

	if exp := "framebuffer at 0xb8000 (80x25)\n"; buf.String() != exp {
		t.Fatalf("expected init output %q; got %q", exp, buf.String())
	}
}

func TestVgaTextProbe(t *testing.T) {
	drv := probeForVgaTextConsole()
	if drv == nil {
		t.Fatal("expected probeForVgaTextConsole to return a driver")
	}

	if w, h := drv.(Device).Dimensions(); w != 80 || h != 25 {
		t.Fatalf("expected probed console to be 80x25; got %dx%d", w, h)
	}

	var registered bool
	for _, info := range device.DriverList() {
		if info.Order == device.DetectOrderConsole {
			registered = true
		}
	}

	if !registered {
		t.Fatal("expected the console driver to register itself")
	}
}
