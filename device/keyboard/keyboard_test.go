package keyboard

import (
	"bytes"
	"testing"

	"github.com/KorobovMS/tornados/kernel/cpu"
)

func drain(kb *Keyboard) []byte {
	var out []byte
	for {
		sc, ok := kb.ReadScancode()
		if !ok {
			return out
		}
		out = append(out, sc)
	}
}

func TestServiceInterrupt(t *testing.T) {
	defer func() {
		portReadByteFn = cpu.PortReadByte
	}()

	var next byte
	portReadByteFn = func(port uint16) uint8 {
		if port != dataPort {
			t.Fatalf("expected scancode to be read from port 0x%x; got 0x%x", dataPort, port)
		}
		next++
		return next
	}

	kb := NewKeyboard()
	if _, ok := kb.ReadScancode(); ok {
		t.Fatal("expected empty buffer")
	}

	for i := 0; i < 3; i++ {
		kb.ServiceInterrupt()
	}

	if got := drain(kb); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("expected scancodes [1 2 3]; got %v", got)
	}

	// The buffer keeps working after it has been emptied.
	kb.ServiceInterrupt()
	if sc, ok := kb.ReadScancode(); !ok || sc != 4 {
		t.Fatalf("expected scancode 4; got %d (ok: %t)", sc, ok)
	}
}

func TestServiceInterruptOverrun(t *testing.T) {
	defer func() {
		portReadByteFn = cpu.PortReadByte
	}()

	var next byte
	portReadByteFn = func(_ uint16) uint8 {
		next++
		return next
	}

	kb := NewKeyboard()
	for i := 0; i < bufferSize+5; i++ {
		kb.ServiceInterrupt()
	}

	got := drain(kb)
	if len(got) != bufferSize {
		t.Fatalf("expected %d buffered scancodes; got %d", bufferSize, len(got))
	}

	// The oldest five scancodes were overwritten.
	if got[0] != 6 || got[bufferSize-1] != bufferSize+5 {
		t.Fatalf("expected scancodes 6..%d; got %d..%d", bufferSize+5, got[0], got[bufferSize-1])
	}
}

func TestDriverInit(t *testing.T) {
	defer func() {
		portReadByteFn = cpu.PortReadByte
	}()

	specs := []struct {
		pending    int
		expFlushed string
	}{
		{0, "flushed 0 byte(s)\n"},
		{2, "flushed 2 byte(s)\n"},
		{100, "flushed 16 byte(s)\n"},
	}

	for specIndex, spec := range specs {
		pending := spec.pending
		portReadByteFn = func(port uint16) uint8 {
			switch port {
			case statusPort:
				if pending > 0 {
					return statusOutputFull
				}
				return 0
			default:
				pending--
				return 0xfa
			}
		}

		var buf bytes.Buffer
		kb := NewKeyboard()
		if err := kb.DriverInit(&buf); err != nil {
			t.Fatal(err)
		}

		if buf.String() != spec.expFlushed {
			t.Errorf("[spec %d] expected output %q; got %q", specIndex, spec.expFlushed, buf.String())
		}

		if _, ok := kb.ReadScancode(); ok {
			t.Errorf("[spec %d] expected flushed bytes not to be buffered", specIndex)
		}
	}
}

func TestProbe(t *testing.T) {
	drv := probeForKeyboard()
	if drv == nil {
		t.Fatal("expected probeForKeyboard to return a driver")
	}

	if drv.DriverName() == "" {
		t.Fatal("DriverName() returned an empty string")
	}

	if major, minor, patch := drv.DriverVersion(); major+minor+patch == 0 {
		t.Fatal("DriverVersion() returned an invalid version number")
	}
}
