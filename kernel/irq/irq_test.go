package irq

import (
	"bytes"
	"strings"
	"testing"

	"github.com/KorobovMS/tornados/device/pic"
	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/gate"
	"github.com/KorobovMS/tornados/kernel/kfmt"
	"github.com/KorobovMS/tornados/kernel/sched"
	"github.com/KorobovMS/tornados/kernel/syscall"
)

type mockLine struct {
	serviced int
	log      *[]string
	name     string
}

func (m *mockLine) ServiceInterrupt() {
	m.serviced++
	if m.log != nil {
		*m.log = append(*m.log, m.name)
	}
}

func restoreMocks() {
	ackFn = pic.Acknowledge
	saveFn = sched.Save
	scheduleFn = sched.Schedule
	currentIndexFn = sched.CurrentIndex
	currentFn = sched.Current
	syscallFn = syscall.Handle
	panicFn = kfmt.Panic
	handleInterruptFn = gate.HandleInterrupt
	setUnhandledFn = gate.SetUnhandledHandler
	keyboardDev = nil
	serialDev = nil
}

func TestVectorBases(t *testing.T) {
	if MasterBase != 0x20 || SlaveBase != 0x28 {
		t.Fatalf("expected PIC bases 0x20/0x28; got 0x%x/0x%x", MasterBase, SlaveBase)
	}

	specs := []struct {
		line uint8
		exp  uint8
	}{
		{timerIRQ, 0},
		{keyboardIRQ, 1},
		{serialIRQ, 4},
	}

	for specIndex, spec := range specs {
		if spec.line != spec.exp {
			t.Errorf("[spec %d] expected IRQ line %d; got %d", specIndex, spec.exp, spec.line)
		}
	}
}

func TestInit(t *testing.T) {
	defer restoreMocks()

	type registration struct {
		dpl     cpu.PrivilegeLevel
		handler func(*gate.Registers)
	}

	var (
		registered = make(map[gate.InterruptNumber]registration)
		unhandled  func(*gate.Registers)
		kbd        = &mockLine{}
		uart       = &mockLine{}
	)

	handleInterruptFn = func(num gate.InterruptNumber, dpl cpu.PrivilegeLevel, handler func(*gate.Registers)) {
		registered[num] = registration{dpl, handler}
	}
	setUnhandledFn = func(handler func(*gate.Registers)) {
		unhandled = handler
	}

	Init(kbd, uart)

	specs := []struct {
		num gate.InterruptNumber
		dpl cpu.PrivilegeLevel
	}{
		{gate.Timer, cpu.Ring0},
		{gate.Keyboard, cpu.Ring0},
		{gate.Serial, cpu.Ring0},
		{gate.Syscall, cpu.Ring3},
	}

	if len(registered) != len(specs) {
		t.Fatalf("expected %d registered vectors; got %d", len(specs), len(registered))
	}

	for _, spec := range specs {
		reg, ok := registered[spec.num]
		if !ok {
			t.Errorf("expected a handler for vector 0x%x", uint8(spec.num))
			continue
		}

		if reg.dpl != spec.dpl {
			t.Errorf("expected vector 0x%x to be registered with DPL %d; got %d", uint8(spec.num), spec.dpl, reg.dpl)
		}

		if reg.handler == nil {
			t.Errorf("expected a non-nil handler for vector 0x%x", uint8(spec.num))
		}
	}

	if unhandled == nil {
		t.Fatal("expected an unhandled interrupt handler to be installed")
	}

	if keyboardDev != kbd || serialDev != uart {
		t.Fatal("expected Init to keep the supplied line devices")
	}
}

func TestTimerRouting(t *testing.T) {
	defer restoreMocks()

	var (
		calls []string
		saved *gate.Registers
		regs  = &gate.Registers{Vector: uint32(gate.Timer), CS: cpu.KernelCS}
	)

	saveFn = func(r *gate.Registers) {
		saved = r
		calls = append(calls, "save")
	}
	ackFn = func(irq uint8) {
		calls = append(calls, "ack"+string(rune('0'+irq)))
	}
	scheduleFn = func() {
		calls = append(calls, "schedule")
	}

	Init(nil, nil)
	gate.Dispatch(regs)

	if exp, got := "save,ack0,schedule", strings.Join(calls, ","); got != exp {
		t.Fatalf("expected call sequence %q; got %q", exp, got)
	}

	if saved != regs {
		t.Fatal("expected the snapshot to be passed to the scheduler unchanged")
	}
}

func TestLineRouting(t *testing.T) {
	defer restoreMocks()

	var (
		calls []string
		kbd   = &mockLine{log: &calls, name: "keyboard"}
		uart  = &mockLine{log: &calls, name: "serial"}
	)

	ackFn = func(irq uint8) {
		calls = append(calls, "ack"+string(rune('0'+irq)))
	}
	saveFn = func(_ *gate.Registers) {
		t.Fatal("unexpected call to save")
	}
	scheduleFn = func() {
		t.Fatal("unexpected call to schedule")
	}

	specs := []struct {
		kbd, uart LineDevice
		vector    gate.InterruptNumber
		exp       string
	}{
		{kbd, uart, gate.Keyboard, "keyboard,ack1"},
		{kbd, uart, gate.Serial, "serial,ack4"},
		{nil, nil, gate.Keyboard, "ack1"},
		{nil, nil, gate.Serial, "ack4"},
	}

	for specIndex, spec := range specs {
		calls = calls[:0]
		Init(spec.kbd, spec.uart)

		regs := &gate.Registers{Vector: uint32(spec.vector), EAX: 0xcafe, CS: cpu.UserCS}
		gate.Dispatch(regs)

		if got := strings.Join(calls, ","); got != spec.exp {
			t.Errorf("[spec %d] expected call sequence %q; got %q", specIndex, spec.exp, got)
		}

		if regs.EAX != 0xcafe {
			t.Errorf("[spec %d] expected the snapshot to be left untouched", specIndex)
		}
	}
}

func TestSyscallRouting(t *testing.T) {
	defer restoreMocks()

	var handled *gate.Registers

	ackFn = func(_ uint8) {
		t.Fatal("system calls must not acknowledge a PIC line")
	}
	syscallFn = func(r *gate.Registers) {
		handled = r
		r.EAX = 42
	}

	Init(nil, nil)

	regs := &gate.Registers{Vector: uint32(gate.Syscall), EAX: 0, CS: cpu.UserCS}
	gate.Dispatch(regs)

	if handled != regs {
		t.Fatal("expected the snapshot to be passed to the system call handler")
	}

	if regs.EAX != 42 {
		t.Fatalf("expected EAX to carry the system call result; got %d", regs.EAX)
	}
}

func TestUnhandledVector(t *testing.T) {
	defer func() {
		restoreMocks()
		kfmt.SetOutputSink(nil)
	}()

	var (
		buf      bytes.Buffer
		panicErr interface{}
	)

	kfmt.SetOutputSink(&buf)
	panicFn = func(e interface{}) {
		panicErr = e
	}
	currentIndexFn = func() int { return 3 }
	currentFn = func() sched.Thread {
		return sched.Thread{EIP: 0xc0ffee, CS: cpu.UserCS, SS: cpu.UserDS, State: sched.StateWaiting}
	}

	Init(nil, nil)
	buf.Reset()

	gate.Dispatch(&gate.Registers{
		Vector:    uint32(gate.GPFException),
		ErrorCode: 0x1b,
		EIP:       0x1234,
		CS:        cpu.UserCS,
		ESP:       0x8000,
		SS:        cpu.UserDS,
	})

	if panicErr != errUnhandledVector {
		t.Fatalf("expected panic with errUnhandledVector; got %v", panicErr)
	}

	out := buf.String()
	for _, exp := range []string{
		"unhandled interrupt 13 (error code 0x1b) in thread 3\n",
		"Interrupted registers:\n",
		"EIP = 00001234 EFL = 00000000 CS  = 0000001b SS  = 00000023\n",
		"Thread descriptor (waiting):\n",
		"EIP = 00c0ffee EFL = 00000000 CS  = 0000001b SS  = 00000023\n",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected output to contain %q; got:\n%s", exp, out)
		}
	}
}
