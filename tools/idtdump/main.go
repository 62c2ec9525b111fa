// Command idtdump decodes a raw memory dump of the interrupt descriptor table
// (for example one produced by the QEMU monitor pmemsave command) and checks
// it against the layout that gate.Init and irq.Init install.
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/lunixbochs/struc"
	"github.com/mgutz/ansi"
	"github.com/pkg/errors"

	"github.com/KorobovMS/tornados/kernel/cpu"
	"github.com/KorobovMS/tornados/kernel/gate"
)

const numVectors = 256

var (
	problemStyle = ansi.ColorFunc("red+b")
	cleanStyle   = ansi.ColorFunc("green")
)

type options struct {
	verbose bool
	color   bool
}

// gateRecord is the in-memory layout of a 32-bit IDT gate.
type gateRecord struct {
	OffsetLow  uint16 `struc:"uint16,little"`
	Selector   uint16 `struc:"uint16,little"`
	Reserved   uint8  `struc:"uint8"`
	Attr       uint8  `struc:"uint8"`
	OffsetHigh uint16 `struc:"uint16,little"`
}

// Descriptor re-encodes the record in the format used by the gate package.
func (r *gateRecord) Descriptor() gate.Descriptor {
	offset := uintptr(r.OffsetHigh)<<16 | uintptr(r.OffsetLow)
	return gate.NewDescriptor(offset, r.Selector, r.Attr)
}

type problem struct {
	vector int
	reason string
}

// decode splits a raw dump into gate descriptors. The dump must hold exactly
// one table.
func decode(r io.Reader) ([]gate.Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read dump")
	}

	recSize, err := struc.Sizeof(&gateRecord{})
	if err != nil {
		return nil, errors.Wrap(err, "gate record size")
	}

	if len(data) != numVectors*recSize {
		return nil, errors.Errorf("dump is %d bytes, want %d (%d gates of %d bytes)", len(data), numVectors*recSize, numVectors, recSize)
	}

	var (
		table = make([]gate.Descriptor, 0, numVectors)
		in    = bytes.NewReader(data)
	)
	for vec := 0; vec < numVectors; vec++ {
		var rec gateRecord
		if err = struc.UnpackWithOrder(in, &rec, binary.LittleEndian); err != nil {
			return nil, errors.Wrapf(err, "decode gate %d", vec)
		}

		table = append(table, rec.Descriptor())
	}

	return table, nil
}

// expectedDPL returns the gate privilege level the kernel installs for vec.
func expectedDPL(vec int) cpu.PrivilegeLevel {
	if gate.InterruptNumber(vec) == gate.Syscall {
		return cpu.Ring3
	}
	return cpu.Ring0
}

// check validates every gate of the table and reports each defect of a
// present gate separately.
func check(table []gate.Descriptor) []problem {
	var problems []problem
	for vec, d := range table {
		if !d.Present() {
			problems = append(problems, problem{vec, "gate not present"})
			continue
		}

		if uint32(d.Selector()) != cpu.KernelCS {
			problems = append(problems, problem{vec, fmt.Sprintf("selector 0x%02x, want 0x%02x", d.Selector(), cpu.KernelCS)})
		}

		if d.Attr()&0x1f != gate.Attributes(cpu.Ring0)&0x1f {
			problems = append(problems, problem{vec, fmt.Sprintf("gate type 0x%x is not a 32-bit interrupt gate", d.Attr()&0x1f)})
		}

		if d.DPL() != expectedDPL(vec) {
			problems = append(problems, problem{vec, fmt.Sprintf("DPL %d, want %d", d.DPL(), expectedDPL(vec))})
		}

		if d.Offset() == 0 {
			problems = append(problems, problem{vec, "null handler offset"})
		}
	}

	return problems
}

func report(w io.Writer, table []gate.Descriptor, problems []problem, opts options) {
	style := func(f func(string) string, s string) string {
		if opts.color {
			return f(s)
		}
		return s
	}

	if opts.verbose {
		for vec, d := range table {
			fmt.Fprintf(w, "0x%02x offset=0x%08x sel=0x%02x attr=0x%02x dpl=%d present=%t\n",
				vec, d.Offset(), d.Selector(), d.Attr(), d.DPL(), d.Present())
		}
	}

	for _, p := range problems {
		fmt.Fprintf(w, "%s\n", style(problemStyle, fmt.Sprintf("vector 0x%02x: %s", p.vector, p.reason)))
	}

	summary := fmt.Sprintf("%d gates, %d problem(s)", len(table), len(problems))
	if len(problems) == 0 {
		summary = style(cleanStyle, summary)
	}
	fmt.Fprintf(w, "%s\n", summary)
}

func run(inFile string, opts options, w io.Writer) (int, error) {
	var in io.Reader = os.Stdin
	if inFile != "" && inFile != "-" {
		f, err := os.Open(inFile)
		if err != nil {
			return 0, errors.Wrapf(err, "open %s", inFile)
		}
		defer f.Close()
		in = f
	}

	table, err := decode(in)
	if err != nil {
		return 0, err
	}

	problems := check(table)
	report(w, table, problems, opts)
	return len(problems), nil
}

func main() {
	inFile := flag.String("in", "-", "raw IDT dump; - reads from stdin")
	verbose := flag.Bool("v", false, "print every decoded gate")
	color := flag.Bool("color", false, "highlight problems with ANSI colors")
	flag.Parse()

	count, err := run(*inFile, options{verbose: *verbose, color: *color}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[idtdump] error: %s\n", err.Error())
		os.Exit(1)
	}

	if count > 0 {
		os.Exit(2)
	}
}
