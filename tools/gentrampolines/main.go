// Command gentrampolines generates the per-vector interrupt entry stubs for
// the gate package. Every stub normalizes the stack to the same shape (error
// code, vector) and jumps to the shared commonEntry body, so the register
// save order lives in exactly one place.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/pkg/errors"

	"github.com/KorobovMS/tornados/kernel/gate"
)

const numVectors = 256

var stubTemplate = template.Must(template.New("stubs").Parse(`// Code generated by gentrampolines; DO NOT EDIT.

#include "textflag.h"
{{range .Stubs}}
TEXT ·entry{{.Vector}}(SB),NOSPLIT,$0
{{- if not .HasErrorCode}}
	PUSHL $0
{{- end}}
	PUSHL ${{.Vector}}
	JMP ·commonEntry(SB)
{{end}}
{{- range .Stubs}}
DATA ·entryTable+{{.Offset}}(SB)/4, $·entry{{.Vector}}(SB)
{{- end}}
GLOBL ·entryTable(SB), RODATA, ${{.TableSize}}
`))

// declTemplate renders the Go declarations for the stubs. The linker needs a
// Go symbol to attach the argument maps of every assembly TEXT symbol to.
var declTemplate = template.Must(template.New("decls").Parse(`// Code generated by gentrampolines; DO NOT EDIT.

package gate

// Entry stubs installed in the IDT. They are reached through entryTable and
// never called from Go.
{{range .Stubs}}
func entry{{.Vector}}()
{{- end}}
`))

type stubFile struct {
	Stubs     []stub
	TableSize int
}

type stub struct {
	Vector       int
	Offset       int
	HasErrorCode bool
}

func stubs() []stub {
	list := make([]stub, numVectors)
	for vec := range list {
		list[vec] = stub{
			Vector:       vec,
			Offset:       vec * 4,
			HasErrorCode: gate.HasErrorCode(gate.InterruptNumber(vec)),
		}
	}
	return list
}

// generate renders the entry stubs for all vectors into w.
func generate(w io.Writer) error {
	return render(w, stubTemplate, "entry stubs")
}

// generateDecls renders the Go declarations of the entry stubs into w.
func generateDecls(w io.Writer) error {
	return render(w, declTemplate, "stub declarations")
}

func render(w io.Writer, tpl *template.Template, what string) error {
	var buf bytes.Buffer
	data := stubFile{Stubs: stubs(), TableSize: numVectors * 4}
	if err := tpl.Execute(&buf, data); err != nil {
		return errors.Wrapf(err, "render %s", what)
	}

	_, err := w.Write(buf.Bytes())
	return errors.Wrapf(err, "write %s", what)
}

// run writes the stubs to asmFile and their declarations to declFile. An
// empty or "-" file name selects stdout.
func run(asmFile, declFile string) error {
	if err := writeFile(asmFile, generate); err != nil {
		return err
	}

	return writeFile(declFile, generateDecls)
}

func writeFile(name string, gen func(io.Writer) error) error {
	if name == "" || name == "-" {
		return gen(os.Stdout)
	}

	f, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}

	if err = gen(f); err != nil {
		f.Close()
		return err
	}

	return errors.Wrapf(f.Close(), "close %s", name)
}

func main() {
	asmFile := flag.String("out", "-", "assembly output file; - writes to stdout")
	declFile := flag.String("decl", "-", "Go declarations output file; - writes to stdout")
	flag.Parse()

	if err := run(*asmFile, *declFile); err != nil {
		fmt.Fprintf(os.Stderr, "[gentrampolines] error: %s\n", err.Error())
		os.Exit(1)
	}
}
