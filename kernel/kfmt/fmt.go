// Package kfmt implements the kernel's allocation-free formatted output.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers.
const maxBufSize = 32

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numFmtBuf = []byte("012345678901234567890123456789012")

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// earlyPrintBuffer stores Printf output until an output sink is
	// attached.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer that receives Printf output. While nil,
	// output accumulates in earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and
// flushes any output accumulated in the early print buffer into it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the current target for calls to Printf.
func GetOutputSink() io.Writer {
	return outputSink
}

// Printf provides a minimal Printf implementation that is safe to call from
// interrupt context: it never allocates and never blocks.
//
// Supported verbs:
//
//	%s  string or byte slice
//	%c  a single byte
//	%t  "true" or "false"
//	%o  integer, base 8
//	%d  integer, base 10
//	%x  integer, base 16, lower-case digits
//	%X  integer, base 16, upper-case digits
//
// An optional decimal width may precede the verb. Strings and base-10
// integers are left-padded with spaces; base-8 and base-16 integers are
// left-padded with zeroes. Pointers (%p) are not supported since formatting
// them requires reflect.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		ch                   byte
		argIndex             int
		blockStart, blockEnd int
		width                int
		fmtLen               = len(format)
	)

	for blockEnd < fmtLen {
		if format[blockEnd] != '%' {
			blockEnd++
			continue
		}

		writeString(w, format[blockStart:blockEnd])

		width = 0
		blockEnd++
	parseVerb:
		for ; blockEnd < fmtLen; blockEnd++ {
			ch = format[blockEnd]
			switch {
			case ch == '%':
				writeByte(w, '%')
				break parseVerb
			case ch >= '0' && ch <= '9':
				width = (width * 10) + int(ch-'0')
				continue
			case isVerb(ch):
				if argIndex >= len(args) {
					doWrite(w, errMissingArg)
					break parseVerb
				}

				fmtArg(w, ch, args[argIndex], width)
				argIndex++
				break parseVerb
			}

			// reached end of formatting string without finding a verb
			doWrite(w, errNoVerb)
		}
		blockStart, blockEnd = blockEnd+1, blockEnd+1
	}

	if blockStart < fmtLen {
		writeString(w, format[blockStart:])
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func isVerb(ch byte) bool {
	switch ch {
	case 'd', 'x', 'X', 'o', 's', 't', 'c':
		return true
	}
	return false
}

func fmtArg(w io.Writer, verb byte, arg interface{}, width int) {
	switch verb {
	case 'o':
		fmtInt(w, arg, 8, width, false)
	case 'd':
		fmtInt(w, arg, 10, width, false)
	case 'x':
		fmtInt(w, arg, 16, width, false)
	case 'X':
		fmtInt(w, arg, 16, width, true)
	case 's':
		fmtString(w, arg, width)
	case 't':
		fmtBool(w, arg)
	case 'c':
		fmtChar(w, arg)
	}
}

// writeString emits s one byte at a time; slicing a string into a []byte
// would allocate.
func writeString(w io.Writer, s string) {
	for i := 0; i < len(s); i++ {
		writeByte(w, s[i])
	}
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

func fmtBool(w io.Writer, v interface{}) {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case bVal:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func fmtChar(w io.Writer, v interface{}) {
	switch ch := v.(type) {
	case byte:
		writeByte(w, ch)
	case rune:
		writeByte(w, byte(ch))
	default:
		doWrite(w, errWrongArgType)
	}
}

// fmtString prints a string or []byte value v, left-padded with spaces to
// width.
func fmtString(w io.Writer, v interface{}, width int) {
	switch castedVal := v.(type) {
	case string:
		fmtRepeat(w, ' ', width-len(castedVal))
		writeString(w, castedVal)
	case []byte:
		fmtRepeat(w, ' ', width-len(castedVal))
		doWrite(w, castedVal)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtRepeat(w io.Writer, ch byte, count int) {
	for i := 0; i < count; i++ {
		writeByte(w, ch)
	}
}

// fmtInt prints v in the requested base, applying the padding specified by
// width. All built-in signed and unsigned integer types are supported.
func fmtInt(w io.Writer, v interface{}, base, width int, upper bool) {
	var (
		sval             int64
		uval             uint64
		divider          = uint64(base)
		remainder        uint64
		padCh            byte = '0'
		digitA           byte = 'a'
		left, right, end int
	)

	if width >= maxBufSize {
		width = maxBufSize - 1
	}

	if base == 10 {
		padCh = ' '
	}

	if upper {
		digitA = 'A'
	}

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uintptr:
		uval = uint64(t)
	case uint:
		uval = uint64(t)
	case int8:
		sval = int64(t)
	case int16:
		sval = int64(t)
	case int32:
		sval = int64(t)
	case int64:
		sval = t
	case int:
		sval = int64(t)
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if sval < 0 {
		uval = uint64(-sval)
	} else if sval > 0 {
		uval = uint64(sval)
	}

	for right < maxBufSize {
		remainder = uval % divider
		if remainder < 10 {
			numFmtBuf[right] = byte(remainder) + '0'
		} else {
			numFmtBuf[right] = byte(remainder-10) + digitA
		}

		right++

		uval /= divider
		if uval == 0 {
			break
		}
	}

	for ; right-left < width; right++ {
		numFmtBuf[right] = padCh
	}

	// The sign replaces the leftmost pad space when there is one;
	// otherwise it is appended as an extra character.
	if sval < 0 {
		for end = right - 1; numFmtBuf[end] == ' '; end-- {
		}

		if end == right-1 {
			right++
		}

		numFmtBuf[end+1] = '-'
	}

	// Reverse in place
	end = right
	for right = right - 1; left < right; left, right = left+1, right-1 {
		numFmtBuf[left], numFmtBuf[right] = numFmtBuf[right], numFmtBuf[left]
	}

	doWrite(w, numFmtBuf[0:end])
}

// doWrite hides p from escape analysis. Without it the compiler flags p as
// escaping through the unknown io.Writer and every Printf call site starts
// allocating its argument slice, which is fatal inside an interrupt handler.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
