package kfmt

import "io"

// PrefixWriter wraps another io.Writer and starts every line written to it
// with Prefix. Drivers use it to tag their init output, e.g. "[hal] uart: ".
type PrefixWriter struct {
	// Sink receives the prefixed output.
	Sink io.Writer

	// Prefix is injected at the beginning of each line.
	Prefix []byte

	midLine bool
}

// Write writes p to the sink, injecting the prefix after every newline that
// is followed by more data. The returned count excludes injected prefixes.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var (
		written    int
		lineStart  int
		n          int
		err        error
		lastByteAt = len(p) - 1
	)

	for i, b := range p {
		if !w.midLine {
			w.Sink.Write(w.Prefix)
			w.midLine = true
		}

		if b != '\n' && i != lastByteAt {
			continue
		}

		n, err = w.Sink.Write(p[lineStart : i+1])
		written += n
		if err != nil {
			return written, err
		}

		lineStart = i + 1
		w.midLine = b != '\n'
	}

	return written, nil
}
