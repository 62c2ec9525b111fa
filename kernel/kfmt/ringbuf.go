package kfmt

import "io"

// ringBufferSize is large enough to hold the boot log emitted before the
// serial port and the console come up. It must be a power of 2.
const ringBufferSize = 4096

// ringBuffer keeps the most recent ringBufferSize bytes written to it; once
// full, each write discards the oldest byte.
type ringBuffer struct {
	buffer [ringBufferSize]byte

	// start is the index of the oldest buffered byte and count the number
	// of buffered bytes.
	start, count int
}

// Write appends p to the buffer, overwriting the oldest data when full.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[(rb.start+rb.count)&(ringBufferSize-1)] = b
		if rb.count == ringBufferSize {
			rb.start = (rb.start + 1) & (ringBufferSize - 1)
			continue
		}
		rb.count++
	}

	return len(p), nil
}

// Read drains up to len(p) buffered bytes into p. It returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (n int, err error) {
	if rb.count == 0 {
		return 0, io.EOF
	}

	for n < len(p) && rb.count > 0 {
		p[n] = rb.buffer[rb.start]
		rb.start = (rb.start + 1) & (ringBufferSize - 1)
		rb.count--
		n++
	}

	return n, nil
}
