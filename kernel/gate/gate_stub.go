//go:build !386

package gate

// Hosted builds have no entry stubs; tests install their own loadIDTFn and
// entryAddrFn.

func loadIDT(_ uintptr) {
	panic("gate: loadIDT called in a hosted build")
}

func entryAddr(vector uint8) uintptr {
	return 0
}

func readGS() uint32 {
	return 0
}
