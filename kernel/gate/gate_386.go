package gate

//go:generate go run github.com/KorobovMS/tornados/tools/gentrampolines -out entries_386.s -decl entries_386.go

// loadIDT executes LIDT with the 6-byte pseudo-descriptor at idtrAddr.
func loadIDT(idtrAddr uintptr)

// entryAddr returns the address of the entry stub generated for vector.
func entryAddr(vector uint8) uintptr

// readGS returns the current GS selector.
func readGS() uint32

// commonEntry is the shared tail of the entry stubs. It is only reached by
// a jump from a stub and never called from Go.
func commonEntry()
