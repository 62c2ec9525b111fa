//go:build !386

package syscall

// invokeFn lets hosted tests route Invoke straight to Dispatch.
var invokeFn = Dispatch

// Invoke calls Dispatch directly in hosted builds.
func Invoke(num Number, arg uint32) uint32 {
	return invokeFn(num, arg)
}
