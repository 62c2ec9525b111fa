//go:build !386

package sched

// Hosted builds cannot switch contexts; tests install their own
// restoreThreadFn.
func restoreThread(_ *Thread) {
	panic("sched: restoreThread called in a hosted build")
}
