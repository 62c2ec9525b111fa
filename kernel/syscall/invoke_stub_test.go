//go:build !386

package syscall

import "testing"

func TestInvoke(t *testing.T) {
	defer func() {
		invokeFn = Dispatch
	}()

	var gotNum Number
	var gotArg uint32
	invokeFn = func(num Number, arg uint32) uint32 {
		gotNum, gotArg = num, arg
		return 7
	}

	if res := Invoke(SysPutChar, 'a'); res != 7 || gotNum != SysPutChar || gotArg != 'a' {
		t.Fatalf("unexpected Invoke behavior: res=%d num=%d arg=%d", res, gotNum, gotArg)
	}
}
