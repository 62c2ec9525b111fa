package syscall

// Invoke raises the system call vector with num in EAX and arg in EBX and
// returns the value the handler left in EAX. It can be called from ring 3.
func Invoke(num Number, arg uint32) uint32
