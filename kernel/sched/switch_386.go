package sched

// restoreThread loads the context of t into the CPU and resumes it with an
// IRETL. Ring 3 threads get a five word frame (EIP, CS, EFLAGS, ESP, SS) on
// the current stack; ring 0 threads get a three word frame on their own
// stack. It never returns.
func restoreThread(t *Thread)
