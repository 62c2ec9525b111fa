package sched

// ResetForTest restores the scheduler to its boot state and routes context
// switches to fn instead of the CPU.
func ResetForTest(fn func(*Thread)) {
	resetScheduler()
	if fn != nil {
		restoreThreadFn = fn
	}
}

// PoolSnapshot returns copies of every pool slot followed by the idle
// thread.
func PoolSnapshot() [MaxThreads + 1]Thread {
	var snap [MaxThreads + 1]Thread
	copy(snap[:MaxThreads], threads[:])
	snap[MaxThreads] = idle
	return snap
}
