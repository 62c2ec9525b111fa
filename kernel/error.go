package kernel

// Error describes an unrecoverable kernel condition. Errors are declared as
// package-level pointers because nothing here may allocate once interrupts
// are live, which rules out errors.New and fmt.Errorf.
type Error struct {
	// Module names the subsystem that raised the error (e.g. "sched").
	Module string

	// Message is a short human readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}
