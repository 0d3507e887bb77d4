package safety

import "fmt"

// Violation is the panic value raised by a failed check.
type Violation struct {
	Component string
	Message   string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: contract violation: %s", v.Component, v.Message)
}

// Assert panics with a Violation if checks are enabled and cond is false.
// The message is only formatted on failure.
func Assert(cond bool, component, format string, args ...any) {
	if Enabled && !cond {
		panic(Violation{Component: component, Message: fmt.Sprintf(format, args...)})
	}
}

// AssertIndex checks 0 <= idx < length.
func AssertIndex[I ~int | ~int32 | ~int64 | ~uint32 | ~uint64](idx, length I, component string) {
	if Enabled && (idx < 0 || idx >= length) {
		panic(Violation{Component: component, Message: fmt.Sprintf("index %d out of range [0, %d)", idx, length)})
	}
}

// AssertCreated checks that a collection has been created and not yet disposed.
func AssertCreated(created bool, component string) {
	if Enabled && !created {
		panic(Violation{Component: component, Message: "use of a collection that was never created or is already disposed"})
	}
}

// Fail panics unconditionally. It is used for contracts whose violation is always fatal,
// such as indexed lookups of missing keys.
func Fail(component, format string, args ...any) {
	panic(Violation{Component: component, Message: fmt.Sprintf(format, args...)})
}
