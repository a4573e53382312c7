package utils

import "runtime/debug"

// SafeGo runs fn in a goroutine with panic recovery. onPanic receives the
// recovered value and the stack trace.
func SafeGo(fn func(), onPanic func(r interface{}, stack []byte)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if onPanic != nil {
					onPanic(r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}
