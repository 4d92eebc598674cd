package go_func_utils

import (
	"log"
	"runtime/debug"
)

// SafeGo runs fn on a new goroutine. The terminal UI owns stdout, so a
// panic is written to the logger with its stack before it is re-raised.
func SafeGo(logger *log.Logger, name string, fn func()) {
	go func() {
		defer logPanic(logger, name)
		fn()
	}()
}

func logPanic(logger *log.Logger, name string) {
	if r := recover(); r != nil {
		logger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
		panic(r)
	}
}
