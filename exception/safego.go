package exception

import (
	"os"
	"runtime/debug"

	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/monitoring"
)

// SafeGo runs fn in a goroutine and logs a panic instead of crashing
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", name, r, string(debug.Stack()))
			}
		}()
		fn()
	}()
}

// SafeGoWithPanic is SafeGo for goroutines the process cannot live without
func SafeGoWithPanic(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				monitoring.IncreasePanicCount()
				logx.Error("PANIC", name, r, string(debug.Stack()))
				logx.Close()
				os.Exit(1)
			}
		}()
		fn()
	}()
}
