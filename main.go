package main

import (
	"os"
	"runtime/debug"

	"github.com/mezonai/snapledger/cmd"
	"github.com/mezonai/snapledger/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("SNAPLEDGER CRASHED: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
