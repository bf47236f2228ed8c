package main

import (
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/conneroisu/mdreader/cmd"
)

func main() {
	// maxprocs.Set only fails on an invalid GOMAXPROCS env; runtime defaults apply then.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
