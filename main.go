// The main package for the ecfr-tracker executable.
package main

import (
	"github.com/fedreg/ecfr-tracker/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
