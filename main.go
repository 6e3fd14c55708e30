// The main package for the mdserver executable.
package main

import (
	"github.com/openconvert/markitdown-server/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
