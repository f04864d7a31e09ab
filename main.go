// The main package for the genres crawler executable.
package main

import (
	"github.com/JakeFAU/game-genres-crawler/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
