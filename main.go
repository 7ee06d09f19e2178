// ./main.go
package main

import (
	"github.com/bidlens/bidlens-cli/cmd"
)

// main is the entry point for the bidlens CLI application.
func main() {
	cmd.Execute()
}
