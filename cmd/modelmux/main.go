// cmd/modelmux/main.go
package main

import (
	cmd "github.com/modelmux/modelmux/internal/cli"
)

// main starts the modelmux CLI application by delegating to the cobra root
// command defined in the cli package.
func main() {
	cmd.Execute()
}
