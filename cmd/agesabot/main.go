// Command agesabot is the entry point for the AgesaBot shopping assistant.
// It provides a CLI interface (via Cobra) and an HTTP server exposing the
// chat API.
package main

import (
	"fmt"
	"os"

	"github.com/agesalabs/agesabot-go/cmd/agesabot/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
