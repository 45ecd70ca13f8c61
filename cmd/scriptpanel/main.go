// Command scriptpanel runs commands on timers and shows their output.
package main

import (
	"log"
	"os"

	"github.com/deixis/scriptpanel/cmd/scriptpanel/commands"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("scriptpanel: ")

	if err := commands.Root().Execute(); err != nil {
		os.Exit(1)
	}
}
