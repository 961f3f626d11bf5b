// Command lw runs the lucky wheel from the terminal.
package main

import (
	"os"

	"github.com/steveyegge/luckywheel/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
