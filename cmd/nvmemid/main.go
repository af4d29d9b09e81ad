// Command nvmemid is an NVMe-MI v2.0 management-interface responder:
// it serves Read NVMe-MI Data Structure, NVM Subsystem/Controller
// Health Status Poll, Configuration Get/Set, and the Identify/Get Log
// Page/Namespace Management/Namespace Attachment admin commands
// against an in-memory subsystem model.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/nvmemid/cmd/nvmemid/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
