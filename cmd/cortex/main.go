// Command cortex keeps a plain-text knowledge vault consistent: it
// validates and synchronizes the hierarchy, links, statuses, and
// archive locations encoded across the vault's markdown files.
package main

import (
	"os"

	"github.com/lbugnon/cortex-pkm/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdout, os.Stderr, os.Args, os.Environ()))
}
