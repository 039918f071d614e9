// Package cli implements the cortex command line: the consistency gate
// invoked by the vault's pre-commit hook, plus rename/move, repair, and
// a read-only status report.
package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lbugnon/cortex-pkm/internal/config"
	"github.com/lbugnon/cortex-pkm/internal/engine"
)

// Env carries resolved configuration and output streams into commands.
type Env struct {
	IO    *IO
	Vault string // absolute vault directory
	Cfg   config.Config
}

// Policy returns the engine policy implied by the configuration.
func (e *Env) Policy() engine.Policy {
	return engine.Policy{
		GroupAutoComplete: e.Cfg.GroupAutoComplete,
		Today:             time.Now().Format("2006-01-02"),
	}
}

// BlockedError carries gate violations out of a command. The command
// runner prints them one per line and exits non-zero, which is the
// contract the pre-commit hook relies on.
type BlockedError struct {
	Violations []engine.Violation
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("vault inconsistent: %d violation(s)", len(e.Violations))
}

// Run is the main entry point. Returns exit code.
func Run(out, errOut io.Writer, args []string, osEnv []string) int {
	ioCtx := NewIO(out, errOut)

	commands := []*Command{
		newCheckCommand(),
		newRenameCommand(),
		newMoveCommand(),
		newStatusCommand(),
		newRepairCommand(),
	}

	if len(args) < 2 || args[1] == "-h" || args[1] == "--help" {
		printUsage(ioCtx, commands)

		return 0
	}

	// Global -C flag selects the vault directory, like git -C.
	rest := args[1:]
	vaultDir := ""

	if rest[0] == "-C" {
		if len(rest) < 2 {
			ioCtx.ErrPrintln("error: -C requires a directory")

			return 1
		}

		vaultDir = rest[1]
		rest = rest[2:]
	}

	if len(rest) == 0 {
		printUsage(ioCtx, commands)

		return 0
	}

	env, err := newEnv(ioCtx, vaultDir, osEnv)
	if err != nil {
		ioCtx.ErrPrintln("error:", err)

		return 1
	}

	name := rest[0]
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd.Run(env, rest[1:])
		}
	}

	ioCtx.ErrPrintln("error: unknown command:", name)
	printUsage(ioCtx, commands)

	return 1
}

func newEnv(ioCtx *IO, vaultDir string, osEnv []string) (*Env, error) {
	if vaultDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot get working directory: %w", err)
		}

		vaultDir = cwd
	}

	cfg, err := config.Load(vaultDir, osEnv)
	if err != nil {
		return nil, err
	}

	if cfg.Vault != "" {
		vaultDir = cfg.Vault
	}

	return &Env{IO: ioCtx, Vault: vaultDir, Cfg: cfg}, nil
}

func printUsage(o *IO, commands []*Command) {
	o.Println("Usage: cortex [-C <vault>] <command> [flags]")
	o.Println()
	o.Println("Commands:")

	for _, cmd := range commands {
		o.Println(cmd.HelpLine())
	}

	o.Println()
	o.Println("Run 'cortex <command> --help' for command details.")
}
