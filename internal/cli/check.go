package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lbugnon/cortex-pkm/internal/engine"
	"github.com/lbugnon/cortex-pkm/internal/graph"
)

// newCheckCommand builds the gate command the pre-commit hook invokes.
func newCheckCommand() *Command {
	flags := flag.NewFlagSet("check", flag.ContinueOnError)
	changed := flags.StringSlice("changed", nil, "identities changed in this commit")
	previousFile := flags.String("previous", "", "file listing the identities present at the previous commit, one per line")
	dryRun := flags.Bool("dry-run", false, "print mutations without writing")
	repair := flags.Bool("repair", false, "apply unambiguous link fixes instead of blocking on them")

	return &Command{
		Flags: flags,
		Usage: "check [flags]",
		Short: "validate the vault and synchronize derived state",
		Long: "Rebuilds the vault graph, validates referential integrity, and on a\n" +
			"clean graph propagates statuses, rewrites links, sorts task lists, and\n" +
			"relocates archived files. Prints violations and exits non-zero when the\n" +
			"commit must be blocked.",
		Exec: func(env *Env, _ []string) error {
			return runCheck(env, checkOptions{
				changed:      *changed,
				previousFile: *previousFile,
				dryRun:       *dryRun,
				repair:       *repair,
			})
		},
	}
}

type checkOptions struct {
	changed      []string
	previousFile string
	dryRun       bool
	repair       bool
}

func runCheck(env *Env, opts checkOptions) error {
	globs, err := env.Cfg.Globs()
	if err != nil {
		return err
	}

	previous, err := readPreviousSet(opts.previousFile)
	if err != nil {
		return err
	}

	req := engine.Request{
		Previous: previous,
		Repair:   opts.repair,
		Policy:   env.Policy(),
	}

	for _, id := range opts.changed {
		req.Changed = append(req.Changed, graph.Identity(id))
	}

	return withVaultLock(env.Vault, func() error {
		files, readErr := graph.ReadFiles(env.Vault, graph.ScanOptions{Ignore: globs})
		if readErr != nil {
			return readErr
		}

		result := engine.Run(files, req)
		if result.Blocked() {
			return &BlockedError{Violations: result.Violations}
		}

		if len(result.Mutations) == 0 {
			env.IO.Println("vault consistent, nothing to do")

			return nil
		}

		for _, mutation := range result.Mutations {
			verb := "rewrite"
			if mutation.Delete {
				verb = "remove"
			}

			env.IO.Println(verb, mutation.Path)
		}

		if opts.dryRun {
			return nil
		}

		applyErr := engine.ApplyMutations(env.Vault, result.Mutations)
		if applyErr != nil {
			return applyErr
		}

		env.IO.Printf("applied %d mutation(s)\n", len(result.Mutations))

		return nil
	})
}

// readPreviousSet loads the previous-commit identity list the hook
// passes in. One identity per line, blank lines skipped.
func readPreviousSet(path string) (map[graph.Identity]bool, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path) //nolint:gosec // path is a caller-supplied flag
	if err != nil {
		return nil, fmt.Errorf("reading previous identity list: %w", err)
	}

	defer func() { _ = file.Close() }()

	previous := make(map[graph.Identity]bool)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			previous[graph.Identity(line)] = true
		}
	}

	if scanErr := scanner.Err(); scanErr != nil {
		return nil, fmt.Errorf("reading previous identity list: %w", scanErr)
	}

	return previous, nil
}
