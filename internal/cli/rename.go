package cli

import (
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/lbugnon/cortex-pkm/internal/engine"
	"github.com/lbugnon/cortex-pkm/internal/graph"
)

var (
	errRenameArgs = errors.New("rename requires <old> and <new> identities")
	errMoveArgs   = errors.New("mv requires <identity> and <new-parent>")
)

// newRenameCommand builds the identity-change command.
func newRenameCommand() *Command {
	flags := flag.NewFlagSet("rename", flag.ContinueOnError)
	dryRun := flags.Bool("dry-run", false, "print mutations without writing")
	repair := flags.Bool("repair", false, "tolerate a missing forward link in the old parent")

	return &Command{
		Flags: flags,
		Usage: "rename <old> <new> [flags]",
		Short: "rename an artifact, cascading to all descendants",
		Long: "Renames an artifact to a new dot-path identity as one atomic batch:\n" +
			"the file, its parent field and backlink, both parents' forward links,\n" +
			"and the identity prefix of every descendant.",
		Exec: func(env *Env, args []string) error {
			if len(args) != 2 {
				return errRenameArgs
			}

			return runRename(env, graph.Identity(args[0]), graph.Identity(args[1]), *dryRun, *repair)
		},
	}
}

// newMoveCommand builds the reparent command. A move is a rename that
// keeps the last segment.
func newMoveCommand() *Command {
	flags := flag.NewFlagSet("mv", flag.ContinueOnError)
	dryRun := flags.Bool("dry-run", false, "print mutations without writing")
	repair := flags.Bool("repair", false, "tolerate a missing forward link in the old parent")

	return &Command{
		Flags: flags,
		Usage: "mv <identity> <new-parent> [flags]",
		Short: "move an artifact under a new parent",
		Exec: func(env *Env, args []string) error {
			if len(args) != 2 {
				return errMoveArgs
			}

			oldID := graph.Identity(args[0])
			newID := graph.Identity(args[1] + "." + oldID.Segment())

			return runRename(env, oldID, newID, *dryRun, *repair)
		},
	}
}

func runRename(env *Env, oldID, newID graph.Identity, dryRun, repair bool) error {
	globs, err := env.Cfg.Globs()
	if err != nil {
		return err
	}

	return withVaultLock(env.Vault, func() error {
		files, readErr := graph.ReadFiles(env.Vault, graph.ScanOptions{Ignore: globs})
		if readErr != nil {
			return readErr
		}

		g := graph.Build(files)

		mutations, renameErr := engine.Rename(g, files, engine.RenameRequest{
			Old:    oldID,
			New:    newID,
			Repair: repair,
		}, env.Policy())
		if renameErr != nil {
			return renameErr
		}

		for _, mutation := range mutations {
			verb := "rewrite"
			if mutation.Delete {
				verb = "remove"
			}

			env.IO.Println(verb, mutation.Path)
		}

		if dryRun {
			return nil
		}

		return engine.ApplyMutations(env.Vault, mutations)
	})
}
