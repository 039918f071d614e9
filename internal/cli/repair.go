package cli

import (
	flag "github.com/spf13/pflag"
)

// newRepairCommand is check with fixes enabled: missing link lines are
// inserted and parent-field mismatches corrected instead of blocking.
func newRepairCommand() *Command {
	flags := flag.NewFlagSet("repair", flag.ContinueOnError)
	dryRun := flags.Bool("dry-run", false, "print mutations without writing")

	return &Command{
		Flags: flags,
		Usage: "repair [flags]",
		Short: "fix unambiguous link damage and resynchronize",
		Long: "Runs the consistency gate with repair semantics: missing forward\n" +
			"links and backlinks are inserted, parent fields disagreeing with the\n" +
			"filename are corrected. Violations without an unambiguous fix still\n" +
			"block.",
		Exec: func(env *Env, _ []string) error {
			return runCheck(env, checkOptions{dryRun: *dryRun, repair: true})
		},
	}
}
