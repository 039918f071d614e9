package cli

import (
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/lbugnon/cortex-pkm/internal/engine"
	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

var errUnknownIdentity = errors.New("unknown identity")

// newStatusCommand builds the read-only status report. It computes
// derived statuses over the in-memory graph and never writes.
func newStatusCommand() *Command {
	flags := flag.NewFlagSet("status", flag.ContinueOnError)

	return &Command{
		Flags: flags,
		Usage: "status [identity]",
		Short: "show the vault tree with derived statuses",
		Exec: func(env *Env, args []string) error {
			root := graph.Identity("")
			if len(args) > 0 {
				root = graph.Identity(args[0])
			}

			return runStatus(env, root)
		},
	}
}

func runStatus(env *Env, root graph.Identity) error {
	globs, err := env.Cfg.Globs()
	if err != nil {
		return err
	}

	g, err := graph.Scan(env.Vault, graph.ScanOptions{Ignore: globs})
	if err != nil {
		return err
	}

	// Derived statuses only; mutations are computed in memory and
	// dropped.
	engine.Propagate(g, env.Policy())

	if root != "" {
		art, ok := g.Get(root)
		if !ok {
			return fmt.Errorf("%w: %s", errUnknownIdentity, root)
		}

		printTree(env.IO, g, art, 0)

		return nil
	}

	for _, id := range g.Identities() {
		if id.HasParent() {
			continue
		}

		art, _ := g.Get(id)
		printTree(env.IO, g, art, 0)
	}

	return nil
}

func printTree(o *IO, g *graph.Graph, art *graph.Artifact, depth int) {
	indent := strings.Repeat("  ", depth)

	label := art.Title
	if label == "" {
		label = string(art.ID)
	}

	switch art.Kind {
	case note.KindTask, note.KindTaskGroup:
		o.Printf("%s[%c] %s (%s)\n", indent, art.Status.Glyph(), label, art.ID)
	case note.KindProject:
		o.Printf("%s%s (%s, %s)\n", indent, label, art.ID, art.Project)
	case note.KindNote, note.KindBacklog, note.KindRoot:
		o.Printf("%s%s (%s)\n", indent, label, art.ID)
	}

	for _, child := range g.Children(art.ID) {
		childArt, _ := g.Get(child)
		printTree(o, g, childArt, depth+1)
	}
}
