// Package engine is the vault consistency and synchronization engine.
//
// Given the current file set it rebuilds the hierarchy and link graph,
// validates referential integrity, propagates derived status up the
// hierarchy, rewrites links and archive locations, and returns either a
// list of blocking violations or an ordered batch of file mutations.
// The engine never writes incrementally: all mutations for one
// invocation are computed against the in-memory graph and handed back
// (or written) as a batch. Crash consistency is detection-and-repair:
// a write phase killed halfway leaves a state the next run's validator
// reports as a partial rename or broken link.
package engine

import (
	"sort"
	"time"

	"github.com/lbugnon/cortex-pkm/internal/graph"
)

// Request is one gate invocation.
type Request struct {
	// Changed identities in the proposed commit, from the invoking
	// version-control hook.
	Changed []graph.Identity

	// Previous is the identity set at the previous commit, used to tell
	// a partial rename from a plain broken link.
	Previous map[graph.Identity]bool

	// Repair applies unambiguous fixes (missing link lines) instead of
	// blocking on them. Structural violations still block.
	Repair bool

	Policy Policy
}

// Result is the gate's decision: blocking violations, or the mutation
// batch that brings the vault into a consistent state. Exactly one of
// the two is populated; both empty means the vault was already
// consistent.
type Result struct {
	Violations []Violation
	Mutations  []Mutation
}

// Blocked reports whether the invoking hook must reject the commit.
func (r Result) Blocked() bool {
	return len(r.Violations) > 0
}

// Run executes the gate over the full file set: scan, validate, and on
// a clean graph propagate, synchronize, sort, and archive. Idempotent:
// running it again over its own output yields an empty mutation set.
func Run(files map[string][]byte, req Request) Result {
	if req.Policy.Today == "" {
		req.Policy.Today = time.Now().Format("2006-01-02")
	}

	// Scanning.
	g := graph.Build(files)

	// Validating.
	violations := Validate(g, req)
	if req.Repair {
		violations = applyFixes(g, violations)
	}

	if len(violations) > 0 {
		return Result{Violations: violations}
	}

	// Propagating.
	Propagate(g, req.Policy)

	// Synchronizing.
	SyncLinks(g)

	// Sorting.
	SortTasks(g)

	// Archiving. Moves change relative link depth, so moved artifacts
	// and their neighbors need a second synchronization pass.
	if moved := ApplyArchive(g); len(moved) > 0 {
		SyncLinks(g)
	}

	return Result{Mutations: Diff(g, files, req.Policy)}
}

// Diff compares the mutated graph against the original file set and
// returns the mutation batch, ordered deletes-first then writes by
// path. Any rewritten file gets its modified date stamped.
func Diff(g *graph.Graph, files map[string][]byte, policy Policy) []Mutation {
	var deletes, writes []Mutation

	current := make(map[string]bool)

	for _, id := range g.Identities() {
		art, _ := g.Get(id)

		// Unparseable files are left exactly as they are.
		current[art.Path] = true

		if art.Doc == nil {
			continue
		}

		original, existed := files[art.Path]
		rendered := art.Doc.Render()

		if existed && string(original) == string(rendered) {
			continue
		}

		if policy.Today != "" {
			art.Doc.SetMetaField("modified", policy.Today)
			rendered = art.Doc.Render()
		}

		writes = append(writes, Mutation{Path: art.Path, Content: rendered})
	}

	// Files whose artifact moved away leave a stale path behind.
	for path := range files {
		if !current[path] {
			deletes = append(deletes, Mutation{Path: path, Delete: true})
		}
	}

	sort.Slice(deletes, func(i, j int) bool { return deletes[i].Path < deletes[j].Path })
	sort.Slice(writes, func(i, j int) bool { return writes[i].Path < writes[j].Path })

	return append(deletes, writes...)
}

// applyFixes consumes the violations whose fix is unambiguous (missing
// link lines, a parent field disagreeing with the filename) and repairs
// the graph in memory. Everything else stays blocking.
func applyFixes(g *graph.Graph, violations []Violation) []Violation {
	var remaining []Violation

	repairLinks := false

	for _, violation := range violations {
		art, ok := g.Get(violation.ID)
		if !ok || art.Doc == nil {
			remaining = append(remaining, violation)

			continue
		}

		switch violation.Kind {
		case MissingForwardLink, MissingBacklink:
			repairLinks = true
		case PartialRename:
			// Only the parent-field flavor is mechanically fixable; a
			// dangling link from a half-applied rename is not.
			if violation.Fix == "set parent: "+string(violation.ID.Parent()) {
				art.Doc.SetMetaField("parent", string(violation.ID.Parent()))
				art.Doc.Meta.Parent = string(violation.ID.Parent())
			} else {
				remaining = append(remaining, violation)
			}
		default:
			remaining = append(remaining, violation)
		}
	}

	if repairLinks {
		RepairLinks(g)
	}

	return remaining
}
