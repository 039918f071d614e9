package engine

import (
	"fmt"
	"sort"

	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// Validate checks a graph for structural and link violations. The
// previous-commit identity set, when supplied, lets a dangling link
// target be attributed to a partial rename instead of a plain broken
// link; the changed-identity list marks which disappearances were
// deliberate.
func Validate(g *graph.Graph, req Request) []Violation {
	previous := req.Previous

	var violations []Violation

	changed := make(map[graph.Identity]bool, len(req.Changed))
	for _, id := range req.Changed {
		changed[id] = true
	}

	// An identity that existed at the previous commit and is gone now
	// must be accounted for by the commit's changed list. Anything else
	// is the residue of a crashed rename or an out-of-band deletion.
	vanished := make([]graph.Identity, 0, len(previous))
	for id := range previous {
		vanished = append(vanished, id)
	}

	sort.Slice(vanished, func(i, j int) bool { return vanished[i] < vanished[j] })

	for _, id := range vanished {
		if _, ok := g.Get(id); ok || changed[id] {
			continue
		}

		violations = append(violations, Violation{
			Kind:    PartialRename,
			ID:      id,
			Path:    id.Filename(),
			Message: "identity existed at the previous commit but its file is gone and the commit does not list it as changed",
		})
	}

	for _, id := range g.Identities() {
		art, _ := g.Get(id)

		if art.ParseErr != nil {
			violations = append(violations, Violation{
				Kind:    MalformedFile,
				ID:      id,
				Path:    art.Path,
				Message: art.ParseErr.Error(),
			})

			continue
		}

		violations = append(violations, validateStructure(g, art)...)
		violations = append(violations, validateLinks(g, art, previous)...)
	}

	return violations
}

// validateStructure checks identity-derived invariants for one artifact.
func validateStructure(g *graph.Graph, art *graph.Artifact) []Violation {
	var violations []Violation

	id := art.ID

	if art.Kind.RequiresParent() {
		if _, ok := g.Get(id.Parent()); !ok {
			violations = append(violations, Violation{
				Kind:    OrphanFile,
				ID:      id,
				Path:    art.Path,
				Message: fmt.Sprintf("parent %q does not exist", id.Parent()),
			})
		}
	}

	declaredParent := graph.Identity(art.Doc.Meta.Parent)
	if declaredParent != "" {
		if _, ok := g.Get(declaredParent); !ok {
			violations = append(violations, Violation{
				Kind:    UnresolvedParent,
				ID:      id,
				Path:    art.Path,
				Message: fmt.Sprintf("parent field references missing artifact %q", declaredParent),
			})
		}

		if declaredParent != id.Parent() {
			violations = append(violations, Violation{
				Kind: PartialRename,
				ID:   id,
				Path: art.Path,
				Message: fmt.Sprintf("filename implies parent %q but parent field says %q",
					id.Parent(), declaredParent),
				Fix: fmt.Sprintf("set parent: %s", id.Parent()),
			})
		}
	}

	if v, cyclic := detectCycle(g, art); cyclic {
		violations = append(violations, v)
	}

	return violations
}

// detectCycle follows the declared parent chain. The filename-derived
// hierarchy cannot cycle (the dot-path strictly shortens toward the
// root), so a cycle can only enter through hand-edited parent fields.
func detectCycle(g *graph.Graph, art *graph.Artifact) (Violation, bool) {
	seen := map[graph.Identity]bool{art.ID: true}
	current := graph.Identity(art.Doc.Meta.Parent)

	for current != "" {
		if seen[current] {
			return Violation{
				Kind:    CyclicIdentity,
				ID:      art.ID,
				Path:    art.Path,
				Message: fmt.Sprintf("parent chain cycles through %q", current),
			}, true
		}

		seen[current] = true

		next, ok := g.Get(current)
		if !ok || next.Doc == nil {
			break
		}

		current = graph.Identity(next.Doc.Meta.Parent)
	}

	return Violation{}, false
}

// validateLinks checks declared links against the derived adjacency.
func validateLinks(g *graph.Graph, art *graph.Artifact, previous map[graph.Identity]bool) []Violation {
	var violations []Violation

	id := art.ID

	// Declared forward links must resolve, and at most one may target
	// each identity.
	targets := make(map[graph.Identity]int)

	for _, ref := range art.Doc.TaskLines() {
		target := graph.Identity(ref.Line.Link.Identity())
		targets[target]++

		if _, ok := g.Get(target); ok {
			continue
		}

		kind := BrokenLink
		message := fmt.Sprintf("link target %q does not exist", target)
		fix := ""

		if previous[target] {
			kind = PartialRename
			message = fmt.Sprintf("link target %q existed at the previous commit but was renamed or removed", target)
			fix = "rerun the rename, or run repair mode after restoring the target"
		}

		violations = append(violations, Violation{
			Kind: kind, ID: id, Path: art.Path, Message: message, Fix: fix,
		})
	}

	for target, count := range targets {
		if count > 1 {
			violations = append(violations, Violation{
				Kind:    DuplicateLink,
				ID:      id,
				Path:    art.Path,
				Message: fmt.Sprintf("%d forward links target %q, want exactly one", count, target),
			})
		}
	}

	// Every derived child needs exactly one forward link here.
	for _, child := range g.Children(id) {
		childArt, _ := g.Get(child)
		if childArt.ParseErr != nil {
			continue
		}

		if targets[child] == 0 {
			line := note.TaskLine{
				Status: childStatus(childArt),
				Link:   note.Link{Label: childArt.Title, Target: note.RelTarget(art.Location, childArt.Location, string(child))},
			}

			violations = append(violations, Violation{
				Kind:    MissingForwardLink,
				ID:      id,
				Path:    art.Path,
				Message: fmt.Sprintf("no forward link to child %q", child),
				Fix:     "add " + line.Render(),
			})
		}
	}

	// A child needs a backlink resolving to its derived parent.
	violations = append(violations, validateBacklink(g, art, previous)...)

	return violations
}

func validateBacklink(g *graph.Graph, art *graph.Artifact, previous map[graph.Identity]bool) []Violation {
	var violations []Violation

	back, _, hasBack := art.Doc.Backlink()

	if hasBack {
		target := graph.Identity(back.Link.Identity())
		if _, ok := g.Get(target); !ok {
			kind := BrokenLink
			message := fmt.Sprintf("backlink target %q does not exist", target)

			if previous[target] {
				kind = PartialRename
				message = fmt.Sprintf("backlink target %q existed at the previous commit but was renamed or removed", target)
			}

			violations = append(violations, Violation{
				Kind: kind, ID: art.ID, Path: art.Path, Message: message,
			})
		}
	}

	if !art.ID.HasParent() {
		return violations
	}

	parent, ok := g.Get(art.ID.Parent())
	if !ok {
		return violations // already reported as OrphanFile
	}

	if !hasBack || graph.Identity(back.Link.Identity()) != parent.ID {
		line := note.Backlink{Link: note.Link{
			Label:  parent.Title,
			Target: note.RelTarget(art.Location, parent.Location, string(parent.ID)),
		}}

		violations = append(violations, Violation{
			Kind:    MissingBacklink,
			ID:      art.ID,
			Path:    art.Path,
			Message: fmt.Sprintf("no backlink to parent %q", parent.ID),
			Fix:     "add " + line.Render(),
		})
	}

	return violations
}

// childStatus returns the status rendered in a parent's forward link
// for a child artifact. Non-task children (notes under a project)
// render as todo.
func childStatus(art *graph.Artifact) note.TaskStatus {
	if art.Status != "" {
		return art.Status
	}

	return note.StatusTodo
}
