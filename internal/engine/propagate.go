package engine

import (
	"sort"

	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// Policy holds the documented behavior switches of the engine.
type Policy struct {
	// GroupAutoComplete makes a task group whose children are all done
	// or dropped roll up to done on its own. When off, such a group
	// keeps its explicitly set status until marked complete by hand.
	GroupAutoComplete bool

	// Today is the date stamped into the modified field of rewritten
	// files, ISO format.
	Today string
}

// Propagate computes derived statuses for containers: task groups roll
// up from their children by precedence, projects flip between planning
// and active based on descendant activity. Updates both the in-memory
// artifact and its frontmatter. Returns the identities whose status
// changed.
func Propagate(g *graph.Graph, policy Policy) []graph.Identity {
	var changed []graph.Identity

	// Groups roll up bottom-first so nested groups see their children's
	// derived statuses.
	ids := g.Identities()
	sort.SliceStable(ids, func(i, j int) bool { return ids[i].Depth() > ids[j].Depth() })

	for _, id := range ids {
		art, _ := g.Get(id)
		if art.Kind != note.KindTaskGroup || art.Doc == nil {
			continue
		}

		rolled, ok := rollUp(g, id, art.Status, policy)
		if ok && rolled != art.Status {
			art.Status = rolled
			art.Doc.SetMetaField("status", string(rolled))
			changed = append(changed, id)
		}
	}

	for _, id := range g.Identities() {
		art, _ := g.Get(id)
		if art.Kind != note.KindProject || art.Doc == nil || art.Project == note.ProjectDone {
			continue
		}

		derived := note.ProjectPlanning
		if hasActiveDescendant(g, id) {
			derived = note.ProjectActive
		}

		if derived != art.Project {
			art.Project = derived
			art.Doc.SetMetaField("status", string(derived))
			changed = append(changed, id)
		}
	}

	return changed
}

// rollUp computes a group's status from its children. The first status
// present in precedence order wins. Returns ok=false when the group
// keeps its own status (all children closed and auto-complete is off).
func rollUp(g *graph.Graph, id graph.Identity, current note.TaskStatus, policy Policy) (note.TaskStatus, bool) {
	present := make(map[note.TaskStatus]bool)

	for _, child := range g.Children(id) {
		childArt, _ := g.Get(child)
		if childArt.Status != "" {
			present[childArt.Status] = true
		}
	}

	if len(present) == 0 {
		return current, false
	}

	for _, status := range []note.TaskStatus{note.StatusBlocked, note.StatusActive, note.StatusWaiting, note.StatusTodo} {
		if present[status] {
			return status, true
		}
	}

	// Every child is done or dropped.
	if policy.GroupAutoComplete {
		return note.StatusDone, true
	}

	return current, false
}

// hasActiveDescendant walks the subtree looking for an active task.
func hasActiveDescendant(g *graph.Graph, id graph.Identity) bool {
	for _, descendant := range g.Descendants(id) {
		art, _ := g.Get(descendant)
		if art.Status == note.StatusActive {
			return true
		}
	}

	return false
}
