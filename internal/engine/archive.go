package engine

import (
	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// ApplyArchive relocates artifacts across the archive boundary: a task,
// group, or project moves into the archive exactly when its status is
// done, and back out exactly when it no longer is. Children are judged
// by their own status, never cascaded. Root, backlog, and notes stay
// put.
//
// Relocation only updates the in-memory location and path; the caller
// re-runs SyncLinks afterwards because every link touching a moved
// artifact changes its relative prefix. Returns the moved identities.
func ApplyArchive(g *graph.Graph) []graph.Identity {
	var moved []graph.Identity

	for _, id := range g.Identities() {
		art, _ := g.Get(id)
		if art.Doc == nil {
			continue
		}

		want, decided := wantLocation(art)
		if !decided || want == art.Location {
			continue
		}

		art.Location = want
		art.Path = graph.RelPath(art.ID, want)
		moved = append(moved, id)
	}

	return moved
}

// wantLocation decides the correct area for an artifact. decided=false
// means the kind never moves.
func wantLocation(art *graph.Artifact) (note.Location, bool) {
	switch art.Kind {
	case note.KindTask, note.KindTaskGroup:
		if art.Status == note.StatusDone {
			return note.Archived, true
		}

		return note.Active, true
	case note.KindProject:
		if art.Project == note.ProjectDone {
			return note.Archived, true
		}

		return note.Active, true
	case note.KindNote, note.KindBacklog, note.KindRoot:
		return art.Location, false
	}

	return art.Location, false
}
