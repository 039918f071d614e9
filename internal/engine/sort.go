package engine

import (
	"sort"

	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// SortTasks orders every container's task list by status precedence:
// blocked, active, waiting, todo, then a separator, then done, dropped.
// The sort is stable, so ties keep their prior relative order. The
// separator appears exactly when both the open and closed groups are
// non-empty.
func SortTasks(g *graph.Graph) {
	for _, id := range g.Identities() {
		art, _ := g.Get(id)
		if art.Doc == nil || !art.Kind.Container() {
			continue
		}

		sortTaskRegion(art.Doc)
	}
}

func sortTaskRegion(doc *note.Note) {
	refs := doc.TaskLines()
	if len(refs) == 0 {
		return
	}

	lines := make([]note.TaskLine, len(refs))
	for idx, ref := range refs {
		lines[idx] = ref.Line
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Status.Precedence() < lines[j].Status.Precedence()
	})

	var open, closed []string

	for _, line := range lines {
		if line.Status.Closed() {
			closed = append(closed, line.Render())
		} else {
			open = append(open, line.Render())
		}
	}

	region := open
	if len(open) > 0 && len(closed) > 0 {
		region = append(region, note.Separator)
	}

	region = append(region, closed...)

	doc.ReplaceTaskRegion(region)
}
