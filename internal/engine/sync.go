package engine

import (
	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// SyncLinks rewrites every declared link line to match its target's
// current title, location, and status: forward-link labels and glyphs,
// backlink labels, and the relative path prefix on both when either
// endpoint sits across the archive boundary.
//
// Idempotent: links already in sync are left untouched. Unresolvable
// targets are skipped; the validator has blocked the gate before this
// runs when any exist.
func SyncLinks(g *graph.Graph) {
	for _, id := range g.Identities() {
		art, _ := g.Get(id)
		if art.Doc == nil {
			continue
		}

		for _, ref := range art.Doc.TaskLines() {
			target, ok := g.Get(graph.Identity(ref.Line.Link.Identity()))
			if !ok || target.Doc == nil {
				continue
			}

			want := note.TaskLine{
				Status: childStatus(target),
				Link: note.Link{
					Label:  target.Title,
					Target: note.RelTarget(art.Location, target.Location, string(target.ID)),
				},
			}

			if want != ref.Line {
				art.Doc.SetTaskLine(ref.Index, want)
			}
		}

		back, idx, ok := art.Doc.Backlink()
		if !ok {
			continue
		}

		parent, ok := g.Get(graph.Identity(back.Link.Identity()))
		if !ok || parent.Doc == nil {
			continue
		}

		want := note.Backlink{Link: note.Link{
			Label:  parent.Title,
			Target: note.RelTarget(art.Location, parent.Location, string(parent.ID)),
		}}

		if want != back {
			art.Doc.SetLine(idx, want.Render())
		}
	}
}

// RepairLinks inserts the missing forward-link and backlink lines for
// every parent/child pair implied by identity. Used by repair mode;
// outside it the gate reports the missing lines and blocks instead.
func RepairLinks(g *graph.Graph) {
	for _, id := range g.Identities() {
		art, _ := g.Get(id)
		if art.Doc == nil {
			continue
		}

		for _, child := range g.Children(id) {
			childArt, _ := g.Get(child)
			if childArt.Doc == nil {
				continue
			}

			if !hasForwardLink(art, child) {
				art.Doc.AppendTaskLine(note.TaskLine{
					Status: childStatus(childArt),
					Link: note.Link{
						Label:  childArt.Title,
						Target: note.RelTarget(art.Location, childArt.Location, string(child)),
					},
				})
			}

			back, _, hasBack := childArt.Doc.Backlink()
			if !hasBack || graph.Identity(back.Link.Identity()) != id {
				childArt.Doc.SetBacklink(note.Backlink{Link: note.Link{
					Label:  art.Title,
					Target: note.RelTarget(childArt.Location, art.Location, string(id)),
				}})
			}
		}
	}
}

func hasForwardLink(art *graph.Artifact, target graph.Identity) bool {
	for _, ref := range art.Doc.TaskLines() {
		if graph.Identity(ref.Line.Link.Identity()) == target {
			return true
		}
	}

	return false
}
