package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lbugnon/cortex-pkm/internal/graph"
	"github.com/lbugnon/cortex-pkm/internal/note"
)

// Rename errors, surfaced to the caller with the transaction untouched.
var (
	ErrIdentityConflict = errors.New("identity already exists")
	ErrNotFound         = errors.New("identity not found")
	ErrLinkNotFound     = errors.New("forward link not found in old parent")
	ErrBadParent        = errors.New("new parent is not a container")
)

// RenameRequest describes an identity change. A rename keeps the parent
// and changes the last segment; a move keeps the segment and changes
// the parent. Both are the same operation on the dot-path.
type RenameRequest struct {
	Old graph.Identity
	New graph.Identity

	// Repair tolerates a missing forward link in the old parent (the
	// half-applied state a crashed rename leaves behind).
	Repair bool
}

// Rename executes an identity change as one atomic unit of work: the
// file itself, its parent frontmatter field and backlink, the old and
// new parents' forward links, and an identity-prefix cascade over every
// descendant. All mutations are computed against the in-memory graph
// and returned as a batch; nothing touches disk here, so a failed
// validation leaves no partial state. Callers persist the batch, or
// drop it for a dry run.
func Rename(g *graph.Graph, files map[string][]byte, req RenameRequest, policy Policy) ([]Mutation, error) {
	art, ok := g.Get(req.Old)
	if !ok || art.Doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.Old)
	}

	if _, exists := g.Get(req.New); exists {
		return nil, fmt.Errorf("%w: %s", ErrIdentityConflict, req.New)
	}

	newParent, err := resolveNewParent(g, req.New)
	if err != nil {
		return nil, err
	}

	// Detach from the old parent's task list, remembering the glyph so
	// the new parent's line keeps the task's status.
	oldStatus := childStatus(art)

	oldParent, hasOldParent := g.Get(req.Old.Parent())
	if hasOldParent && oldParent.Doc != nil {
		removed := removeForwardLink(oldParent.Doc, req.Old)
		if !removed && !req.Repair {
			return nil, fmt.Errorf("%w: %s in %s", ErrLinkNotFound, req.Old, oldParent.Path)
		}

		// Removal can empty the closed group and leave its separator
		// dangling; re-sorting folds it away.
		if removed {
			sortTaskRegion(oldParent.Doc)
		}
	}

	// Rewrite the artifact itself.
	rewriteIdentity(art, req.New, newParent)

	// Attach to the new parent, then keep its list ordered.
	if newParent != nil && newParent.Doc != nil {
		newParent.Doc.AppendTaskLine(note.TaskLine{
			Status: oldStatus,
			Link: note.Link{
				Label:  art.Title,
				Target: note.RelTarget(newParent.Location, art.Location, string(req.New)),
			},
		})
		sortTaskRegion(newParent.Doc)
	}

	// Cascade the prefix change through the subtree.
	rebaseForwardLinks(art.Doc, req.Old, req.New)

	for _, descendant := range g.Descendants(req.Old) {
		descArt, _ := g.Get(descendant)
		if descArt.Doc == nil {
			continue
		}

		rebased := descendant.Rebase(req.Old, req.New)
		parentID := rebased.Parent()

		descArt.ID = rebased
		descArt.Path = graph.RelPath(rebased, descArt.Location)
		descArt.Doc.SetMetaField("parent", string(parentID))

		if back, idx, hasBack := descArt.Doc.Backlink(); hasBack {
			// A rename never changes locations, only the dot-path, so
			// the archive-relative prefix carries over unchanged.
			backTarget := graph.Identity(back.Link.Identity())
			prefix := strings.TrimSuffix(back.Link.Target, string(backTarget))
			back.Link.Target = prefix + string(backTarget.Rebase(req.Old, req.New))
			descArt.Doc.SetLine(idx, back.Render())
		}

		rebaseForwardLinks(descArt.Doc, req.Old, req.New)
	}

	return Diff(g, files, policy), nil
}

// resolveNewParent checks the new identity's implied parent exists and
// can hold children. A top-level new identity has no parent.
func resolveNewParent(g *graph.Graph, newID graph.Identity) (*graph.Artifact, error) {
	if !newID.HasParent() {
		return nil, nil //nolint:nilnil // top-level identities are parentless
	}

	parent, ok := g.Get(newID.Parent())
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, newID.Parent())
	}

	if !parent.Kind.Container() && parent.Kind != note.KindTask {
		return nil, fmt.Errorf("%w: %s is a %s", ErrBadParent, parent.ID, parent.Kind)
	}

	return parent, nil
}

// rewriteIdentity updates the renamed artifact's own file: path, parent
// field, and backlink.
func rewriteIdentity(art *graph.Artifact, newID graph.Identity, newParent *graph.Artifact) {
	art.ID = newID
	art.Path = graph.RelPath(newID, art.Location)

	if newParent == nil {
		_ = art.Doc.RemoveMetaField("parent")

		if _, idx, ok := art.Doc.Backlink(); ok {
			art.Doc.RemoveLine(idx)
		}

		return
	}

	art.Doc.SetMetaField("parent", string(newID.Parent()))
	art.Doc.SetBacklink(note.Backlink{Link: note.Link{
		Label:  newParent.Title,
		Target: note.RelTarget(art.Location, newParent.Location, string(newParent.ID)),
	}})
}

// rebaseForwardLinks rewrites the identity part of every task-line
// target under the old prefix, keeping any archive/ or ../ prefix as
// is. Locations do not change during a rename, only the dot-path.
func rebaseForwardLinks(doc *note.Note, oldID, newID graph.Identity) {
	for _, ref := range doc.TaskLines() {
		target := graph.Identity(ref.Line.Link.Identity())
		if target != oldID && !target.IsDescendantOf(oldID) {
			continue
		}

		prefix := strings.TrimSuffix(ref.Line.Link.Target, string(target))
		ref.Line.Link.Target = prefix + string(target.Rebase(oldID, newID))
		doc.SetLine(ref.Index, ref.Line.Render())
	}
}

// removeForwardLink deletes the task line targeting id. Reports whether
// a line was found.
func removeForwardLink(doc *note.Note, id graph.Identity) bool {
	for _, ref := range doc.TaskLines() {
		if graph.Identity(ref.Line.Link.Identity()) == id {
			doc.RemoveLine(ref.Index)

			return true
		}
	}

	return false
}
