package engine

import (
	"fmt"

	"github.com/lbugnon/cortex-pkm/internal/graph"
)

// ViolationKind tags a blocking consistency violation.
type ViolationKind string

// Violation kinds. Structural and link violations always block the
// gate; partial renames additionally point at crash or manual-edit
// damage that needs repair mode or a hand fix.
const (
	BrokenLink         ViolationKind = "broken-link"
	OrphanFile         ViolationKind = "orphan-file"
	UnresolvedParent   ViolationKind = "unresolved-parent"
	PartialRename      ViolationKind = "partial-rename"
	MissingForwardLink ViolationKind = "missing-forward-link"
	MissingBacklink    ViolationKind = "missing-backlink"
	DuplicateLink      ViolationKind = "duplicate-link"
	CyclicIdentity     ViolationKind = "cyclic-identity"
	MalformedFile      ViolationKind = "malformed-file"
)

// Violation is one blocking finding, tied to the file that must change.
// Violations are data, not errors: the gate reports them, it never
// silently fixes them.
type Violation struct {
	Kind    ViolationKind
	ID      graph.Identity
	Path    string
	Message string

	// Fix holds an actionable suggestion when the correct resolution is
	// unambiguous. Repair mode applies it instead of blocking.
	Fix string
}

func (v Violation) String() string {
	s := fmt.Sprintf("%s: %s: %s", v.Kind, v.Path, v.Message)
	if v.Fix != "" {
		s += " (fix: " + v.Fix + ")"
	}

	return s
}

// Mutation is one file change the invoking hook must persist. Renames
// and archive moves appear as a delete of the old path plus a write of
// the new one.
type Mutation struct {
	Path    string // vault-relative
	Content []byte // new file content; nil when Delete is set
	Delete  bool
}
