// Package graph builds the vault hierarchy from artifact files.
//
// Identity is the dot-path naming scheme: "p1.setup.parser" is the file
// p1.setup.parser.md, child of "p1.setup". The hierarchy is derived from
// identities alone; declared links are validated against it, never
// trusted as the source of truth.
package graph

import "strings"

// Identity is the dot-path uniquely naming an artifact. It encodes the
// artifact's position in the hierarchy, not its location on disk.
type Identity string

// Parent returns the identity with the last segment stripped, or ""
// for a top-level identity.
func (id Identity) Parent() Identity {
	idx := strings.LastIndexByte(string(id), '.')
	if idx < 0 {
		return ""
	}

	return id[:idx]
}

// Segment returns the last dot segment.
func (id Identity) Segment() string {
	idx := strings.LastIndexByte(string(id), '.')

	return string(id[idx+1:])
}

// HasParent reports whether the identity implies a parent.
func (id Identity) HasParent() bool {
	return strings.ContainsRune(string(id), '.')
}

// Depth returns the number of dot segments.
func (id Identity) Depth() int {
	return strings.Count(string(id), ".") + 1
}

// IsDescendantOf reports whether id sits strictly below ancestor.
func (id Identity) IsDescendantOf(ancestor Identity) bool {
	return strings.HasPrefix(string(id), string(ancestor)+".")
}

// Rebase substitutes an identity prefix: rebasing "a.b.c" from "a.b" to
// "x.y" yields "x.y.c". The receiver must equal oldPrefix or descend
// from it; otherwise the identity is returned unchanged.
func (id Identity) Rebase(oldPrefix, newPrefix Identity) Identity {
	if id == oldPrefix {
		return newPrefix
	}

	if id.IsDescendantOf(oldPrefix) {
		return newPrefix + id[len(oldPrefix):]
	}

	return id
}

// Filename returns the file name stem plus the markdown extension.
func (id Identity) Filename() string {
	return string(id) + ".md"
}

// IdentityFromFilename derives the identity from a file name. Returns
// ("", false) for non-markdown files.
func IdentityFromFilename(name string) (Identity, bool) {
	stem, ok := strings.CutSuffix(name, ".md")
	if !ok || stem == "" {
		return "", false
	}

	return Identity(stem), true
}
