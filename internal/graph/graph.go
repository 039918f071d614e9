package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"github.com/lbugnon/cortex-pkm/internal/note"
)

// ArchiveDir is the vault subfolder holding archived artifacts.
const ArchiveDir = "archive"

// Artifact is one parsed vault file plus its derived attributes.
type Artifact struct {
	ID       Identity
	Kind     note.Kind
	Location note.Location
	Status   note.TaskStatus    // tasks and task groups only
	Project  note.ProjectStatus // projects only
	Title    string
	Path     string // vault-relative path
	Doc      *note.Note
	ParseErr error // set when the file could not be parsed
}

// RelPath returns the vault-relative path an artifact with the given
// identity and location lives at.
func RelPath(id Identity, loc note.Location) string {
	if loc == note.Archived {
		return filepath.Join(ArchiveDir, id.Filename())
	}

	return id.Filename()
}

// Graph is the full artifact set plus the parent/child adjacency
// derived from identities. It is built fresh on every invocation and
// never mutated by readers.
type Graph struct {
	artifacts map[Identity]*Artifact
	children  map[Identity][]Identity
}

// Build parses a set of files (vault-relative path to content) into a
// graph. Parse failures are recorded on the artifact, not returned:
// the validator turns them into blocking violations.
func Build(files map[string][]byte) *Graph {
	g := &Graph{
		artifacts: make(map[Identity]*Artifact, len(files)),
		children:  make(map[Identity][]Identity),
	}

	for path, content := range files {
		loc := note.Active

		name := path
		if dir, base := filepath.Split(path); dir == ArchiveDir+string(filepath.Separator) {
			loc = note.Archived
			name = base
		}

		id, ok := IdentityFromFilename(name)
		if !ok {
			continue
		}

		art := &Artifact{ID: id, Location: loc, Path: path}

		doc, err := note.Parse(content)
		if err != nil {
			art.ParseErr = fmt.Errorf("%s: %w", path, err)
			g.artifacts[id] = art

			continue
		}

		art.Doc = doc
		art.Title = doc.Title()
		art.Kind = deriveKind(id, doc.Meta)

		switch art.Kind {
		case note.KindTask, note.KindTaskGroup:
			status, statusErr := note.ParseTaskStatus(doc.Meta.Status)
			if statusErr != nil {
				art.ParseErr = fmt.Errorf("%s: %w", path, statusErr)
			}

			art.Status = status
		case note.KindProject:
			project, statusErr := note.ParseProjectStatus(doc.Meta.Status)
			if statusErr != nil {
				art.ParseErr = fmt.Errorf("%s: %w", path, statusErr)
			}

			art.Project = project
		}

		g.artifacts[id] = art
	}

	// Derived adjacency. Children are registered even when the parent
	// artifact is absent; the validator reports the orphan.
	for id := range g.artifacts {
		if id.HasParent() {
			parent := id.Parent()
			g.children[parent] = append(g.children[parent], id)
		}
	}

	for _, kids := range g.children {
		sort.Slice(kids, func(i, j int) bool { return kids[i] < kids[j] })
	}

	// A task with children is a task group.
	for id, art := range g.artifacts {
		if art.Kind == note.KindTask && len(g.children[id]) > 0 {
			art.Kind = note.KindTaskGroup
		}
	}

	return g
}

// deriveKind classifies an artifact from its identity and frontmatter.
// root.md and backlog.md are fixed top-level kinds. Files without an
// explicit type fall back on position: top-level files with a status
// are projects, top-level files without one are notes, and dotted
// identities are tasks.
func deriveKind(id Identity, meta note.Meta) note.Kind {
	switch id {
	case "root":
		return note.KindRoot
	case "backlog":
		return note.KindBacklog
	}

	switch meta.Type {
	case "project":
		return note.KindProject
	case "note":
		return note.KindNote
	case "task":
		return note.KindTask
	}

	if id.HasParent() {
		return note.KindTask
	}

	if meta.Status != "" {
		return note.KindProject
	}

	return note.KindNote
}

// Get returns the artifact for an identity.
func (g *Graph) Get(id Identity) (*Artifact, bool) {
	art, ok := g.artifacts[id]

	return art, ok
}

// Children returns the derived child identities of id, sorted.
func (g *Graph) Children(id Identity) []Identity {
	return g.children[id]
}

// Identities returns every identity in the graph, sorted. Sorting makes
// gate output deterministic.
func (g *Graph) Identities() []Identity {
	ids := make([]Identity, 0, len(g.artifacts))
	for id := range g.artifacts {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Descendants returns every identity strictly below id, sorted.
// Prefix matching on the dot-path, so it covers the whole subtree.
func (g *Graph) Descendants(id Identity) []Identity {
	var descendants []Identity

	for _, candidate := range g.Identities() {
		if candidate.IsDescendantOf(id) {
			descendants = append(descendants, candidate)
		}
	}

	return descendants
}

// ScanOptions controls which files a vault scan picks up.
type ScanOptions struct {
	Ignore []glob.Glob // vault-relative patterns to skip
}

// Scan reads every artifact file under the vault root and its archive
// subfolder and builds the graph.
func Scan(root string, opts ScanOptions) (*Graph, error) {
	files, err := ReadFiles(root, opts)
	if err != nil {
		return nil, err
	}

	return Build(files), nil
}

// ReadFiles collects the artifact files under the vault root and its
// archive subfolder, keyed by vault-relative path. Subdirectories other
// than the archive are not part of the vault (templates/ holds
// scaffolding, .git/ the history).
func ReadFiles(root string, opts ScanOptions) (map[string][]byte, error) {
	files := make(map[string][]byte)

	readDir := func(dir string) error {
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading vault directory: %w", err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}

			rel := entry.Name()
			if dir != root {
				rel = filepath.Join(ArchiveDir, entry.Name())
			}

			if _, ok := IdentityFromFilename(entry.Name()); !ok {
				continue
			}

			if ignored(rel, opts.Ignore) {
				continue
			}

			content, readErr := os.ReadFile(filepath.Join(dir, entry.Name())) //nolint:gosec // path is from directory listing
			if readErr != nil {
				return fmt.Errorf("reading artifact: %w", readErr)
			}

			files[rel] = content
		}

		return nil
	}

	if err := readDir(root); err != nil {
		return nil, err
	}

	if err := readDir(filepath.Join(root, ArchiveDir)); err != nil {
		return nil, err
	}

	return files, nil
}

func ignored(rel string, patterns []glob.Glob) bool {
	for _, pattern := range patterns {
		if pattern.Match(rel) {
			return true
		}
	}

	return false
}
