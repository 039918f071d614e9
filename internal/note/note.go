// Package note parses and serializes a single vault artifact file:
// a YAML frontmatter block followed by a markdown body containing the
// title, an optional backlink line, and forward-link task lines.
//
// The package is pure and stateless: it knows nothing about other files
// or the hierarchy. Mutations are targeted line edits so that untouched
// content round-trips byte-for-byte.
package note

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies an artifact. TaskGroup is derived (a task with
// children), never written to frontmatter.
type Kind string

// Artifact kinds.
const (
	KindProject   Kind = "project"
	KindTask      Kind = "task"
	KindTaskGroup Kind = "taskgroup"
	KindNote      Kind = "note"
	KindBacklog   Kind = "backlog"
	KindRoot      Kind = "root"
)

// RequiresParent reports whether an artifact of this kind must have a
// resolvable parent in the graph.
func (k Kind) RequiresParent() bool {
	return k == KindTask || k == KindTaskGroup
}

// Container reports whether the kind may hold child task lines.
func (k Kind) Container() bool {
	switch k {
	case KindProject, KindTaskGroup, KindBacklog, KindRoot:
		return true
	case KindTask, KindNote:
		return false
	}

	return false
}

// Meta is the parsed frontmatter of an artifact. Unknown keys are
// preserved in the raw frontmatter but not surfaced here.
type Meta struct {
	Created  string   `yaml:"created"`
	Modified string   `yaml:"modified"`
	Type     string   `yaml:"type"`
	Status   string   `yaml:"status"`
	Due      string   `yaml:"due"`
	Priority string   `yaml:"priority"`
	Tags     []string `yaml:"tags"`
	Parent   string   `yaml:"parent"`
}

// Separator divides the open and closed groups in a sorted task list.
const Separator = "---"

const frontmatterDelimiter = "---"

// MaxFrontmatterLines bounds the frontmatter block. A missing closing
// delimiter otherwise swallows the whole file.
const MaxFrontmatterLines = 100

// Parse errors.
var (
	ErrNoFrontmatter       = errors.New("no frontmatter found")
	ErrUnclosedFrontmatter = errors.New("unclosed frontmatter")
	errFrontmatterTooLong  = errors.New("frontmatter exceeds maximum line limit")
	errFieldNotFound       = errors.New("frontmatter field not found")
)

// Note is a parsed artifact file.
type Note struct {
	Meta Meta

	meta []string // raw frontmatter lines, delimiters excluded
	body []string // body lines after the closing delimiter
}

// Parse parses a file into a Note. The frontmatter must start on the
// first line. Body text is preserved verbatim.
func Parse(content []byte) (*Note, error) {
	lines := strings.Split(string(content), "\n")

	if len(lines) == 0 || lines[0] != frontmatterDelimiter {
		return nil, ErrNoFrontmatter
	}

	end := -1

	for idx := 1; idx < len(lines); idx++ {
		if lines[idx] == frontmatterDelimiter {
			end = idx

			break
		}

		if idx > MaxFrontmatterLines {
			return nil, errFrontmatterTooLong
		}
	}

	if end == -1 {
		return nil, ErrUnclosedFrontmatter
	}

	doc := &Note{
		meta: lines[1:end],
		body: lines[end+1:],
	}

	raw := strings.Join(doc.meta, "\n")

	err := yaml.Unmarshal([]byte(raw), &doc.Meta)
	if err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}

	return doc, nil
}

// Render serializes the note back to file content.
func (n *Note) Render() []byte {
	var builder strings.Builder

	builder.WriteString(frontmatterDelimiter + "\n")

	for _, line := range n.meta {
		builder.WriteString(line + "\n")
	}

	builder.WriteString(frontmatterDelimiter + "\n")
	builder.WriteString(strings.Join(n.body, "\n"))

	return []byte(builder.String())
}

// Title returns the text of the first "# " heading, or "".
func (n *Note) Title() string {
	for _, line := range n.body {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return title
		}
	}

	return ""
}

// SetTitle replaces the first "# " heading.
func (n *Note) SetTitle(title string) {
	for idx, line := range n.body {
		if strings.HasPrefix(line, "# ") {
			n.body[idx] = "# " + title

			return
		}
	}
}

// SetMetaField replaces the value of a top-level frontmatter field,
// inserting the field at the end of the block when absent. The parsed
// Meta is not updated; callers re-parse if they need it.
func (n *Note) SetMetaField(field, value string) {
	prefix := field + ":"

	for idx, line := range n.meta {
		if strings.HasPrefix(line, prefix) {
			n.meta[idx] = prefix + " " + value

			return
		}
	}

	n.meta = append(n.meta, prefix+" "+value)
}

// RemoveMetaField deletes a top-level frontmatter field. Returns
// errFieldNotFound wrapped when the field is absent.
func (n *Note) RemoveMetaField(field string) error {
	prefix := field + ":"

	for idx, line := range n.meta {
		if strings.HasPrefix(line, prefix) {
			n.meta = append(n.meta[:idx], n.meta[idx+1:]...)

			return nil
		}
	}

	return fmt.Errorf("%w: %s", errFieldNotFound, field)
}

// Backlink returns the first backlink line in the body, its line index,
// and whether one exists.
func (n *Note) Backlink() (Backlink, int, bool) {
	for idx, line := range n.body {
		if back, ok := ParseBacklink(line); ok {
			return back, idx, true
		}
	}

	return Backlink{}, -1, false
}

// SetBacklink rewrites the existing backlink line, or inserts one after
// the title when none exists.
func (n *Note) SetBacklink(back Backlink) {
	if _, idx, ok := n.Backlink(); ok {
		n.body[idx] = back.Render()

		return
	}

	for idx, line := range n.body {
		if strings.HasPrefix(line, "# ") {
			rest := append([]string{"", back.Render()}, n.body[idx+1:]...)
			n.body = append(n.body[:idx+1], rest...)

			return
		}
	}

	n.body = append(n.body, back.Render())
}

// TaskLineRef is a task line located in the body.
type TaskLineRef struct {
	Index int
	Line  TaskLine
}

// TaskLines returns every forward-link line in the body, in order.
func (n *Note) TaskLines() []TaskLineRef {
	var refs []TaskLineRef

	for idx, line := range n.body {
		if task, ok := ParseTaskLine(line); ok {
			refs = append(refs, TaskLineRef{Index: idx, Line: task})
		}
	}

	return refs
}

// SetTaskLine replaces the body line at idx with the rendered task line.
func (n *Note) SetTaskLine(idx int, task TaskLine) {
	n.body[idx] = task.Render()
}

// SetLine replaces one body line verbatim.
func (n *Note) SetLine(idx int, line string) {
	n.body[idx] = line
}

// RemoveLine deletes one body line.
func (n *Note) RemoveLine(idx int) {
	n.body = append(n.body[:idx], n.body[idx+1:]...)
}

// AppendTaskLine adds a forward-link line to the task list: after the
// last existing task line, or at the end of the body under the last
// heading when the list is empty.
func (n *Note) AppendTaskLine(task TaskLine) {
	refs := n.TaskLines()
	if len(refs) > 0 {
		last := refs[len(refs)-1].Index
		rest := append([]string{task.Render()}, n.body[last+1:]...)
		n.body = append(n.body[:last+1], rest...)

		return
	}

	// Trim trailing blank lines so the new line attaches to the content.
	end := len(n.body)
	for end > 0 && strings.TrimSpace(n.body[end-1]) == "" {
		end--
	}

	n.body = append(n.body[:end], task.Render(), "")
}

// ReplaceTaskRegion replaces the contiguous body region from the first
// task line to the last task or separator line with the given lines.
// No-op when the note has no task lines.
func (n *Note) ReplaceTaskRegion(lines []string) {
	refs := n.TaskLines()
	if len(refs) == 0 {
		return
	}

	first := refs[0].Index
	last := refs[len(refs)-1].Index

	// The separator may trail the last task line when the closed group
	// was emptied; fold it into the region.
	if last+1 < len(n.body) && n.body[last+1] == Separator {
		last++
	}

	// A separator immediately before the first task line belongs to the
	// region too.
	if first > 0 && n.body[first-1] == Separator {
		first--
	}

	rest := append(append([]string{}, lines...), n.body[last+1:]...)
	n.body = append(n.body[:first], rest...)
}
