package note

import (
	"fmt"
	"strings"
)

// Location says which area of the vault a file lives in. Archived files
// sit one directory level below active ones, so links crossing the
// boundary carry a path prefix.
type Location int

// Vault areas.
const (
	Active Location = iota
	Archived
)

func (l Location) String() string {
	if l == Archived {
		return "archived"
	}

	return "active"
}

// archiveDir is the vault subfolder holding archived artifacts.
const archiveDir = "archive"

// Link is a declared reference to another artifact, parsed from a link
// line in a file body.
type Link struct {
	Label  string // display text, kept in sync with the target's title
	Target string // raw link target as written, e.g. "archive/p1.setup"
}

// Identity resolves the raw target to the target's identity by stripping
// any location prefix.
func (l Link) Identity() string {
	target := strings.TrimPrefix(l.Target, "../")
	target = strings.TrimPrefix(target, archiveDir+"/")

	return target
}

// TargetLocation derives the location the raw target points into, given
// the location of the file declaring the link.
func (l Link) TargetLocation(from Location) Location {
	switch from {
	case Active:
		if strings.HasPrefix(l.Target, archiveDir+"/") {
			return Archived
		}

		return Active
	case Archived:
		if strings.HasPrefix(l.Target, "../") {
			return Active
		}

		return Archived
	}

	panic(fmt.Sprintf("note: unknown location %d", from))
}

// RelTarget renders the raw link target for a reference from one
// location to an identity in another.
func RelTarget(from, to Location, identity string) string {
	switch {
	case from == Active && to == Archived:
		return archiveDir + "/" + identity
	case from == Archived && to == Active:
		return "../" + identity
	default:
		return identity
	}
}

// TaskLine is one forward-link line in a container's task list:
//
//	- [x] [Write parser](p1.setup.parser)
type TaskLine struct {
	Status TaskStatus
	Link   Link
}

// Render formats the task line.
func (t TaskLine) Render() string {
	return fmt.Sprintf("- [%c] [%s](%s)", t.Status.Glyph(), t.Link.Label, t.Link.Target)
}

// ParseTaskLine parses a forward-link line. Returns (zero, false) when
// the line is not a task line.
func ParseTaskLine(line string) (TaskLine, bool) {
	rest, ok := strings.CutPrefix(line, "- [")
	if !ok || len(rest) < 2 || rest[1] != ']' {
		return TaskLine{}, false
	}

	status, ok := StatusForGlyph(rest[0])
	if !ok {
		return TaskLine{}, false
	}

	link, ok := parseLink(strings.TrimPrefix(rest[2:], " "))
	if !ok {
		return TaskLine{}, false
	}

	return TaskLine{Status: status, Link: link}, true
}

// Backlink is the single child-to-parent reference near the top of a
// file body:
//
//	[< My Project](myproject)
type Backlink struct {
	Link Link
}

// Render formats the backlink line.
func (b Backlink) Render() string {
	return fmt.Sprintf("[< %s](%s)", b.Link.Label, b.Link.Target)
}

// ParseBacklink parses a backlink line. Returns (zero, false) when the
// line is not a backlink.
func ParseBacklink(line string) (Backlink, bool) {
	rest, ok := strings.CutPrefix(line, "[< ")
	if !ok {
		return Backlink{}, false
	}

	link, ok := parseLink("[" + rest)
	if !ok {
		return Backlink{}, false
	}

	return Backlink{Link: link}, true
}

// parseLink parses a markdown link "[label](target)" spanning the whole
// string.
func parseLink(s string) (Link, bool) {
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, ")") {
		return Link{}, false
	}

	label, target, ok := strings.Cut(s[1:len(s)-1], "](")
	if !ok || strings.ContainsAny(label, "[]") || strings.ContainsAny(target, "()") {
		return Link{}, false
	}

	return Link{Label: label, Target: target}, true
}
