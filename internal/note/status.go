package note

import (
	"errors"
	"fmt"
	"slices"
)

// TaskStatus is the lifecycle status of a task or task group.
type TaskStatus string

// Valid task statuses.
const (
	StatusTodo    TaskStatus = "todo"
	StatusActive  TaskStatus = "active"
	StatusBlocked TaskStatus = "blocked"
	StatusWaiting TaskStatus = "waiting"
	StatusDone    TaskStatus = "done"
	StatusDropped TaskStatus = "dropped"
)

// ProjectStatus is the lifecycle status of a project. It is a separate
// enumeration from TaskStatus: projects are driven by their descendants,
// not by a checkbox.
type ProjectStatus string

// Valid project statuses.
const (
	ProjectPlanning ProjectStatus = "planning"
	ProjectActive   ProjectStatus = "active"
	ProjectDone     ProjectStatus = "done"
)

// statusPrecedence orders task statuses for group roll-up and sorting,
// highest precedence first. The first status present among a group's
// children determines the group's rolled-up status.
//
//nolint:gochecknoglobals // package-level constant
var statusPrecedence = []TaskStatus{
	StatusBlocked,
	StatusActive,
	StatusWaiting,
	StatusTodo,
	StatusDone,
	StatusDropped,
}

//nolint:gochecknoglobals // package-level constant
var projectStatuses = []ProjectStatus{
	ProjectPlanning,
	ProjectActive,
	ProjectDone,
}

var (
	errUnknownStatus        = errors.New("unknown task status")
	errUnknownProjectStatus = errors.New("unknown project status")
)

// ParseTaskStatus validates a frontmatter status value.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	if !slices.Contains(statusPrecedence, status) {
		return "", fmt.Errorf("%w: %q", errUnknownStatus, s)
	}

	return status, nil
}

// ParseProjectStatus validates a project frontmatter status value.
func ParseProjectStatus(s string) (ProjectStatus, error) {
	status := ProjectStatus(s)
	if !slices.Contains(projectStatuses, status) {
		return "", fmt.Errorf("%w: %q", errUnknownProjectStatus, s)
	}

	return status, nil
}

// Precedence returns the sort rank of a status, 0 being the highest
// (blocked). Panics on an unknown status: callers are expected to have
// validated statuses at parse time, so an unknown value here is a bug.
func (s TaskStatus) Precedence() int {
	idx := slices.Index(statusPrecedence, s)
	if idx < 0 {
		panic(fmt.Sprintf("note: unknown task status %q", s))
	}

	return idx
}

// Closed reports whether the status belongs to the closed group
// (done or dropped) in a sorted task list.
func (s TaskStatus) Closed() bool {
	return s == StatusDone || s == StatusDropped
}

// Glyph returns the single-character checkbox symbol rendered inside a
// forward-link line. The mapping is fixed.
func (s TaskStatus) Glyph() byte {
	switch s {
	case StatusTodo:
		return ' '
	case StatusActive:
		return '.'
	case StatusBlocked:
		return 'o'
	case StatusWaiting:
		return '/'
	case StatusDone:
		return 'x'
	case StatusDropped:
		return '~'
	}

	panic(fmt.Sprintf("note: unknown task status %q", s))
}

// StatusForGlyph maps a checkbox character back to its task status.
// Returns ("", false) for an unknown glyph.
func StatusForGlyph(glyph byte) (TaskStatus, bool) {
	for _, status := range statusPrecedence {
		if status.Glyph() == glyph {
			return status, true
		}
	}

	return "", false
}
