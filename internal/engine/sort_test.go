package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/lbugnon/cortex-pkm/internal/note"
)

func sortedTaskRegion(t *testing.T, body string) []string {
	t.Helper()

	doc, err := note.Parse([]byte("---\ntype: project\nstatus: planning\n---\n# P\n\n## Tasks\n" + body))
	require.NoError(t, err)

	sortTaskRegion(doc)

	reparsed, err := note.Parse(doc.Render())
	require.NoError(t, err)

	var region []string

	inRegion := false

	for _, line := range splitBody(reparsed) {
		_, isTask := note.ParseTaskLine(line)
		if isTask || (inRegion && line == note.Separator) {
			region = append(region, line)
			inRegion = true
		} else if inRegion {
			break
		}
	}

	return region
}

func splitBody(doc *note.Note) []string {
	rendered := string(doc.Render())

	var lines []string

	start := 0

	for idx := 0; idx < len(rendered); idx++ {
		if rendered[idx] == '\n' {
			lines = append(lines, rendered[start:idx])
			start = idx + 1
		}
	}

	return lines
}

func TestSortByPrecedence(t *testing.T) {
	t.Parallel()

	// [done, blocked, todo, active] sorts to
	// [blocked, active, todo, separator, done].
	got := sortedTaskRegion(t,
		"- [x] [D](p.d)\n- [o] [B](p.b)\n- [ ] [T](p.t)\n- [.] [A](p.a)\n")

	want := []string{
		"- [o] [B](p.b)",
		"- [.] [A](p.a)",
		"- [ ] [T](p.t)",
		note.Separator,
		"- [x] [D](p.d)",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted region mismatch (-want +got):\n%s", diff)
	}
}

func TestSortStableWithinClass(t *testing.T) {
	t.Parallel()

	got := sortedTaskRegion(t,
		"- [ ] [T1](p.t1)\n- [ ] [T2](p.t2)\n- [.] [A1](p.a1)\n- [ ] [T3](p.t3)\n")

	want := []string{
		"- [.] [A1](p.a1)",
		"- [ ] [T1](p.t1)",
		"- [ ] [T2](p.t2)",
		"- [ ] [T3](p.t3)",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted region mismatch (-want +got):\n%s", diff)
	}
}

func TestSortSeparatorOnlyWhenBothGroups(t *testing.T) {
	t.Parallel()

	// All open: no separator.
	got := sortedTaskRegion(t, "- [ ] [T](p.t)\n- [.] [A](p.a)\n")
	want := []string{"- [.] [A](p.a)", "- [ ] [T](p.t)"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted region mismatch (-want +got):\n%s", diff)
	}

	// All closed: no separator either.
	got = sortedTaskRegion(t, "- [x] [D](p.d)\n- [~] [X](p.x)\n")
	want = []string{"- [x] [D](p.d)", "- [~] [X](p.x)"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted region mismatch (-want +got):\n%s", diff)
	}
}

func TestSortRemovesStaleSeparator(t *testing.T) {
	t.Parallel()

	// A previously closed task reopened: the separator goes away.
	got := sortedTaskRegion(t, "- [ ] [T](p.t)\n---\n- [ ] [R](p.r)\n")
	want := []string{"- [ ] [T](p.t)", "- [ ] [R](p.r)"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sorted region mismatch (-want +got):\n%s", diff)
	}
}
