package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want TaskLine
		ok   bool
	}{
		{
			name: "todo",
			line: "- [ ] [Task 1](myproject.task1)",
			want: TaskLine{Status: StatusTodo, Link: Link{Label: "Task 1", Target: "myproject.task1"}},
			ok:   true,
		},
		{
			name: "done with archive prefix",
			line: "- [x] [Task 2](archive/myproject.task2)",
			want: TaskLine{Status: StatusDone, Link: Link{Label: "Task 2", Target: "archive/myproject.task2"}},
			ok:   true,
		},
		{
			name: "unknown glyph",
			line: "- [?] [Task](p.t)",
			ok:   false,
		},
		{
			name: "plain bullet",
			line: "- just a list item",
			ok:   false,
		},
		{
			name: "separator",
			line: "---",
			ok:   false,
		},
		{
			name: "prose",
			line: "Some text with a [link](p.t) inline.",
			ok:   false,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseTaskLine(testCase.line)
			require.Equal(t, testCase.ok, ok)

			if ok {
				assert.Equal(t, testCase.want, got)
				assert.Equal(t, testCase.line, got.Render())
			}
		})
	}
}

func TestParseBacklink(t *testing.T) {
	t.Parallel()

	back, ok := ParseBacklink("[< My Project](myproject)")
	require.True(t, ok)
	assert.Equal(t, "My Project", back.Link.Label)
	assert.Equal(t, "myproject", back.Link.Target)
	assert.Equal(t, "[< My Project](myproject)", back.Render())

	_, ok = ParseBacklink("[Not a backlink](x)")
	assert.False(t, ok)
}

func TestLinkIdentity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p1.setup", Link{Target: "p1.setup"}.Identity())
	assert.Equal(t, "p1.setup", Link{Target: "archive/p1.setup"}.Identity())
	assert.Equal(t, "p1.setup", Link{Target: "../p1.setup"}.Identity())
}

func TestTargetLocation(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Active, Link{Target: "p1"}.TargetLocation(Active))
	assert.Equal(t, Archived, Link{Target: "archive/p1"}.TargetLocation(Active))
	assert.Equal(t, Active, Link{Target: "../p1"}.TargetLocation(Archived))
	assert.Equal(t, Archived, Link{Target: "p1"}.TargetLocation(Archived))
}

func TestRelTarget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "p1.t", RelTarget(Active, Active, "p1.t"))
	assert.Equal(t, "archive/p1.t", RelTarget(Active, Archived, "p1.t"))
	assert.Equal(t, "../p1.t", RelTarget(Archived, Active, "p1.t"))
	assert.Equal(t, "p1.t", RelTarget(Archived, Archived, "p1.t"))
}
