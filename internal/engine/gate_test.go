package engine

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbugnon/cortex-pkm/internal/graph"
)

func TestGateConsistentVault(t *testing.T) {
	t.Parallel()

	result := Run(consistentVault(), Request{Policy: testPolicy()})

	assert.False(t, result.Blocked())
	assert.Empty(t, result.Mutations)
}

func TestGateIdempotent(t *testing.T) {
	t.Parallel()

	// Stale glyph and label: task1 went active but the project still
	// shows todo and an outdated title.
	files := consistentVault()
	files["myproject.md"] = vaultFile(
		"type: project\nstatus: active\n",
		"My Project",
		"## Tasks\n- [ ] [Old Title](myproject.task1)\n- [ ] [Group](myproject.group)\n",
	)

	first := Run(files, Request{Policy: testPolicy()})
	require.False(t, first.Blocked())
	require.NotEmpty(t, first.Mutations)

	second := Run(apply(files, first.Mutations), Request{Policy: testPolicy()})
	assert.False(t, second.Blocked())
	assert.Empty(t, second.Mutations, "second run must produce no mutations")
}

func TestGateSynchronizesLinks(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["myproject.md"] = vaultFile(
		"type: project\nstatus: active\n",
		"My Project",
		"## Tasks\n- [ ] [Old Title](myproject.task1)\n- [ ] [Group](myproject.group)\n",
	)

	result := Run(files, Request{Policy: testPolicy()})
	require.False(t, result.Blocked())
	require.Len(t, result.Mutations, 1)

	content := string(result.Mutations[0].Content)
	assert.Contains(t, content, "- [.] [Task 1](myproject.task1)")
	assert.Contains(t, content, "modified: "+testToday)
}

func TestGateBlocksOnViolation(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["myproject.md"] = vaultFile(
		"type: project\nstatus: active\n",
		"My Project",
		"## Tasks\n- [.] [Task 1](myproject.task1)\n- [ ] [Group](myproject.group)\n- [ ] [Ghost](myproject.nonexistent)\n",
	)

	result := Run(files, Request{Policy: testPolicy()})

	require.True(t, result.Blocked())
	assert.Empty(t, result.Mutations)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, BrokenLink, result.Violations[0].Kind)
}

func TestGateArchivesDoneTask(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["myproject.task1.md"] = vaultFile(
		"type: task\nstatus: done\nparent: myproject\n",
		"Task 1",
		"[< My Project](myproject)\n\n## Description\n",
	)

	result := Run(files, Request{Policy: testPolicy()})
	require.False(t, result.Blocked())

	next := apply(files, result.Mutations)

	_, stillActive := next["myproject.task1.md"]
	assert.False(t, stillActive, "done task must leave the active area")

	archived, ok := next["archive/myproject.task1.md"]
	require.True(t, ok, "done task must appear under archive/")
	assert.Contains(t, string(archived), "[< My Project](../myproject)")

	project := string(next["myproject.md"])
	assert.Contains(t, project, "- [x] [Task 1](archive/myproject.task1)")

	// Open group then separator then the archived task's line.
	groupIdx := strings.Index(project, "- [ ] [Group](myproject.group)")
	require.Positive(t, groupIdx)
	sepIdx := strings.Index(project[groupIdx:], "\n---\n")
	doneIdx := strings.Index(project[groupIdx:], "- [x]")
	require.Positive(t, sepIdx)
	require.Positive(t, doneIdx)
	assert.Less(t, sepIdx, doneIdx)
}

func TestArchiveRoundTrip(t *testing.T) {
	t.Parallel()

	original := consistentVault()

	// Complete the task, run the gate, archive happens.
	files := apply(original, nil)
	files["myproject.task1.md"] = replaceLine(t, files["myproject.task1.md"], "status: active", "status: done")

	result := Run(files, Request{Policy: testPolicy()})
	require.False(t, result.Blocked())
	files = apply(files, result.Mutations)

	require.Contains(t, files, "archive/myproject.task1.md")

	// Reopen it in place, run the gate, it comes back.
	files["archive/myproject.task1.md"] = replaceLine(t, files["archive/myproject.task1.md"], "status: done", "status: active")

	result = Run(files, Request{Policy: testPolicy()})
	require.False(t, result.Blocked())
	files = apply(files, result.Mutations)

	require.Contains(t, files, "myproject.task1.md")
	require.NotContains(t, files, "archive/myproject.task1.md")

	// Byte-for-byte apart from the modified date (the glyph cycled
	// x -> . and back).
	wantTask := string(replaceLine(t, original["myproject.task1.md"], "modified: 2026-08-29", "modified: "+testToday))
	if diff := cmp.Diff(wantTask, string(files["myproject.task1.md"])); diff != "" {
		t.Errorf("task after round trip (-want +got):\n%s", diff)
	}

	wantProject := string(replaceLine(t, original["myproject.md"], "modified: 2026-08-29", "modified: "+testToday))
	if diff := cmp.Diff(wantProject, string(files["myproject.md"])); diff != "" {
		t.Errorf("project after round trip (-want +got):\n%s", diff)
	}
}

func TestGateRepairAddsMissingLinks(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["myproject.md"] = vaultFile(
		"type: project\nstatus: active\n",
		"My Project",
		"## Tasks\n- [ ] [Group](myproject.group)\n",
	)

	// Without repair the gate blocks.
	result := Run(files, Request{Policy: testPolicy()})
	require.True(t, result.Blocked())

	// With repair the missing line is inserted and the run proceeds.
	result = Run(files, Request{Policy: testPolicy(), Repair: true})
	require.False(t, result.Blocked())

	next := apply(files, result.Mutations)
	assert.Contains(t, string(next["myproject.md"]), "- [.] [Task 1](myproject.task1)")

	// And the repaired vault is stable.
	second := Run(next, Request{Policy: testPolicy()})
	assert.False(t, second.Blocked())
	assert.Empty(t, second.Mutations)
}

func TestGateRepairFixesParentField(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["otherproj.md"] = vaultFile("type: project\nstatus: planning\n", "Other", "## Tasks\n")
	files["myproject.task1.md"] = vaultFile(
		"type: task\nstatus: active\nparent: otherproj\n",
		"Task 1",
		"[< My Project](myproject)\n\n## Description\n",
	)

	result := Run(files, Request{Policy: testPolicy(), Repair: true})
	require.False(t, result.Blocked())

	next := apply(files, result.Mutations)
	assert.Contains(t, string(next["myproject.task1.md"]), "parent: myproject")
}

func TestGateDeterministicMutationOrder(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	files["myproject.task1.md"] = vaultFile(
		"type: task\nstatus: done\nparent: myproject\n",
		"Task 1",
		"[< My Project](myproject)\n\n## Description\n",
	)

	first := Run(files, Request{Policy: testPolicy()})
	second := Run(files, Request{Policy: testPolicy()})

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("gate output not deterministic (-first +second):\n%s", diff)
	}

	// Deletes sort before writes so a crash leaves a detectable gap,
	// not a duplicate identity.
	for idx := 1; idx < len(first.Mutations); idx++ {
		if first.Mutations[idx].Delete {
			assert.True(t, first.Mutations[idx-1].Delete, "delete after write at %d", idx)
		}
	}
}

func replaceLine(t *testing.T, content []byte, old, newLine string) []byte {
	t.Helper()

	replaced := strings.Replace(string(content), old+"\n", newLine+"\n", 1)
	require.NotEqual(t, string(content), replaced, "line %q not found", old)

	return []byte(replaced)
}

func TestGateBlocksVanishedIdentity(t *testing.T) {
	t.Parallel()

	files := consistentVault()
	previous := identitySet(files)
	previous["myproject.gone"] = true

	result := Run(files, Request{Policy: testPolicy(), Previous: previous})

	require.True(t, result.Blocked())
	assert.Equal(t, PartialRename, result.Violations[0].Kind)
	assert.Equal(t, graph.Identity("myproject.gone"), result.Violations[0].ID)
}
