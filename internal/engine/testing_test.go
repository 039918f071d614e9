package engine

import "github.com/lbugnon/cortex-pkm/internal/graph"

// testToday keeps modified-date stamping deterministic in tests.
const testToday = "2026-08-30"

func testPolicy() Policy {
	return Policy{Today: testToday}
}

func vaultFile(meta, title, body string) []byte {
	content := "---\ncreated: 2026-08-29\nmodified: 2026-08-29\n" + meta + "---\n# " + title + "\n"
	if body != "" {
		content += "\n" + body
	}

	return []byte(content)
}

// consistentVault is a vault the gate has nothing to do on: statuses
// propagated, links in sync, lists sorted, nothing to archive.
func consistentVault() map[string][]byte {
	return map[string][]byte{
		"root.md":    vaultFile("", "Cortex", ""),
		"backlog.md": vaultFile("", "Backlog", "## Inbox\n"),
		"myproject.md": vaultFile(
			"type: project\nstatus: active\n",
			"My Project",
			"## Tasks\n- [.] [Task 1](myproject.task1)\n- [ ] [Group](myproject.group)\n",
		),
		"myproject.task1.md": vaultFile(
			"type: task\nstatus: active\nparent: myproject\n",
			"Task 1",
			"[< My Project](myproject)\n\n## Description\n",
		),
		"myproject.group.md": vaultFile(
			"type: task\nstatus: todo\nparent: myproject\n",
			"Group",
			"[< My Project](myproject)\n\n## Tasks\n- [ ] [Sub 1](myproject.group.sub1)\n",
		),
		"myproject.group.sub1.md": vaultFile(
			"type: task\nstatus: todo\nparent: myproject.group\n",
			"Sub 1",
			"[< Group](myproject.group)\n",
		),
	}
}

// consistentVaultWithArchive extends consistentVault with a completed
// subtask already relocated under archive/.
func consistentVaultWithArchive() map[string][]byte {
	files := consistentVault()
	files["myproject.group.md"] = vaultFile(
		"type: task\nstatus: todo\nparent: myproject\n",
		"Group",
		"[< My Project](myproject)\n\n## Tasks\n- [ ] [Sub 1](myproject.group.sub1)\n---\n- [x] [Sub 2](archive/myproject.group.sub2)\n",
	)
	files["archive/myproject.group.sub2.md"] = vaultFile(
		"type: task\nstatus: done\nparent: myproject.group\n",
		"Sub 2",
		"[< Group](../myproject.group)\n",
	)

	return files
}

func identitySet(files map[string][]byte) map[graph.Identity]bool {
	set := make(map[graph.Identity]bool)

	for _, id := range graph.Build(files).Identities() {
		set[id] = true
	}

	return set
}

// apply plays a mutation batch onto an in-memory file set, the way the
// hook would onto disk.
func apply(files map[string][]byte, mutations []Mutation) map[string][]byte {
	next := make(map[string][]byte, len(files))
	for path, content := range files {
		next[path] = content
	}

	for _, mutation := range mutations {
		if mutation.Delete {
			delete(next, mutation.Path)

			continue
		}

		next[mutation.Path] = mutation.Content
	}

	return next
}
