package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

const (
	dirPerms  = 0o750
	filePerms = 0o600
)

// ApplyMutations writes a mutation batch under the vault root: deletes
// first, then atomic writes in batch order. Each individual write is
// atomic (write-to-temp, rename); the batch as a whole is not, which is
// why the validator treats a half-applied batch as detectable damage
// rather than assuming OS-level atomicity.
func ApplyMutations(root string, mutations []Mutation) error {
	for _, mutation := range mutations {
		path := filepath.Join(root, mutation.Path)

		if mutation.Delete {
			removeErr := os.Remove(path)
			if removeErr != nil && !os.IsNotExist(removeErr) {
				return fmt.Errorf("removing %s: %w", mutation.Path, removeErr)
			}

			continue
		}

		mkdirErr := os.MkdirAll(filepath.Dir(path), dirPerms)
		if mkdirErr != nil {
			return fmt.Errorf("creating directory for %s: %w", mutation.Path, mkdirErr)
		}

		writeErr := atomic.WriteFile(path, bytes.NewReader(mutation.Content))
		if writeErr != nil {
			return fmt.Errorf("writing %s: %w", mutation.Path, writeErr)
		}

		// atomic.WriteFile leaves temp-file permissions on new files.
		chmodErr := os.Chmod(path, filePerms)
		if chmodErr != nil {
			return fmt.Errorf("setting permissions on %s: %w", mutation.Path, chmodErr)
		}
	}

	return nil
}
