package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// LockTimeout is the timeout for acquiring the vault lock.
const LockTimeout = 5 * time.Second

const lockFilePerms = 0o600

// Lock errors.
var (
	errLockTimeout  = errors.New("lock timeout")
	errLockFileOpen = errors.New("failed to open lock file")
)

// vaultLock serializes gate invocations against one vault. The engine
// itself is lock-free; the CLI takes this single lock for the duration
// of a scan-through-write invocation.
type vaultLock struct {
	file *os.File
}

// acquireVaultLock takes an exclusive flock on <vault>/.cortex.lock,
// polling until the timeout.
func acquireVaultLock(vaultDir string, timeout time.Duration) (*vaultLock, error) {
	lockPath := filepath.Join(vaultDir, ".cortex.lock")

	file, openErr := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, lockFilePerms) //nolint:gosec // path is derived from vault dir
	if openErr != nil {
		return nil, fmt.Errorf("%w: %w", errLockFileOpen, openErr)
	}

	deadline := time.Now().Add(timeout)

	const retryInterval = 10 * time.Millisecond

	for {
		flockErr := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if flockErr == nil {
			return &vaultLock{file: file}, nil
		}

		if time.Now().After(deadline) {
			_ = file.Close()

			return nil, fmt.Errorf("%w: %s", errLockTimeout, vaultDir)
		}

		time.Sleep(retryInterval)
	}
}

// release releases the lock.
func (l *vaultLock) release() {
	if l.file != nil {
		_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		_ = l.file.Close()
	}
}

// withVaultLock runs fn while holding the vault lock.
func withVaultLock(vaultDir string, fn func() error) error {
	lock, err := acquireVaultLock(vaultDir, LockTimeout)
	if err != nil {
		return err
	}

	defer lock.release()

	return fn()
}
