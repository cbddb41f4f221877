package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrProvision indicates snapshot provisioning failed: the source repository
// is missing or a copy could not complete. No half-copied snapshot survives
// a failed provision.
var ErrProvision = errors.New("snapshot provisioning failed")

// SnapshotSet holds the isolated repository copies provisioned for one run
// of one repository. Each path is owned exclusively by a single worker.
type SnapshotSet struct {
	Root  string   // Versioned working directory holding every copy
	Paths []string // One full repository copy per worker, tempDir_<i>
}

// Cleanup removes the versioned working directory and every snapshot in it.
// Safe to call on a nil set or more than once.
func (s *SnapshotSet) Cleanup() error {
	if s == nil || s.Root == "" {
		return nil
	}
	return os.RemoveAll(s.Root)
}

// NextVersionedDir returns the first non-existing "<base>_v<N>" path,
// scanning N upward from 0. Prior runs are never overwritten; versioning is
// what keeps concurrent and repeated runs from colliding in the shared
// temp-directory namespace.
func NextVersionedDir(base string) string {
	version := 0
	candidate := fmt.Sprintf("%s_v%d", base, version)
	for {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		version++
		candidate = fmt.Sprintf("%s_v%d", base, version)
	}
}

// ProvisionSnapshots copies the source repository into count independent
// snapshots under a freshly created versioned directory. Copying the full
// history store per snapshot is expensive but is what makes concurrent
// history scans contention-free: no two workers ever touch the same files.
// On any failure the whole versioned directory is removed before returning.
func ProvisionSnapshots(sourceRepo, baseDir string, count int) (*SnapshotSet, error) {
	info, err := os.Stat(sourceRepo)
	if err != nil {
		return nil, fmt.Errorf("%w: source repository %q: %v", ErrProvision, sourceRepo, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: source repository %q is not a directory", ErrProvision, sourceRepo)
	}

	root := NextVersionedDir(baseDir)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: cannot create %q: %v", ErrProvision, root, err)
	}

	set := &SnapshotSet{Root: root}
	for i := range count {
		dst := filepath.Join(root, fmt.Sprintf("tempDir_%d", i))
		if err := os.CopyFS(dst, os.DirFS(sourceRepo)); err != nil {
			_ = set.Cleanup()
			return nil, fmt.Errorf("%w: copying %q to %q: %v", ErrProvision, sourceRepo, dst, err)
		}
		set.Paths = append(set.Paths, dst)
	}
	return set, nil
}
