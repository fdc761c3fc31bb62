// Package syncfs implements the project-tree sync algorithm of §4.4/§3: a
// deterministic snapshot of the driver's project directory, a rolling +
// strong signature scheme the agent computes over its own divergent files,
// and the delta compute/apply pair the driver and agent use to reconcile
// them without re-transferring unchanged bytes.
//
// The snapshot walker is grounded on the teacher's
// internal/plugins/copy.copyDirectory (filepath.WalkDir, sha256 hashing,
// mode-bit preservation); the signature/delta scheme has no ready-made
// rsync library in the pack and is built directly from §4.4's prose
// description (see DESIGN.md).
package syncfs

import (
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hpg-dev/hpg/internal/transport"
)

// defaultIgnore names directories never included in a snapshot.
var defaultIgnore = map[string]bool{
	".git": true,
}

// Snapshot walks root and returns a deterministic, path-sorted list of
// every regular file and symlink beneath it, relative to root with forward
// slashes (so Linux driver and Linux/other agent paths always agree).
// Mode bits are captured for every content frame, applied after write, and
// symlinks are transported as their target string, not resolved, exactly
// as §4.4 specifies.
func Snapshot(root string) ([]transport.FileEntry, error) {
	var entries []transport.FileEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && defaultIgnore[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		if info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			entries = append(entries, transport.FileEntry{
				Path:    rel,
				Hash:    fmt.Sprintf("%x", sha256.Sum256([]byte(target))),
				Mode:    uint32(info.Mode().Perm()),
				Symlink: target,
			})
			return nil
		}

		hash, err := hashFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, transport.FileEntry{
			Path: rel,
			Hash: hash,
			Mode: uint32(info.Mode().Perm()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// Diff compares the driver's snapshot against the set of paths the agent
// reports having (with matching hash), returning the paths the agent is
// missing or has out of date (need FullFile or Patch) and the paths the
// agent has that the driver no longer does (need Delete).
func Diff(driverFiles []transport.FileEntry, agentPaths map[string]string) (needFullOrPatch []transport.FileEntry, obsolete []string) {
	driverByPath := make(map[string]bool, len(driverFiles))
	for _, f := range driverFiles {
		driverByPath[f.Path] = true
		if agentHash, ok := agentPaths[f.Path]; !ok || agentHash != f.Hash {
			needFullOrPatch = append(needFullOrPatch, f)
		}
	}
	for path := range agentPaths {
		if !driverByPath[path] {
			obsolete = append(obsolete, path)
		}
	}
	sort.Strings(obsolete)
	return needFullOrPatch, obsolete
}
