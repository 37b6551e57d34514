// Package workdir implements Workdir, a registry-backed acquirer of
// exclusive working subpaths under a root.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kris-hansen/flowctl/utils/wfconfig"
)

// registry tracks every absolute path acquired anywhere in a Workdir tree,
// shared by a root and all of its descendants.
type registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (r *registry) acquire(path string, existOk bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[path]; ok && !existOk {
		return fmt.Errorf("workdir: path %q has already been acquired", path)
	}
	r.seen[path] = struct{}{}
	return nil
}

// Workdir is a directory together with the registry it shares with its
// ancestors and descendants.
type Workdir struct {
	root string
	reg  *registry
}

// NewRoot creates the root Workdir of a fresh tree, with its own registry.
func NewRoot(root string) *Workdir {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Workdir{root: abs, reg: &registry{seen: make(map[string]struct{})}}
}

// Root returns this Workdir's absolute path.
func (w *Workdir) Root() string {
	return w.root
}

func (w *Workdir) String() string {
	return w.root
}

// AcquireDir acquires relpath as an exclusive child directory of w.
//
// If the directory has already been acquired in this Workdir's registry and
// existOk is false, it fails. If the directory exists on disk and either
// forceEmpty or !existOk, it is recursively removed before being recreated.
func (w *Workdir) AcquireDir(relpath string, forceEmpty, existOk bool) (*Workdir, error) {
	full := filepath.Join(w.root, relpath)
	wfconfig.DebugLog("workdir: acquire_dir(%s, force_empty=%v, exist_ok=%v)", full, forceEmpty, existOk)

	if err := w.reg.acquire(full, existOk); err != nil {
		return nil, err
	}

	if forceEmpty || !existOk {
		if _, err := os.Stat(full); err == nil {
			if err := os.RemoveAll(full); err != nil {
				return nil, fmt.Errorf("workdir: could not delete working directory %s, please delete it manually: %w", full, err)
			}
		}
	}

	if existOk && !forceEmpty {
		if err := os.MkdirAll(full, 0o755); err != nil {
			return nil, fmt.Errorf("workdir: creating %s: %w", full, err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return nil, fmt.Errorf("workdir: creating %s: %w", full, err)
		}
		if err := os.Mkdir(full, 0o755); err != nil {
			if !os.IsExist(err) {
				return nil, fmt.Errorf("workdir: creating %s: %w", full, err)
			}
		}
	}

	return &Workdir{root: full, reg: w.reg}, nil
}

// AcquireFile acquires relpath as an exclusive file path under w, creating
// its parent directory (auto-acquired, exist_ok) if necessary. Returns the
// absolute path; does not create the file itself.
func (w *Workdir) AcquireFile(relpath string, existOk bool) (string, error) {
	full := filepath.Join(w.root, relpath)
	wfconfig.DebugLog("workdir: acquire_file(%s, exist_ok=%v)", full, existOk)

	if err := w.reg.acquire(full, existOk); err != nil {
		return "", err
	}

	if !existOk {
		if _, err := os.Stat(full); err == nil {
			return "", fmt.Errorf("workdir: working file unexpectedly exists, please delete it manually: %s", full)
		}
	}

	parent := filepath.Dir(full)
	if _, err := os.Stat(parent); os.IsNotExist(err) {
		if err := w.reg.acquire(parent, true); err != nil {
			return "", err
		}
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return "", fmt.Errorf("workdir: creating parent directory %s: %w", parent, err)
		}
	}

	return full, nil
}
