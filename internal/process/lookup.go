package process

import (
	"os/exec"
	"path/filepath"
)

// LookPath resolves an executable the way the runner will start it:
// names without a separator are searched on PATH, paths are taken relative
// to dir.
func LookPath(name, dir string) (string, error) {
	if filepath.Base(name) == name {
		return exec.LookPath(name)
	}
	if !filepath.IsAbs(name) && dir != "" {
		name = filepath.Join(dir, name)
	}
	return exec.LookPath(name)
}
