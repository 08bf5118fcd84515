// Package rename applies batches of in-place file renames that keep each
// file's extension.
package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"imagesaid/internal/common/fsutil"
	"imagesaid/pkg/types"
)

var renamesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "imagesaid",
		Name:      "renames_total",
		Help:      "File renames by result",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(renamesTotal)
}

// Extension returns the text after the last '.' of the base name of path, or
// "" if there is none. A name whose only dot is the leading one (".env") has
// no extension.
func Extension(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

// Destination returns the path op renames to: new_name plus the source
// extension, in the source directory.
func Destination(op types.RenameOperation) string {
	name := op.NewName
	if ext := Extension(op.OldPath); ext != "" {
		name += "." + ext
	}
	return filepath.Join(filepath.Dir(op.OldPath), name)
}

// Apply validates every operation, then renames in order and stops at the
// first failure. It returns the number of renames applied. Earlier renames are
// not rolled back.
func Apply(ops []types.RenameOperation) (int, error) {
	dests, err := plan(ops)
	if err != nil {
		renamesTotal.WithLabelValues("rejected").Inc()
		return 0, err
	}
	applied := 0
	for i, op := range ops {
		dest := dests[i]
		if dest == filepath.Clean(op.OldPath) {
			applied++
			continue
		}
		if err := renameNoReplace(op.OldPath, dest); err != nil {
			renamesTotal.WithLabelValues("error").Inc()
			return applied, &RenameFailedError{Path: op.OldPath, Dest: dest, Applied: applied, Err: err}
		}
		renamesTotal.WithLabelValues("ok").Inc()
		applied++
	}
	return applied, nil
}

// plan checks sources, names and destination collisions before anything on
// disk changes. A destination may only be the source of an earlier
// operation, so a batch that passes plan never meets a taken name midway.
func plan(ops []types.RenameOperation) ([]string, error) {
	dests := make([]string, len(ops))
	sourceIndex := make(map[string]int, len(ops))
	for i, op := range ops {
		src := filepath.Clean(op.OldPath)
		if prev, dup := sourceIndex[src]; dup {
			return nil, &RenameFailedError{Path: op.OldPath, Dest: Destination(op),
				Err: fmt.Errorf("source also renamed by operation %d: %w", prev+1, os.ErrExist)}
		}
		sourceIndex[src] = i
	}
	seen := make(map[string]string, len(ops))
	for i, op := range ops {
		if !fsutil.PathExists(op.OldPath) {
			return nil, &fsutil.NotFoundError{Path: op.OldPath}
		}
		if strings.TrimSpace(op.NewName) == "" || op.NewName == "." || op.NewName == ".." ||
			strings.ContainsAny(op.NewName, `/\`) {
			return nil, &InvalidNameError{Path: op.OldPath, Name: op.NewName}
		}
		dest := Destination(op)
		if prev, dup := seen[dest]; dup {
			return nil, &RenameFailedError{Path: op.OldPath, Dest: dest,
				Err: fmt.Errorf("same destination as %s: %w", prev, os.ErrExist)}
		}
		seen[dest] = op.OldPath
		if dest != filepath.Clean(op.OldPath) && !vacatedBefore(sourceIndex, dest, i) && occupied(op.OldPath, dest) {
			return nil, &RenameFailedError{Path: op.OldPath, Dest: dest,
				Err: fmt.Errorf("destination exists: %w", os.ErrExist)}
		}
		dests[i] = dest
	}
	return dests, nil
}

// vacatedBefore reports whether dest is moved away by an operation that
// runs before operation i.
func vacatedBefore(sourceIndex map[string]int, dest string, i int) bool {
	j, ok := sourceIndex[dest]
	return ok && j < i
}

// Disambiguate returns a copy of ops in which every destination is free:
// names already claimed earlier in the batch, or held on disk by a file
// that is not moved away first, get a numeric suffix ("name_2", "name_3").
// Operations whose source cannot be read are left unchanged for Apply to
// report.
func Disambiguate(ops []types.RenameOperation) []types.RenameOperation {
	out := make([]types.RenameOperation, len(ops))
	sourceIndex := make(map[string]int, len(ops))
	for i, op := range ops {
		if _, dup := sourceIndex[filepath.Clean(op.OldPath)]; !dup {
			sourceIndex[filepath.Clean(op.OldPath)] = i
		}
	}
	claimed := make(map[string]bool, len(ops))
	for i, op := range ops {
		out[i] = op
		if strings.TrimSpace(op.NewName) == "" {
			continue
		}
		taken := func(dest string) bool {
			if claimed[dest] {
				return true
			}
			if dest == filepath.Clean(op.OldPath) || vacatedBefore(sourceIndex, dest, i) {
				return false
			}
			return occupied(op.OldPath, dest)
		}
		base := op.NewName
		for n := 2; taken(Destination(out[i])); n++ {
			out[i].NewName = fmt.Sprintf("%s_%d", base, n)
		}
		claimed[Destination(out[i])] = true
	}
	return out
}

// occupied reports whether dest names an existing file other than src. On
// case-insensitive filesystems a case-only rename points at src itself.
func occupied(src, dest string) bool {
	di, err := os.Stat(dest)
	if err != nil {
		return fsutil.PathExists(dest)
	}
	si, err := os.Stat(src)
	return err != nil || !os.SameFile(si, di)
}

func renameNoReplace(src, dest string) error {
	if occupied(src, dest) {
		return fmt.Errorf("destination exists: %w", os.ErrExist)
	}
	return os.Rename(src, dest)
}
