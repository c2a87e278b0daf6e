// Package discovery implements TraceDiscovery (spec.md §4.1): finding CTF
// trace directories under a filesystem root and deriving a short display
// name for each, grounded on the reference fs.c's fs_path_is_ctf_trace /
// ctf_fs_component_create_ctf_fs_trace / create_trace_names walk.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/c360/ctffs/component"
	"github.com/c360/ctffs/errors"
)

// Trace is one discovered CTF trace directory: its canonical absolute path
// and the display name derived relative to the other traces found under the
// same root.
type Trace struct {
	Path string
	Name string
}

// Discover walks rootPath looking for CTF trace directories — directories
// containing a regular file named "metadata" — and returns one Trace per
// directory found, each carrying a display name unique among the result
// (spec.md §4.1, §8 property 1). logger may be nil.
//
// rootPath is resolved to a canonical absolute path first; the canonical
// filesystem root ("/") is rejected outright, matching the reference's
// refusal to treat the whole filesystem as a candidate trace tree.
func Discover(rootPath string, logger *component.Logger) ([]Trace, error) {
	abs, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, errors.WrapInvalid(err, "discovery", "Discover", "resolve absolute path")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, errors.WrapInvalid(err, "discovery", "Discover", "resolve symlinks")
	}
	if filepath.Clean(resolved) == string(filepath.Separator) {
		return nil, errors.WrapInvalid(errors.ErrPathIsRoot, "discovery", "Discover", resolved)
	}

	var paths []string
	if err := findTraces(resolved, &paths, logger); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errors.WrapInvalid(errors.ErrEmptyResult, "discovery", "Discover", resolved)
	}

	names := DeriveNames(paths)
	traces := make([]Trace, len(paths))
	for i, p := range paths {
		traces[i] = Trace{Path: p, Name: names[i]}
	}
	return traces, nil
}

// isCTFTraceDir reports whether path contains a regular "metadata" file.
func isCTFTraceDir(path string) (bool, error) {
	info, err := os.Stat(filepath.Join(path, "metadata"))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// findTraces recurses into path, appending every trace directory found to
// out. A directory recognized as a trace is not recursed into further,
// matching the reference's assumption that traces don't nest. Permission
// errors on a subdirectory are logged and skipped rather than failing the
// whole walk, since one unreadable directory under an otherwise valid root
// shouldn't abort discovery of the rest.
func findTraces(path string, out *[]string, logger *component.Logger) error {
	isTrace, err := isCTFTraceDir(path)
	if err != nil {
		if os.IsPermission(err) {
			if logger != nil {
				logger.Debug("skipping unreadable directory", "path", path, "error", err)
			}
			return nil
		}
		return errors.WrapTransient(err, "discovery", "findTraces", path)
	}
	if isTrace {
		*out = append(*out, path)
		return nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsPermission(err) {
			if logger != nil {
				logger.Debug("skipping unreadable directory", "path", path, "error", err)
			}
			return nil
		}
		return errors.WrapTransient(err, "discovery", "findTraces", path)
	}

	for _, entry := range entries {
		if !entryIsDir(entry) {
			continue
		}
		if err := findTraces(filepath.Join(path, entry.Name()), out, logger); err != nil {
			return err
		}
	}
	return nil
}

func entryIsDir(entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink != 0 {
		info, err := entry.Info()
		return err == nil && info.IsDir()
	}
	return entry.IsDir()
}

// DeriveNames computes a short display name for each of paths by stripping
// their longest common prefix, aligned to a '/' boundary (spec.md §4.1,
// grounded on the reference's create_trace_names byte-stepping algorithm).
// A single path strips everything but its final path component.
func DeriveNames(paths []string) []string {
	strip := commonPrefixLen(paths)
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = p[strip:]
	}
	return names
}

// commonPrefixLen returns the number of leading bytes shared by every path
// in paths, rounded down to the end of the last fully shared path
// component (i.e. the returned index is always right after a '/', or 0).
func commonPrefixLen(paths []string) int {
	if len(paths) == 0 {
		return 0
	}
	charsToStrip := 0
	for at := 0; ; at++ {
		var commonCh byte
		hasCommon := false
		done := false
		for _, p := range paths {
			if at >= len(p) {
				done = true
				break
			}
			ch := p[at]
			if !hasCommon {
				commonCh = ch
				hasCommon = true
				continue
			}
			if ch != commonCh {
				done = true
				break
			}
		}
		if done {
			break
		}
		if commonCh == '/' {
			charsToStrip = at + 1
		}
	}
	return charsToStrip
}
