// Package walker enumerates a directory tree in deterministic pre-order.
package walker

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultExclude lists the version-control metadata directories that are
// never descended into.
var DefaultExclude = []string{".git", ".svn"}

// Visit describes one directory. Subdirs and Files are sorted ascending.
type Visit struct {
	// Dir is the directory path, built by joining names onto the root.
	Dir string
	// Rel is Dir relative to the root, always "/"-separated and prefixed
	// with "." ("." for the root itself, "./sub" below it).
	Rel     string
	Subdirs []string
	Files   []string
	// Pruned holds the excluded subdirectory names found in Dir.
	Pruned []string
}

// Options controls a walk.
type Options struct {
	// Exclude names subdirectories to skip. Nil means DefaultExclude; an
	// empty non-nil slice disables exclusion.
	Exclude []string
}

// Error reports a directory that could not be listed.
type Error struct {
	Dir string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("list %s: %v", e.Dir, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Walk returns a lazy, single-use sequence of directory visits starting at
// root. A directory is yielded before any of its subdirectories and
// subdirectories are visited in name order. Symlinks to directories are
// reported in Subdirs and followed; a link cycle is not detected.
//
// A listing failure yields one non-nil *Error and ends the sequence.
func Walk(root string, opts Options) iter.Seq2[Visit, error] {
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	set := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}

	return func(yield func(Visit, error) bool) {
		w := &walk{exclude: set, yield: yield}
		w.visit(root, ".")
	}
}

type walk struct {
	exclude map[string]struct{}
	yield   func(Visit, error) bool
}

// visit reports dir and descends; it returns false once the walk must stop.
func (w *walk) visit(dir, rel string) bool {
	v, err := w.list(dir, rel)
	if err != nil {
		w.yield(Visit{}, &Error{Dir: dir, Err: err})
		return false
	}
	if !w.yield(v, nil) {
		return false
	}
	for _, name := range v.Subdirs {
		if !w.visit(join(dir, name), rel+"/"+name) {
			return false
		}
	}
	return true
}

func (w *walk) list(dir, rel string) (Visit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Visit{}, err
	}

	v := Visit{Dir: dir, Rel: rel}
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			v.Subdirs = append(v.Subdirs, name)
		case e.Type()&fs.ModeSymlink != 0:
			// Classify by target; a dangling link is listed as a file.
			info, err := os.Stat(join(dir, name))
			if err == nil && info.IsDir() {
				v.Subdirs = append(v.Subdirs, name)
				continue
			}
			v.Files = append(v.Files, name)
		default:
			v.Files = append(v.Files, name)
		}
	}

	v.Subdirs, v.Pruned = w.filter(v.Subdirs)
	slices.Sort(v.Subdirs)
	slices.Sort(v.Files)
	return v, nil
}

// filter splits names into the ones to keep and the excluded ones, both as
// new slices.
func (w *walk) filter(names []string) (keep, pruned []string) {
	keep = make([]string, 0, len(names))
	for _, name := range names {
		if _, skip := w.exclude[name]; skip {
			pruned = append(pruned, name)
			continue
		}
		keep = append(keep, name)
	}
	return keep, pruned
}

func join(dir, name string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}

// Join builds the path of name inside a visited directory the same way the
// walker builds child directory paths.
func Join(dir, name string) string {
	return join(dir, name)
}
