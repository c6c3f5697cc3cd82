package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
	"github.com/sirupsen/logrus"
)

const maxArchiveFiles = 10000 // zip-bomb protection

var errArchiveLimit = errors.New("archive file limit reached")

// IsArchive by extension. O(1) map lookup
var archiveExt = map[string]struct{}{
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {},
	".rar": {}, ".br": {}, ".lz4": {}, ".lz": {}, ".mz": {},
	".sz": {}, ".s2": {}, ".zz": {}, ".zst": {}, ".7z": {},
}

func IsArchive(path string) bool {
	_, ok := archiveExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// FileRef names one file to scan: a path on disk, or a member of the
// archive at Path when Inner is set.
type FileRef struct {
	Path  string
	Inner string
}

func (r FileRef) String() string {
	if r.Inner == "" {
		return r.Path
	}
	return r.Path + "!" + r.Inner
}

// FileList is the traversal result. Order across files is unspecified.
type FileList []FileRef

type entryKind int

const (
	entryInvalid entryKind = iota
	entryFile
	entryDir
	entryOther
)

// classified is the tagged outcome of looking at one pending path.
type classified struct {
	kind entryKind
	err  error
}

func classify(path string) classified {
	st, err := os.Stat(path)
	switch {
	case err != nil:
		return classified{kind: entryInvalid, err: err}
	case st.IsDir():
		return classified{kind: entryDir}
	case st.Mode().IsRegular():
		return classified{kind: entryFile}
	default:
		return classified{kind: entryOther, err: fmt.Errorf("not a regular file (%s)", st.Mode().Type())}
	}
}

type pending struct {
	path  string
	depth int
}

// Traverser expands a root into the regular files below it.
// The pending set is a LIFO stack, so discovery is depth-first, but callers
// must not rely on any order across files.
type Traverser struct {
	opts   *SearchOptions
	onDiag func(Diagnostic)
}

// NewTraverser returns a traverser reporting recovered problems to onDiag.
// A nil onDiag logs them.
func NewTraverser(opts *SearchOptions, onDiag func(Diagnostic)) *Traverser {
	if onDiag == nil {
		onDiag = LogDiagnostic
	}
	return &Traverser{opts: opts, onDiag: onDiag}
}

// Traverse returns every regular file reachable from root. Per-entry
// failures become diagnostics; only an invalid root or a cancelled ctx
// return an error.
func (t *Traverser) Traverse(ctx context.Context, root string) (FileList, error) {
	if err := validateRoot(root); err != nil {
		return nil, err
	}

	var files FileList
	stack := []pending{{path: root}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := classify(cur.path)
		switch c.kind {
		case entryInvalid:
			t.diag(ErrPathInvalid, cur.path, c.err)

		case entryOther:
			t.diag(ErrFilteredOut, cur.path, c.err)

		case entryDir:
			if t.opts.Depth > 0 && cur.depth >= t.opts.Depth {
				logrus.WithField("path", cur.path).Debug("Depth limit reached")
				continue
			}
			ents, err := os.ReadDir(cur.path)
			if err != nil {
				t.diag(ErrDirectoryRead, cur.path, err)
				continue
			}
			for _, e := range ents {
				stack = append(stack, pending{path: filepath.Join(cur.path, e.Name()), depth: cur.depth + 1})
			}

		case entryFile:
			if t.opts.Archives && IsArchive(cur.path) {
				files = t.walkArchive(ctx, cur.path, files)
				continue
			}
			if !t.opts.allowedExt(strings.ToLower(filepath.Ext(cur.path))) {
				t.diag(ErrFilteredOut, cur.path, nil)
				continue
			}
			files = append(files, FileRef{Path: cur.path})
		}
	}
	return files, nil
}

// walkArchive appends the archive members passing the extension filter.
func (t *Traverser) walkArchive(ctx context.Context, path string, files FileList) FileList {
	fsys, err := archives.FileSystem(ctx, path, nil)
	if err != nil {
		t.diag(ErrDirectoryRead, path, err)
		return files
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}

	count := 0
	err = iofs.WalkDir(fsys, ".", func(inner string, d iofs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			t.diag(ErrPathInvalid, FileRef{Path: path, Inner: inner}.String(), err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if count >= maxArchiveFiles {
			return errArchiveLimit
		}
		ref := FileRef{Path: path, Inner: inner}
		if !t.opts.allowedExt(strings.ToLower(filepath.Ext(inner))) {
			t.diag(ErrFilteredOut, ref.String(), nil)
			return nil
		}
		files = append(files, ref)
		count++
		return nil
	})
	if errors.Is(err, errArchiveLimit) {
		logrus.Warnf("Archive %s truncated: too many files (>= %d)", path, maxArchiveFiles)
	} else if err != nil && ctx.Err() == nil {
		t.diag(ErrDirectoryRead, path, err)
	}
	return files
}

func (t *Traverser) diag(kind error, path string, err error) {
	t.onDiag(Diagnostic{Kind: kind, Path: path, Err: err})
}
