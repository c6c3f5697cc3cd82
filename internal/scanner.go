package internal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// MatchRecord is reported for every matching line.
type MatchRecord struct {
	FilePath  string
	LineIndex int // 0-based
	Line      string
}

// ScanOutcome is the result of scanning one file: matches, or Err.
type ScanOutcome struct {
	File    FileRef
	Matches []MatchRecord
	Err     error
}

// FileScanner runs the matcher over a file list, one file at a time.
type FileScanner struct {
	pattern Pattern
	enc     encoding.Encoding
	onDiag  func(Diagnostic)
}

func NewFileScanner(opts *SearchOptions, onDiag func(Diagnostic)) (*FileScanner, error) {
	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if onDiag == nil {
		onDiag = LogDiagnostic
	}
	return &FileScanner{
		pattern: NewPlainPattern(opts.Query, opts.CaseSensitive),
		enc:     enc,
		onDiag:  onDiag,
	}, nil
}

// ScanFile reads ref completely and returns its matching lines.
func (s *FileScanner) ScanFile(ctx context.Context, ref FileRef) ScanOutcome {
	contents, err := readText(ctx, ref, s.enc)
	if err != nil {
		return ScanOutcome{File: ref, Err: err}
	}
	name := ref.String()
	lines := matchLines(contents, s.pattern)
	out := ScanOutcome{File: ref, Matches: make([]MatchRecord, 0, len(lines))}
	for _, m := range lines {
		out.Matches = append(out.Matches, MatchRecord{FilePath: name, LineIndex: m.Index, Line: m.Line})
	}
	return out
}

// Scan processes files in order and returns the total number of matches.
// A file that cannot be read is reported to onDiag and skipped.
func (s *FileScanner) Scan(ctx context.Context, files FileList, stats *AppStats, onMatch func(MatchRecord)) (int, error) {
	logrus.WithFields(logrus.Fields{"pattern": s.pattern.Desc(), "files": len(files)}).Debug("Scanning files")
	total := 0
	for _, ref := range files {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		logrus.WithField("file", ref.String()).Debug("Searching in file")
		res := s.ScanFile(ctx, ref)
		if res.Err != nil {
			s.onDiag(Diagnostic{Kind: ErrFileRead, Path: ref.String(), Err: res.Err})
			continue
		}
		stats.FilesScanned.Add(1)
		for _, m := range res.Matches {
			onMatch(m)
		}
		total += len(res.Matches)
	}
	return total, nil
}

// NewResultSink returns a closure printing matches, counting them and
// optionally appending matched lines to w.
func NewResultSink(out *Printer, stats *AppStats, w io.Writer) func(MatchRecord) {
	return func(m MatchRecord) {
		stats.Matches.Add(1)
		out.Match(m)
		if w != nil {
			if _, err := io.WriteString(w, m.Line+"\n"); err != nil {
				logrus.WithError(err).Warn("write matches file")
			}
		}
	}
}

// Run executes one search: traverse the root, scan every file, print the
// summary. Only an invalid root or cancellation make it fail.
func Run(ctx context.Context, opts *SearchOptions, out *Printer, onDiag func(Diagnostic)) (*AppStats, error) {
	stats := &AppStats{}
	stats.Start()

	if onDiag == nil {
		onDiag = LogDiagnostic
	}
	counted := func(d Diagnostic) {
		if d.Failure() {
			stats.Errors.Add(1)
		}
		onDiag(d)
	}

	scanner, err := NewFileScanner(opts, counted)
	if err != nil {
		return stats, err
	}

	var sinkFile *os.File
	if opts.SaveMatchesFile != "" {
		sinkFile, err = os.OpenFile(opts.SaveMatchesFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return stats, fmt.Errorf("open matches file: %w", err)
		}
		defer sinkFile.Close()
	}
	var sinkW io.Writer
	if sinkFile != nil {
		sinkW = sinkFile
	}

	files, err := NewTraverser(opts, counted).Traverse(ctx, opts.Root)
	if err != nil {
		return stats, err
	}
	stats.FilesFound.Store(int64(len(files)))

	total, err := scanner.Scan(ctx, files, stats, NewResultSink(out, stats, sinkW))
	if err != nil {
		return stats, err
	}
	out.Summary(total)
	return stats, nil
}
