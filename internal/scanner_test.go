package internal

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

// helloTree builds a.txt with two "hello" lines and b.txt with none.
func helloTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "Hello world\nHELLO AGAIN\n")
	writeFile(t, filepath.Join(dir, "b.txt"), "nothing here\n")
	return dir
}

func runSearch(t *testing.T, o SearchOptions) (*AppStats, string, *diagCollector) {
	t.Helper()
	noColor(t)
	require.NoError(t, o.Validate())
	opts := prepared(o)
	var out bytes.Buffer
	var diags diagCollector
	stats, err := Run(context.Background(), opts, NewPrinter(&out, opts.SearchRequest), diags.add)
	require.NoError(t, err)
	return stats, out.String(), &diags
}

func TestRun_Scenarios(t *testing.T) {
	dir := helloTree(t)
	a := filepath.Join(dir, "a.txt")

	t.Run("insensitive", func(t *testing.T) {
		stats, out, diags := runSearch(t, SearchOptions{SearchRequest: SearchRequest{Query: "hello", Root: dir}})
		assert.Equal(t, int64(2), stats.Matches.Load())
		assert.Equal(t, int64(2), stats.FilesScanned.Load())
		assert.Empty(t, diags.got)
		assert.Contains(t, out, a+":1: Hello world\n")
		assert.Contains(t, out, a+":2: HELLO AGAIN\n")
		assert.True(t, strings.HasSuffix(out, "Found 2 matches\n"))
	})

	t.Run("sensitive", func(t *testing.T) {
		stats, out, _ := runSearch(t, SearchOptions{SearchRequest: SearchRequest{Query: "hello", Root: dir, CaseSensitive: true}})
		assert.Equal(t, int64(0), stats.Matches.Load())
		assert.Equal(t, "No matches found\n", out)
	})

	t.Run("missing root", func(t *testing.T) {
		stats, out, diags := runSearch(t, SearchOptions{SearchRequest: SearchRequest{Query: "hello", Root: filepath.Join(dir, "nope")}})
		assert.Equal(t, int64(0), stats.FilesFound.Load())
		assert.Equal(t, int64(0), stats.FilesScanned.Load())
		assert.Equal(t, int64(0), stats.Matches.Load())
		assert.Equal(t, int64(1), stats.Errors.Load())
		assert.Len(t, diags.got, 1)
		assert.Equal(t, "No matches found\n", out)
	})
}

func TestFileScanner_ScanFile(t *testing.T) {
	dir := helloTree(t)
	a := filepath.Join(dir, "a.txt")

	s, err := NewFileScanner(prepared(SearchOptions{SearchRequest: SearchRequest{Query: "hello"}}), nil)
	require.NoError(t, err)

	res := s.ScanFile(context.Background(), FileRef{Path: a})
	require.NoError(t, res.Err)
	assert.Equal(t, []MatchRecord{
		{FilePath: a, LineIndex: 0, Line: "Hello world"},
		{FilePath: a, LineIndex: 1, Line: "HELLO AGAIN"},
	}, res.Matches)

	res = s.ScanFile(context.Background(), FileRef{Path: filepath.Join(dir, "b.txt")})
	require.NoError(t, res.Err)
	assert.Empty(t, res.Matches)

	res = s.ScanFile(context.Background(), FileRef{Path: filepath.Join(dir, "gone.txt")})
	assert.Error(t, res.Err)
}

func TestFileScanner_Idempotent(t *testing.T) {
	dir := helloTree(t)
	opts := prepared(SearchOptions{SearchRequest: SearchRequest{Query: "o", Root: dir}})

	scanOnce := func() []MatchRecord {
		files, err := NewTraverser(opts, nil).Traverse(context.Background(), dir)
		require.NoError(t, err)
		s, err := NewFileScanner(opts, nil)
		require.NoError(t, err)
		var got []MatchRecord
		var stats AppStats
		total, err := s.Scan(context.Background(), files, &stats, func(m MatchRecord) { got = append(got, m) })
		require.NoError(t, err)
		require.Equal(t, len(got), total)
		sort.SliceStable(got, func(i, j int) bool { return got[i].FilePath < got[j].FilePath })
		return got
	}

	first := scanOnce()
	assert.Len(t, first, 3)
	assert.Equal(t, first, scanOnce())
}

func TestRun_UnreadableFileIsSkipped(t *testing.T) {
	dir := helloTree(t)
	// invalid UTF-8 cannot be decoded as text
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte{'h', 'e', 'l', 'l', 'o', 0xff}, 0644))

	stats, out, diags := runSearch(t, SearchOptions{SearchRequest: SearchRequest{Query: "hello", Root: dir}})
	assert.Equal(t, int64(2), stats.Matches.Load())
	assert.Equal(t, int64(3), stats.FilesFound.Load())
	assert.Equal(t, int64(2), stats.FilesScanned.Load())
	assert.Equal(t, int64(1), stats.Errors.Load())
	require.Len(t, diags.got, 1)
	assert.ErrorIs(t, diags.got[0], ErrFileRead)
	assert.ErrorIs(t, diags.got[0], errNotUTF8)
	assert.Equal(t, filepath.Join(dir, "c.txt"), diags.got[0].Path)
	assert.Contains(t, out, "Found 2 matches")
}

func TestRun_PermissionDeniedFileIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	dir := helloTree(t)
	locked := filepath.Join(dir, "locked.txt")
	writeFile(t, locked, "hello hidden\n")
	require.NoError(t, os.Chmod(locked, 0000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0644) })

	stats, _, diags := runSearch(t, SearchOptions{SearchRequest: SearchRequest{Query: "hello", Root: dir}})
	assert.Equal(t, int64(2), stats.Matches.Load())
	require.Len(t, diags.got, 1)
	assert.ErrorIs(t, diags.got[0], ErrFileRead)
	assert.ErrorIs(t, diags.got[0], os.ErrPermission)
}

func TestRun_SaveMatchesFile(t *testing.T) {
	dir := helloTree(t)
	sink := filepath.Join(t.TempDir(), "all.txt")

	_, _, _ = runSearch(t, SearchOptions{
		SearchRequest:   SearchRequest{Query: "hello", Root: dir},
		SaveMatchesFile: sink,
	})

	b, err := os.ReadFile(sink)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	sort.Strings(lines)
	assert.Equal(t, []string{"HELLO AGAIN", "Hello world"}, lines)
}

func TestRun_Archives(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pack.zip")
	writeZip(t, zipPath, map[string]string{"a.txt": "foo\nbar foo\n", "b.txt": "nope\n"})

	stats, out, _ := runSearch(t, SearchOptions{
		SearchRequest: SearchRequest{Query: "foo", Root: dir, CaseSensitive: true},
		Archives:      true,
	})
	assert.Equal(t, int64(2), stats.Matches.Load())
	assert.Contains(t, out, zipPath+"!a.txt:2: bar foo\n")
}

func TestRun_InvalidRoot(t *testing.T) {
	noColor(t)
	opts := prepared(SearchOptions{SearchRequest: SearchRequest{Query: "x"}})
	var out bytes.Buffer
	_, err := Run(context.Background(), opts, NewPrinter(&out, opts.SearchRequest), nil)
	assert.ErrorIs(t, err, ErrInvalidRoot)
	assert.Empty(t, out.String())
}

func TestFileScanner_LogsPattern(t *testing.T) {
	hook := test.NewGlobal()
	prev := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetLevel(prev)
		hook.Reset()
	})

	s, err := NewFileScanner(prepared(SearchOptions{SearchRequest: SearchRequest{Query: "HeLLo"}}), nil)
	require.NoError(t, err)
	var stats AppStats
	_, err = s.Scan(context.Background(), nil, &stats, func(MatchRecord) {})
	require.NoError(t, err)

	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "Scanning files", hook.AllEntries()[0].Message)
	assert.Equal(t, "i:hello", hook.AllEntries()[0].Data["pattern"])
}
