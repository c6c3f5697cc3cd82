package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ConfigureColor applies --color: auto, always or never.
func ConfigureColor(mode string) error {
	switch strings.ToLower(mode) {
	case "", "auto":
		fd := os.Stdout.Fd()
		color.NoColor = os.Getenv("NO_COLOR") != "" || !(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid color mode %q, must be one of: auto, always, never", mode)
	}
	return nil
}

// Printer writes matches and the final summary as plain lines.
type Printer struct {
	w       io.Writer
	pattern *PlainPattern
	path    *color.Color
	num     *color.Color
	hit     *color.Color
}

func NewPrinter(w io.Writer, req SearchRequest) *Printer {
	return &Printer{
		w:       w,
		pattern: NewPlainPattern(req.Query, req.CaseSensitive),
		path:    color.New(color.FgMagenta),
		num:     color.New(color.FgGreen),
		hit:     color.New(color.FgRed, color.Bold),
	}
}

// Match prints "path:N: line" with a 1-based line number.
func (p *Printer) Match(m MatchRecord) {
	fmt.Fprintf(p.w, "%s:%s: %s\n", p.path.Sprint(m.FilePath), p.num.Sprint(m.LineIndex+1), p.highlight(m.Line))
}

func (p *Printer) Summary(total int) {
	if total == 0 {
		fmt.Fprintln(p.w, "No matches found")
		return
	}
	fmt.Fprintf(p.w, "Found %d matches\n", total)
}

func (p *Printer) highlight(line string) string {
	if color.NoColor || p.pattern.s == "" {
		return line
	}
	hay := line
	if p.pattern.insensitive {
		// offsets in the folded line must map back to line
		if !foldKeepsOffsets(line) {
			return line
		}
		hay = strings.ToLower(line)
	}
	var b strings.Builder
	for {
		i := strings.Index(hay, p.pattern.s)
		if i < 0 {
			b.WriteString(line)
			return b.String()
		}
		end := i + len(p.pattern.s)
		b.WriteString(line[:i])
		b.WriteString(p.hit.Sprint(line[i:end]))
		line, hay = line[end:], hay[end:]
	}
}

// foldKeepsOffsets reports whether lower-casing leaves every rune's byte
// width unchanged. Invalid bytes fold to a 3-byte U+FFFD, so they fail too.
func foldKeepsOffsets(s string) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError && size == 1 {
			return false
		}
		if utf8.RuneLen(unicode.ToLower(r)) != size {
			return false
		}
		s = s[size:]
	}
	return true
}
