package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mholt/archives"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var errNotUTF8 = errors.New("not valid UTF-8 text")

// lookupEncoding maps --encoding values. nil means plain UTF-8.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "gbk":
		return simplifiedchinese.GBK, nil
	case "gb18030":
		return simplifiedchinese.GB18030, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q (use utf-8, utf-16, gbk, gb18030)", name)
	}
}

// readText reads the whole file (or archive member) and decodes it.
// The file is always closed before returning.
func readText(ctx context.Context, ref FileRef, enc encoding.Encoding) (string, error) {
	if ref.Inner != "" {
		return readArchiveMember(ctx, ref, enc)
	}
	f, err := os.Open(ref.Path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return decodeAll(f, enc)
}

func readArchiveMember(ctx context.Context, ref FileRef, enc encoding.Encoding) (string, error) {
	fsys, err := archives.FileSystem(ctx, ref.Path, nil)
	if err != nil {
		return "", err
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer closer.Close()
	}
	f, err := fsys.Open(ref.Inner)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return decodeAll(f, enc)
}

func decodeAll(r io.Reader, enc encoding.Encoding) (string, error) {
	if enc != nil {
		r = transform.NewReader(r, enc.NewDecoder())
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if enc == nil && !utf8.Valid(b) {
		return "", errNotUTF8
	}
	return string(b), nil
}
