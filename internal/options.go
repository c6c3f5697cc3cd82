package internal

import (
	"errors"
	"fmt"
	"strings"
)

// SearchRequest is what the user asked for. Built once from the command line.
type SearchRequest struct {
	Query         string
	Root          string
	CaseSensitive bool
}

// SearchOptions - request plus the optional knobs from CLI/config.
type SearchOptions struct {
	SearchRequest

	Whitelist       []string
	Blacklist       []string
	Depth           int
	Archives        bool
	Encoding        string
	SaveMatchesFile string

	whMap map[string]struct{}
	blMap map[string]struct{}
}

// Validate checks invariants.
func (o *SearchOptions) Validate() error {
	if err := validateRoot(o.Root); err != nil {
		return err
	}
	if o.Depth < 0 {
		return errors.New("depth must be >= 0")
	}
	if _, err := lookupEncoding(o.Encoding); err != nil {
		return err
	}
	return nil
}

// Prepare builds fast lookup structures.
func (o *SearchOptions) Prepare() {
	o.whMap = toSet(NormalizeExts(o.Whitelist))
	o.blMap = toSet(NormalizeExts(o.Blacklist))
}

func validateRoot(root string) error {
	if root == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidRoot)
	}
	if strings.ContainsRune(root, 0) {
		return fmt.Errorf("%w: %q contains NUL byte", ErrInvalidRoot, root)
	}
	return nil
}

// NormalizeExts turns "txt", ".TXT" and "txt,log" into ".txt" form.
func NormalizeExts(s []string) []string {
	out := make([]string, 0, len(s))
	for _, ext := range s {
		for _, v := range strings.Split(ext, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			v = strings.TrimPrefix(v, ".")
			out = append(out, "."+strings.ToLower(v))
		}
	}
	return out
}

func toSet(s []string) map[string]struct{} {
	if len(s) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(s))
	for _, x := range s {
		m[x] = struct{}{}
	}
	return m
}

func (o *SearchOptions) useWhitelist() bool { return len(o.whMap) > 0 }

// allowedExt expects a lower-cased ".ext". Whitelist wins over blacklist.
func (o *SearchOptions) allowedExt(ext string) bool {
	if o.useWhitelist() {
		_, ok := o.whMap[ext]
		return ok
	}
	if o.blMap == nil {
		return true
	}
	_, blocked := o.blMap[ext]
	return !blocked
}
