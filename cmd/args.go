package main

import (
	"fmt"
	"unicode/utf8"

	"LineFinder/internal"
)

var ignoreCaseArgs = map[string]struct{}{
	"-i": {}, "-I": {}, "--ignore-case": {},
}

// parseArgs reads "<query> <path> [case-flag]". ignoreCase is the default
// picked up from flags or config; a third positional can only turn it on.
func parseArgs(args []string, ignoreCase bool) (internal.SearchRequest, error) {
	switch {
	case len(args) < 2:
		return internal.SearchRequest{}, fmt.Errorf("%w: not enough arguments", internal.ErrArgument)
	case len(args) > 3:
		return internal.SearchRequest{}, fmt.Errorf("%w: too many arguments", internal.ErrArgument)
	}
	if !utf8.ValidString(args[0]) {
		return internal.SearchRequest{}, fmt.Errorf("%w: query is not valid UTF-8", internal.ErrArgument)
	}
	if len(args) == 3 {
		if _, ok := ignoreCaseArgs[args[2]]; !ok {
			return internal.SearchRequest{}, fmt.Errorf("%w: invalid third argument %q", internal.ErrArgument, args[2])
		}
		ignoreCase = true
	}
	return internal.SearchRequest{
		Query:         args[0],
		Root:          args[1],
		CaseSensitive: !ignoreCase,
	}, nil
}
