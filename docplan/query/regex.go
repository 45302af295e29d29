package query

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/grafana/regexp"
)

// CompileRegex compiles pattern with the i, m and s options.
func CompileRegex(pattern, options string) (*regexp.Regexp, error) {
	flags := ""
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			if !strings.ContainsRune(flags, o) {
				flags += string(o)
			}
		default:
			return nil, fmt.Errorf("unsupported regex option %q", o)
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	return regexp.Compile(pattern)
}

// SimplePrefix returns the literal prefix every match of an anchored,
// option-free pattern starts with.
func SimplePrefix(pattern, options string) (string, bool) {
	if options != "" || !strings.HasPrefix(pattern, "^") {
		return "", false
	}
	re, err := regexp.Compile(pattern[1:])
	if err != nil {
		return "", false
	}
	prefix, _ := re.LiteralPrefix()
	if prefix == "" {
		return "", false
	}
	return prefix, true
}

// PrefixEnd returns the string obtained by incrementing the last character of
// prefix. Every string starting with prefix sorts below it.
func PrefixEnd(prefix string) string {
	r, size := utf8.DecodeLastRuneInString(prefix)
	head := prefix[:len(prefix)-size]
	switch {
	case r == utf8.RuneError && size <= 1:
		return prefix + "\xff"
	case r == utf8.MaxRune:
		return prefix + "\xff"
	case r == 0xD7FF:
		// skip the surrogate block
		return head + string(rune(0xE000))
	}
	return head + string(r+1)
}
