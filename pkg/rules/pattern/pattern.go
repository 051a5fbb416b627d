// Package pattern implements the simplified pattern-rule matcher spec.md
// §4.E calls "gritql_pattern": no GritQL/tree-sitter query engine is
// wired anywhere in the retrieved reference set, so a pattern here is a
// plain stdlib regular expression executed over a file's full source
// text. `$name` placeholders are accepted as a thin convenience layer
// translated to regexp named capture groups before compilation, so rule
// authors can write patterns like `Description: $value` without
// learning regexp capture-group syntax.
package pattern

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Compile translates a pattern source into a compiled regexp. Literal
// regexp metacharacters outside `$name` placeholders are escaped first,
// so a pattern author writes FSH-shaped text, not regexp syntax, except
// where a placeholder is used.
func Compile(source string) (*regexp.Regexp, error) {
	return regexp.Compile(translate(source))
}

// translate walks source left to right, escaping regexp metacharacters
// in literal spans and replacing `$name` with a named capture group
// matching one non-newline run of text.
func translate(source string) string {
	var sb strings.Builder
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(source, -1) {
		sb.WriteString(regexp.QuoteMeta(source[last:loc[0]]))
		name := source[loc[2]:loc[3]]
		sb.WriteString("(?P<")
		sb.WriteString(name)
		sb.WriteString(`>\S[^\n]*)`)
		last = loc[1]
	}
	sb.WriteString(regexp.QuoteMeta(source[last:]))
	return sb.String()
}

// Match is one pattern occurrence: its byte range in the source and any
// named placeholder captures.
type Match struct {
	Start, End int
	Captures   map[string]string
}

// FindAll returns every non-overlapping match of re in src, decoding
// named capture groups into Captures.
func FindAll(re *regexp.Regexp, src string) []Match {
	names := re.SubexpNames()
	idxs := re.FindAllStringSubmatchIndex(src, -1)
	out := make([]Match, 0, len(idxs))
	for _, idx := range idxs {
		m := Match{Start: idx[0], End: idx[1]}
		for i := 1; i*2 < len(idx); i++ {
			if names[i] == "" || idx[i*2] < 0 {
				continue
			}
			if m.Captures == nil {
				m.Captures = make(map[string]string)
			}
			m.Captures[names[i]] = src[idx[i*2]:idx[i*2+1]]
		}
		out = append(out, m)
	}
	return out
}
