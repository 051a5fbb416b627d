package autofix

import (
	"fmt"
	"strings"
)

var bracketPairs = map[rune]rune{')': '(', ']': '[', '}': '{'}

// ValidateFSHSyntax runs a lightweight bracket-balance check over FSH
// source: `{} () []` must balance, ignoring `//` line comments and
// `/* */` block comments (§4.F step 5). It does not parse the grammar;
// it only catches fixes that left brackets unbalanced.
func ValidateFSHSyntax(content string) error {
	var stack []rune
	inBlockComment := false
	lines := strings.Split(content, "\n")

	for lineNum, line := range lines {
		i := 0
		for i < len(line) {
			if inBlockComment {
				if idx := strings.Index(line[i:], "*/"); idx >= 0 {
					inBlockComment = false
					i += idx + 2
					continue
				}
				break
			}
			if strings.HasPrefix(line[i:], "//") {
				break
			}
			if strings.HasPrefix(line[i:], "/*") {
				inBlockComment = true
				i += 2
				continue
			}
			r := rune(line[i])
			switch r {
			case '(', '[', '{':
				stack = append(stack, r)
			case ')', ']', '}':
				if len(stack) == 0 || stack[len(stack)-1] != bracketPairs[r] {
					return fmt.Errorf("unmatched closing %q at line %d", r, lineNum+1)
				}
				stack = stack[:len(stack)-1]
			}
			i++
		}
	}

	if len(stack) != 0 {
		return fmt.Errorf("unmatched brackets in modified content: %d unclosed", len(stack))
	}
	return nil
}
