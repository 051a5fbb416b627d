package cst

import "fmt"

// Span is a half-open byte range [Start, End) into the source.
type Span struct {
	Start uint32
	End   uint32
}

// Len returns the number of bytes the span covers.
func (s Span) Len() uint32 { return s.End - s.Start }

// Token is a single lexical unit, including trivia. Trivia tokens
// (whitespace, newlines, comments) are preserved rather than discarded
// so the CST can reconstruct the source byte-for-byte (spec.md I1).
type Token struct {
	Kind Kind
	Text string
	Span Span
}

// LexerError records a malformed span the lexer recovered from by
// emitting a KindError token instead of aborting (spec.md §4.A, §7).
type LexerError struct {
	Message string
	Span    Span
}

func (e *LexerError) Error() string {
	return fmt.Sprintf("lexer error at [%d,%d): %s", e.Span.Start, e.Span.End, e.Message)
}
