package cst

import "fmt"

// ParseError records a mismatched expectation the parser recovered from
// by inserting an empty KindError token rather than aborting (spec.md
// §4.B, §7). Losslessness (I1) is preserved because no source bytes are
// ever dropped; at worst a recovery inserts a zero-width error marker.
type ParseError struct {
	Message string
	Span    Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at [%d,%d): %s", e.Span.Start, e.Span.End, e.Message)
}

// Parser is a hand-written recursive-descent parser building a green
// tree via Builder. It never panics: unrecognized input is wrapped in an
// Error node (or an empty Error token) and parsing continues (spec.md
// §4.B "Error handling").
type Parser struct {
	tokens []Token
	pos    int
	b      *Builder
	errs   []*ParseError
}

// Tree is the parsed result: the green root plus any errors recovered
// from along the way (losslessness holds regardless of errs).
type Tree struct {
	Green *GreenNode
	Errs  []*ParseError
}

// Root returns a red cursor over the parsed tree.
func (t *Tree) Root() *RedNode { return NewRoot(t.Green) }

// Parse lexes and parses src into a lossless CST (spec.md P1, P2).
func Parse(src string) *Tree {
	tokens, lexErrs := Lex(src)
	p := &Parser{tokens: tokens, b: NewBuilder()}
	for _, le := range lexErrs {
		p.errs = append(p.errs, &ParseError{Message: le.Message, Span: le.Span})
	}
	p.parseDocument()
	green := p.b.Finish(KindDocument)
	return &Tree{Green: green, Errs: p.errs}
}

// --- token-stream primitives ---

func (p *Parser) skipTrivia() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Kind.IsTrivia() && p.tokens[p.pos].Kind != KindNewline {
		p.b.Token(p.tokens[p.pos])
		p.pos++
	}
}

// nth returns the nth significant token (anything but whitespace and
// comments; newlines are significant) from the current position without
// consuming anything; n=0 is the next token to be bumped.
func (p *Parser) nth(n int) Token {
	idx := p.pos
	count := 0
	for idx < len(p.tokens) {
		if p.tokens[idx].Kind.IsTrivia() && p.tokens[idx].Kind != KindNewline {
			idx++
			continue
		}
		if count == n {
			return p.tokens[idx]
		}
		count++
		idx++
	}
	return Token{Kind: KindEOF}
}

func (p *Parser) peek() Kind { return p.nth(0).Kind }

func (p *Parser) at(kind Kind) bool { return p.peek() == kind }

func (p *Parser) atEOF() bool { return p.peek() == KindEOF }

// bump consumes leading trivia (attaching it to the currently open node)
// then the next significant token, returning it.
func (p *Parser) bump() Token {
	p.skipTrivia()
	if p.pos >= len(p.tokens) {
		return Token{Kind: KindEOF}
	}
	tok := p.tokens[p.pos]
	p.b.Token(tok)
	p.pos++
	return tok
}

// expect bumps if the next token is kind; otherwise records a ParseError
// and inserts a zero-width Error token without consuming input.
func (p *Parser) expect(kind Kind) (Token, bool) {
	if p.at(kind) {
		return p.bump(), true
	}
	p.errorHere(fmt.Sprintf("expected token kind %d, found %d", kind, p.peek()))
	return Token{Kind: KindError}, false
}

func (p *Parser) errorHere(msg string) {
	start := uint32(0)
	if p.pos < len(p.tokens) {
		start = p.tokens[p.pos].Span.Start
	}
	p.errs = append(p.errs, &ParseError{Message: msg, Span: Span{Start: start, End: start}})
	p.b.Token(Token{Kind: KindError, Text: "", Span: Span{Start: start, End: start}})
}

// skipToNewline consumes tokens (as Error-wrapped trivia-adjacent text)
// until and including the next newline, used by document-level recovery.
func (p *Parser) skipToNewline() {
	for !p.atEOF() {
		if p.tokens[p.pos].Kind == KindNewline {
			p.bump()
			return
		}
		p.bump()
	}
}

// --- document ---

func (p *Parser) parseDocument() {
	for {
		p.skipTrivia()
		if p.atEOF() {
			break
		}
		if p.at(KindNewline) {
			p.bump()
			continue
		}
		if p.peek().IsDeclKeyword() {
			p.parseDeclaration()
			continue
		}
		// Unknown token at document level: wrap in an Error node and
		// skip to the next newline (spec.md §4.B Document contract).
		p.b.StartNode(KindErrorNode)
		p.skipToNewline()
		p.b.FinishNode()
	}
}

var declNodeKind = map[Kind]Kind{
	KindKwProfile:    KindProfileDecl,
	KindKwExtension:  KindExtensionDecl,
	KindKwValueSet:   KindValueSetDecl,
	KindKwCodeSystem: KindCodeSystemDecl,
	KindKwInstance:   KindInstanceDecl,
	KindKwInvariant:  KindInvariantDecl,
	KindKwMapping:    KindMappingDecl,
	KindKwLogical:    KindLogicalDecl,
	KindKwResource:   KindResourceDecl,
	KindKwAlias:      KindAliasDecl,
	KindKwRuleSet:    KindRuleSetDecl,
}

func (p *Parser) parseDeclaration() {
	kw := p.peek()
	switch kw {
	case KindKwAlias:
		p.parseAliasDecl()
		return
	case KindKwRuleSet:
		p.parseRuleSetDecl()
		return
	}

	node := declNodeKind[kw]
	p.b.StartNode(node)
	p.bump() // keyword
	if p.at(KindColon) {
		p.bump()
	} else {
		p.errorHere("expected ':' after declaration keyword")
	}
	if p.at(KindIdent) || p.peek().IsKeyword() {
		p.bump() // name
	} else {
		p.errorHere("expected declaration name")
	}

	switch kw {
	case KindKwValueSet:
		p.parseMetadataAndBody(p.parseValueSetBodyLine)
	case KindKwCodeSystem:
		p.parseMetadataAndBody(p.parseCodeSystemBodyLine)
	case KindKwInvariant:
		p.parseInvariantBody()
	default:
		p.parseMetadataAndBody(p.parseRule)
	}
	p.b.FinishNode()
}

var metadataClauseKind = map[Kind]Kind{
	KindKwParent:          KindParentClause,
	KindKwID:              KindIDClause,
	KindKwTitle:           KindTitleClause,
	KindKwDescription:     KindDescriptionClause,
	KindKwInstanceOf:      KindInstanceOfClause,
	KindKwUsage:           KindUsageClause,
	KindKwSource:          KindSourceClause,
	KindKwTarget:          KindTargetClause,
	KindKwContext:         KindContextClause,
	KindKwCharacteristics: KindCharacteristicsClause,
	KindKwSeverity:        KindSeverityClause,
	KindKwXPath:           KindXPathClause,
	KindKwExpression:      KindExpressionClause,
}

// parseMetadataAndBody consumes MetadataClause* then delegates each `*`
// rule line to bodyLine until the declaration ends (document level or a
// blank boundary reached at EOF/next decl keyword).
func (p *Parser) parseMetadataAndBody(bodyLine func()) {
	for {
		p.skipTrivia()
		if p.atEOF() || p.peek().IsDeclKeyword() {
			return
		}
		if ck, ok := metadataClauseKind[p.peek()]; ok {
			p.parseMetadataClause(ck)
			continue
		}
		if p.at(KindStar) {
			bodyLine()
			continue
		}
		if p.at(KindNewline) {
			p.bump()
			continue
		}
		// Unrecognized content inside a declaration: recover by skipping
		// the line inside an Error node, never looping forever.
		p.b.StartNode(KindErrorNode)
		p.skipToNewline()
		p.b.FinishNode()
	}
}

// parseMetadataClause parses `Keyword value...` up to (and consuming)
// the trailing newline(s), per spec.md §4.B "Declaration" contract.
func (p *Parser) parseMetadataClause(kind Kind) {
	p.b.StartNode(kind)
	p.bump() // keyword
	for !p.atEOF() && p.peek() != KindNewline {
		p.bump()
	}
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

// --- Alias ---

func (p *Parser) parseAliasDecl() {
	p.b.StartNode(KindAliasDecl)
	p.bump() // Alias
	if p.at(KindColon) {
		p.bump()
	} else {
		p.errorHere("expected ':' after Alias")
	}
	if p.at(KindIdent) {
		p.bump()
	} else {
		p.errorHere("expected alias name")
	}
	if p.at(KindEquals) {
		p.bump()
	} else {
		p.errorHere("expected '=' in Alias declaration")
	}
	// Collect every non-trivia token up to a newline, preserving URLs
	// whose tokenization spans ident/colon/slashes (spec.md §4.B Alias).
	for !p.atEOF() && p.peek() != KindNewline {
		p.bump()
	}
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

// --- RuleSet ---

func (p *Parser) parseRuleSetDecl() {
	p.b.StartNode(KindRuleSetDecl)
	p.bump() // RuleSet
	if p.at(KindColon) {
		p.bump()
	} else {
		p.errorHere("expected ':' after RuleSet")
	}
	if p.at(KindIdent) {
		p.bump()
	} else {
		p.errorHere("expected RuleSet name")
	}
	if p.at(KindLParen) {
		p.parseRuleSetParamList()
	}
	for p.at(KindNewline) {
		p.bump()
	}

	// A blank line (two consecutive newlines) ends the ruleset body; a
	// safety bound caps iterations so malformed input can't loop forever
	// (spec.md §4.B RuleSet contract).
	const maxIterations = 100000
	for i := 0; i < maxIterations; i++ {
		if p.atEOF() {
			break
		}
		if p.peek().IsDeclKeyword() {
			break
		}
		if p.at(KindNewline) {
			// The line is blank when only whitespace lies between the
			// previous newline and this one.
			blank := p.pos > 0 && p.tokens[p.pos-1].Kind == KindNewline
			for j := p.pos; blank && p.tokens[j].Kind != KindNewline; j++ {
				blank = p.tokens[j].Kind == KindWhitespace
			}
			p.bump()
			if blank {
				break
			}
			continue
		}
		if p.at(KindStar) {
			p.parseRule()
			continue
		}
		if p.pos < len(p.tokens) && p.tokens[p.pos].Kind.IsTrivia() {
			p.skipTrivia()
			continue
		}
		// Non-rule, non-trivia token terminates the ruleset body early.
		break
	}
	p.b.FinishNode()
}

func (p *Parser) parseRuleSetParamList() {
	p.b.StartNode(KindRuleSetParamList)
	p.bump() // (
	for !p.atEOF() && !p.at(KindRParen) {
		if p.at(KindComma) {
			p.bump()
			continue
		}
		p.b.StartNode(KindRuleSetParam)
		p.bump()
		p.b.FinishNode()
	}
	if p.at(KindRParen) {
		p.bump()
	} else {
		p.errorHere("expected ')' closing RuleSet parameter list")
	}
	p.b.FinishNode()
}

// --- Invariant ---

func (p *Parser) parseInvariantBody() {
	for {
		p.skipTrivia()
		if p.atEOF() || p.peek().IsDeclKeyword() {
			return
		}
		switch p.peek() {
		case KindKwDescription:
			p.parseMetadataClause(KindDescriptionClause)
		case KindKwSeverity:
			p.parseMetadataClause(KindSeverityClause)
		case KindKwXPath:
			p.parseMetadataClause(KindXPathClause)
		case KindKwExpression:
			p.parseMetadataClause(KindExpressionClause)
		case KindNewline:
			p.bump()
		default:
			p.b.StartNode(KindErrorNode)
			p.skipToNewline()
			p.b.FinishNode()
		}
	}
}

// --- Rule (inside Profile/Extension/Instance/Logical/Resource/RuleSet) ---

func (p *Parser) parseRule() {
	start := p.b.Checkpoint()
	p.bump() // '*'

	switch {
	case p.at(KindCodeLit):
		p.parseCodeRule(start)
	case p.at(KindKwInsert):
		p.finishInsertRule(start)
	case p.at(KindCaret):
		p.parseCaretOrPathRule(start)
	default:
		p.parsePathLedRule(start)
	}
}

// parseCodeRule disambiguates `* #c ^field = value` (code-caret) from
// `* #c insert Name(args)` (code-insert) by lookahead past the run of
// Code tokens (spec.md §4.B "Code rule").
func (p *Parser) parseCodeRule(start Checkpoint) {
	for p.at(KindCodeLit) {
		p.bump()
	}
	// Optional display string and/or definition string for a Concept line.
	for p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump()
	}
	switch {
	case p.at(KindCaret):
		p.b.StartNodeAt(start, KindCodeCaretRule)
		p.parseCaretTail()
		p.b.FinishNode()
	case p.at(KindKwInsert):
		p.b.StartNodeAt(start, KindCodeInsertRule)
		p.parseInsertTail()
		p.b.FinishNode()
	default:
		// A bare concept/code line with no caret or insert: the rest of
		// the line is wrapped in a Concept node.
		p.b.StartNodeAt(start, KindConcept)
		p.consumeRestOfLine()
		p.b.FinishNode()
	}
}

func (p *Parser) finishInsertRule(start Checkpoint) {
	p.b.StartNodeAt(start, KindInsertRule)
	p.parseInsertTail()
	p.b.FinishNode()
}

func (p *Parser) parseInsertTail() {
	p.bump() // insert
	if p.at(KindIdent) {
		p.bump()
	} else {
		p.errorHere("expected RuleSet name after insert")
	}
	if p.at(KindLParen) {
		p.b.StartNode(KindInsertArgs)
		p.bump()
		depth := 1
		for !p.atEOF() && depth > 0 {
			switch p.peek() {
			case KindLParen:
				depth++
				p.bump()
			case KindRParen:
				depth--
				p.bump()
			default:
				p.bump()
			}
		}
		p.b.FinishNode()
	}
	p.consumeTrailingNewlines()
}

// parseCaretOrPathRule handles rules starting with an optional leading
// '^' before the path (root-caret rules) vs. a caret appearing after a
// concrete path (e.g. `* status ^short = "x"`). Both converge on
// parseCaretTail once the path has been consumed.
func (p *Parser) parseCaretOrPathRule(start Checkpoint) {
	p.parsePath()
	p.b.StartNodeAt(start, KindCaretRule)
	p.parseCaretTail()
	p.b.FinishNode()
}

// parseCaretTail parses `^field[(path)]* (= | +=) value` once the path
// (if any) and the leading '^' decision point have been reached.
func (p *Parser) parseCaretTail() {
	for p.at(KindCaret) {
		p.bump()
		if p.at(KindIdent) {
			p.bump()
		}
		for p.at(KindDot) {
			p.bump()
			if p.at(KindIdent) {
				p.bump()
			}
		}
		if p.at(KindLParen) {
			depth := 1
			p.bump()
			for !p.atEOF() && depth > 0 {
				switch p.peek() {
				case KindLParen:
					depth++
				case KindRParen:
					depth--
				}
				p.bump()
			}
		}
	}
	if p.at(KindEquals) || p.at(KindPlusEq) {
		p.bump()
	} else {
		p.errorHere("expected '=' or '+=' in caret rule")
	}
	p.parseValueExpression()
	p.consumeTrailingNewlines()
}

// parsePathLedRule parses every rule variant whose first token (after
// '*') is a path segment: cardinality, flag, contains, valueset, only,
// obeys, fixed-value, mapping, and add-element rules. Disambiguation
// follows spec.md §4.B exactly.
func (p *Parser) parsePathLedRule(start Checkpoint) {
	p.parsePath()

	switch p.peek() {
	case KindIntegerLit:
		p.parseCardinalityTail(start)
		return
	case KindCaret:
		p.b.StartNodeAt(start, KindCaretRule)
		p.parseCaretTail()
		p.b.FinishNode()
		return
	case KindKwContains:
		p.b.StartNodeAt(start, KindContainsRule)
		p.parseContainsTail()
		p.b.FinishNode()
		return
	case KindKwFrom:
		p.b.StartNodeAt(start, KindValueSetRule)
		p.bump() // from
		p.parseValueSetRef()
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	case KindKwOnly:
		p.b.StartNodeAt(start, KindOnlyRule)
		p.bump() // only
		p.parseTypeList()
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	case KindKwObeys:
		p.b.StartNodeAt(start, KindObeysRule)
		p.bump() // obeys
		p.parseIdentList()
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	case KindArrow:
		p.b.StartNodeAt(start, KindMappingRule)
		p.bump() // ->
		if p.at(KindStringLit) {
			p.bump()
		}
		if p.at(KindStringLit) {
			p.bump()
		}
		if p.at(KindCodeLit) {
			p.bump()
		}
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	case KindEquals, KindPlusEq:
		p.b.StartNodeAt(start, KindFixedValueRule)
		p.bump()
		p.parseValueExpression()
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	case KindKwContentReference:
		p.parseAddCRElementTail(start)
		return
	}

	if p.peek().IsFlag() {
		p.b.StartNodeAt(start, KindFlagRule)
		for p.peek().IsFlag() {
			p.bump()
		}
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	}

	// Fallback: unrecognized rule shape. Recover without losing bytes.
	p.b.StartNodeAt(start, KindErrorNode)
	p.consumeRestOfLine()
	p.b.FinishNode()
}

// parseCardinalityTail handles `INT '..' (INT|'*') flag*`, disambiguating
// from an AddElement rule by lookahead: after CARD flag*, if an Ident is
// followed (mod trivia) by a String or 'or', it's an AddElement rule
// instead (spec.md §4.B).
func (p *Parser) parseCardinalityTail(start Checkpoint) {
	p.bump() // min int
	if p.at(KindDotDot) {
		p.bump()
	} else {
		p.errorHere("expected '..' in cardinality rule")
	}
	if p.at(KindIntegerLit) || p.at(KindStar) {
		p.bump()
	} else {
		p.errorHere("expected cardinality max ('*' or integer)")
	}

	// Consume flags, but keep the position so we can still decide
	// cardinality vs. add-element after seeing them.
	for p.peek().IsFlag() {
		p.bump()
	}

	if p.looksLikeAddElement() {
		p.finishAddElementTail(start)
		return
	}
	if p.at(KindKwContentReference) {
		p.parseAddCRElementTail(start)
		return
	}

	p.b.StartNodeAt(start, KindCardRule)
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

// looksLikeAddElement implements the lookahead rule: a type identifier
// followed by a string (short description) or 'or' (type alternation)
// signals an AddElement rule rather than a bare cardinality rule.
func (p *Parser) looksLikeAddElement() bool {
	if !(p.at(KindIdent) || p.peek().IsKeyword() || p.at(KindTimeWord) || p.at(KindDateTimeWord)) {
		return false
	}
	next := p.nth(1).Kind
	return next == KindStringLit || next == KindTripleStringLit || next == KindKwOr
}

func (p *Parser) finishAddElementTail(start Checkpoint) {
	p.b.StartNodeAt(start, KindAddElementRule)
	p.parseTypeList()
	if p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump() // short
	}
	if p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump() // definition
	}
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

func (p *Parser) parseAddCRElementTail(start Checkpoint) {
	p.b.StartNodeAt(start, KindAddCRElementRule)
	p.bump() // contentreference
	if p.at(KindIdent) {
		p.bump()
	}
	if p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump()
	}
	if p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump()
	}
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

// parseContainsTail parses `Item (cardinality)? (flags)* ('and' Item …)*`,
// tolerant of newlines before 'and' (spec.md §4.B Contains rule).
func (p *Parser) parseContainsTail() {
	p.bump() // contains
	for {
		p.b.StartNode(KindContainsItem)
		if p.at(KindIdent) {
			p.bump()
		} else {
			p.errorHere("expected item name in contains rule")
		}
		if p.at(KindIntegerLit) {
			p.bump()
			if p.at(KindDotDot) {
				p.bump()
			}
			if p.at(KindIntegerLit) || p.at(KindStar) {
				p.bump()
			}
		}
		for p.peek().IsFlag() {
			p.bump()
		}
		p.b.FinishNode()

		// Tolerate newlines before 'and': look past trivia and newlines
		// first, and only take them into the tree when 'and' follows.
		idx := p.pos
		for idx < len(p.tokens) && p.tokens[idx].Kind.IsTrivia() {
			idx++
		}
		if idx < len(p.tokens) && p.tokens[idx].Kind == KindKwAnd {
			for p.pos < idx {
				p.b.Token(p.tokens[p.pos])
				p.pos++
			}
			p.bump()
			continue
		}
		break
	}
	p.consumeTrailingNewlines()
}

// parsePath parses `(^)? ('.' | PathSegment ('.' PathSegment)*)`
// including soft-indexing `[+]`/`[=]` (spec.md §4.B Path contract).
func (p *Parser) parsePath() {
	p.b.StartNode(KindPath)
	if p.at(KindCaret) {
		p.bump()
	}
	if p.at(KindDot) && !p.nthIsPathContinuation(1) {
		p.bump()
		p.b.FinishNode()
		return
	}
	p.parsePathSegment()
	for p.at(KindDot) {
		p.bump()
		p.parsePathSegment()
	}
	p.b.FinishNode()
}

func (p *Parser) nthIsPathContinuation(n int) bool {
	k := p.nth(n).Kind
	return k == KindIdent || k.IsKeyword() || k == KindTimeWord || k == KindDateTimeWord
}

func (p *Parser) parsePathSegment() {
	p.b.StartNode(KindPathSegment)
	if p.at(KindIdent) || p.peek().IsKeyword() || p.at(KindTimeWord) || p.at(KindDateTimeWord) {
		p.bump()
	} else {
		p.errorHere("expected path segment")
	}
	if p.at(KindLBracket) {
		p.bump()
		switch p.peek() {
		case KindIdent, KindIntegerLit, KindPlus, KindEquals:
			p.bump()
		default:
			p.errorHere("expected index inside '[...]'")
		}
		if p.at(KindRBracket) {
			p.bump()
		} else {
			p.errorHere("expected ']' closing path index")
		}
	}
	p.b.FinishNode()
}

func (p *Parser) parseTypeList() {
	p.parseOneType()
	for p.at(KindKwOr) {
		p.bump()
		p.parseOneType()
	}
}

func (p *Parser) parseOneType() {
	if p.at(KindIdent) || p.peek().IsKeyword() || p.at(KindTimeWord) || p.at(KindDateTimeWord) {
		p.bump()
	} else {
		p.errorHere("expected type name")
	}
}

func (p *Parser) parseIdentList() {
	if p.at(KindIdent) {
		p.bump()
	} else {
		p.errorHere("expected invariant key")
	}
	for p.at(KindComma) {
		p.bump()
		if p.at(KindIdent) {
			p.bump()
		}
	}
}

func (p *Parser) parseValueSetRef() {
	if p.at(KindIdent) || p.at(KindStringLit) {
		p.bump()
	} else {
		p.errorHere("expected valueset reference")
	}
	if p.at(KindLParen) {
		p.bump()
		if p.at(KindIdent) || p.peek().IsKeyword() {
			p.bump() // strength
		}
		if p.at(KindRParen) {
			p.bump()
		} else {
			p.errorHere("expected ')' closing binding strength")
		}
	}
}

// parseValueExpression implements the closed production set of spec.md
// §4.B "Value expression", resolving number/quantity/ratio ambiguity by
// checkpoint + retroactive wrap rather than true token rewind.
func (p *Parser) parseValueExpression() {
	switch p.peek() {
	case KindStringLit, KindTripleStringLit:
		p.b.StartNode(KindStringValue)
		p.bump()
		p.b.FinishNode()
	case KindCodeLit:
		p.b.StartNode(KindCodeValue)
		p.bump()
		if p.at(KindStringLit) {
			p.bump()
		}
		p.b.FinishNode()
	case KindRegexLit:
		p.b.StartNode(KindRegexValue)
		p.bump()
		p.b.FinishNode()
	case KindKwTrue, KindKwFalse:
		p.b.StartNode(KindBoolValue)
		p.bump()
		p.b.FinishNode()
	case KindIdent:
		p.parseIdentOrCanonicalOrReferenceValue()
	case KindIntegerLit, KindDecimalLit:
		p.parseNumberQuantityOrRatio()
	case KindUnitLit:
		p.b.StartNode(KindQuantityValue)
		p.bump()
		p.b.FinishNode()
	default:
		p.b.StartNode(KindErrorNode)
		if !p.atEOF() {
			p.bump()
		} else {
			p.errorHere("expected value expression")
		}
		p.b.FinishNode()
	}
}

// parseIdentOrCanonicalOrReferenceValue handles Canonical(...), Reference(...),
// CodeableReference(...), and the generic NameValue (identifier with
// optional display string / code suffix).
func (p *Parser) parseIdentOrCanonicalOrReferenceValue() {
	name := p.nth(0).Text
	switch name {
	case "Canonical":
		p.b.StartNode(KindCanonicalValue)
		p.bump()
		p.parseParenTypeArgs()
		if p.at(KindPercent) {
			p.bump()
		}
		p.b.FinishNode()
		return
	case "Reference":
		p.b.StartNode(KindReferenceValue)
		p.bump()
		p.parseParenTypeArgs()
		p.b.FinishNode()
		return
	case "CodeableReference":
		p.b.StartNode(KindCodeableReferenceValue)
		p.bump()
		p.parseParenTypeArgs()
		p.b.FinishNode()
		return
	}

	start := p.b.Checkpoint()
	p.bump() // ident
	if p.at(KindStringLit) {
		p.bump()
	}
	if p.at(KindCodeLit) {
		p.bump()
	}
	p.b.StartNodeAt(start, KindNameValue)
	p.b.FinishNode()
}

func (p *Parser) parseParenTypeArgs() {
	if !p.at(KindLParen) {
		p.errorHere("expected '(' after type macro")
		return
	}
	p.bump()
	p.parseTypeList()
	if p.at(KindRParen) {
		p.bump()
	} else {
		p.errorHere("expected ')' closing type macro")
	}
}

// parseNumberQuantityOrRatio disambiguates a plain number, a `number unit`
// Quantity, and a `number:number` Ratio by checkpointing before the first
// number, consuming what follows, then wrapping retroactively (spec.md
// §4.B "Ambiguity... resolved by rewind-to-checkpoint").
func (p *Parser) parseNumberQuantityOrRatio() {
	start := p.b.Checkpoint()
	p.bump() // number

	switch {
	case p.at(KindUnitLit):
		p.bump()
		p.b.StartNodeAt(start, KindQuantityValue)
		p.b.FinishNode()
	case p.at(KindColon):
		p.bump()
		if p.at(KindIntegerLit) || p.at(KindDecimalLit) {
			p.bump()
		} else {
			p.errorHere("expected numerator/denominator in ratio")
		}
		p.b.StartNodeAt(start, KindRatioValue)
		p.b.FinishNode()
	default:
		p.b.StartNodeAt(start, KindNumberValue)
		p.b.FinishNode()
	}
}

// --- ValueSet / CodeSystem bodies ---

// parseValueSetBodyLine parses one `*` line inside a ValueSet: either a
// concept component or a filter component (spec.md §4.B "ValueSet body").
func (p *Parser) parseValueSetBodyLine() {
	start := p.b.Checkpoint()
	p.bump() // '*'

	if p.at(KindKwInclude) || p.at(KindKwExclude) {
		p.bump()
	}

	if p.at(KindKwCodes) {
		p.b.StartNodeAt(start, KindFilterComponent)
		p.bump() // codes
		if p.at(KindKwFrom) {
			p.bump()
		}
		for {
			switch p.peek() {
			case KindKwSystem:
				p.bump()
				if p.at(KindIdent) {
					p.bump()
				}
			case KindKwValueset:
				p.bump()
				if p.at(KindIdent) {
					p.bump()
				}
			default:
				goto doneSource
			}
			if p.at(KindKwAnd) && (p.nth(1).Kind == KindKwSystem || p.nth(1).Kind == KindKwValueset) {
				p.bump()
				continue
			}
			break
		}
	doneSource:
		if p.at(KindKwWhere) {
			p.bump()
			p.parseFilterClause()
			for p.at(KindKwAnd) {
				p.bump()
				p.parseFilterClause()
			}
		}
		p.consumeTrailingNewlines()
		p.b.FinishNode()
		return
	}

	p.b.StartNodeAt(start, KindConceptComponent)
	if p.at(KindCodeLit) {
		p.bump()
	} else {
		p.errorHere("expected system#code in valueset concept component")
	}
	if p.at(KindStringLit) || p.at(KindTripleStringLit) {
		p.bump()
	}
	if p.at(KindKwFrom) {
		p.bump()
		p.parseValueSetRef()
		for p.at(KindComma) {
			p.bump()
			p.parseValueSetRef()
		}
	}
	p.consumeTrailingNewlines()
	p.b.FinishNode()
}

func (p *Parser) parseFilterClause() {
	p.b.StartNode(KindFilterClause)
	if p.at(KindIdent) {
		p.bump() // property
	}
	if p.at(KindIdent) {
		p.bump() // operator
	}
	p.parseValueExpression()
	p.b.FinishNode()
}

// parseCodeSystemBodyLine parses a `*` line inside a CodeSystem: a run of
// Code tokens (one or more), optional display/definition strings, or a
// code-caret/code-insert rule, disambiguated exactly like parseCodeRule
// (spec.md §4.B "CodeSystem body").
func (p *Parser) parseCodeSystemBodyLine() {
	start := p.b.Checkpoint()
	p.bump() // '*'
	if p.at(KindCodeLit) {
		p.parseCodeRule(start)
		return
	}
	p.b.StartNodeAt(start, KindErrorNode)
	p.consumeRestOfLine()
	p.b.FinishNode()
}

// --- shared tails ---

// consumeTrailingNewlines consumes a single line terminator. It
// deliberately does not slurp further blank lines: a run of blank lines
// after a rule is a RuleSet/declaration body boundary (spec.md §4.B), and
// callers that need to detect that boundary must see the next newline
// themselves.
func (p *Parser) consumeTrailingNewlines() {
	if p.at(KindNewline) {
		p.bump()
	}
}

func (p *Parser) consumeRestOfLine() {
	for !p.atEOF() && p.peek() != KindNewline {
		p.bump()
	}
	p.consumeTrailingNewlines()
}
