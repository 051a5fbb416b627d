package cst

// Kind is the closed tag enumeration for every token and node in the
// lossless CST. The same enumeration covers both terminals (tokens) and
// non-terminals (tree nodes), following the red/green design note in
// spec.md §9: a single Kind lets the builder open/close nodes and append
// tokens without a second vocabulary.
type Kind uint16

const (
	// KindError is emitted instead of panicking on malformed input, so
	// the tree always covers the whole source (spec.md I2).
	KindError Kind = iota
	// KindEOF is a sentinel returned by lookahead helpers past the end
	// of the token stream; it is never itself stored in a tree.
	KindEOF

	// --- Trivia ---
	KindWhitespace
	KindNewline
	KindLineComment
	KindBlockComment

	// --- Punctuation ---
	KindStar     // *
	KindColon    // :
	KindEquals   // =
	KindPlusEq   // +=
	KindPlus     // +
	KindCaret    // ^
	KindDot      // .
	KindDotDot   // ..
	KindMinus    // -
	KindArrow    // ->
	KindLAngle   // <
	KindRAngle   // >
	KindQuestion // ?
	KindQBang    // ?!
	KindBang     // !
	KindPercent  // %
	KindBackslash
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindLBrace
	KindRBrace
	KindComma
	KindSlash // / (division/regex-disambiguated)

	// --- Literals ---
	KindIntegerLit
	KindDecimalLit
	KindStringLit
	KindTripleStringLit
	KindCodeLit  // #x
	KindUnitLit  // 'x'
	KindRegexLit // /x/
	KindDateTimeLit
	KindTimeWord     // `time` used as a path segment / type word
	KindDateTimeWord // `dateTime` used as a path segment / type word
	KindBracketedParam
	KindPlainParam

	// --- Identifier ---
	KindIdent

	// --- Definition-introducing keywords ---
	KindKwProfile
	KindKwExtension
	KindKwValueSet
	KindKwCodeSystem
	KindKwInstance
	KindKwInvariant
	KindKwMapping
	KindKwLogical
	KindKwResource
	KindKwAlias
	KindKwRuleSet

	// --- Metadata keywords ---
	KindKwParent
	KindKwID
	KindKwTitle
	KindKwDescription
	KindKwInstanceOf
	KindKwUsage
	KindKwSource
	KindKwTarget
	KindKwContext
	KindKwCharacteristics
	KindKwSeverity
	KindKwXPath
	KindKwExpression

	// --- Rule keywords ---
	KindKwInsert
	KindKwContains
	KindKwAnd
	KindKwOr
	KindKwFrom
	KindKwOnly
	KindKwObeys
	KindKwWhere
	KindKwInclude
	KindKwExclude
	KindKwCodes
	KindKwSystem
	KindKwValueset
	KindKwTrue
	KindKwFalse
	KindKwExample
	KindKwRequired
	KindKwContentReference

	// --- Binding strength keywords ---
	KindKwExtensible
	KindKwPreferred

	// --- Flag keywords ---
	KindKwMS  // MustSupport
	KindKwSU  // Summary
	KindKwTU  // TrialUse
	KindKwN   // Normative
	KindKwD   // Draft

	// --- Node kinds (non-terminal) ---
	KindDocument
	KindErrorNode

	KindProfileDecl
	KindExtensionDecl
	KindValueSetDecl
	KindCodeSystemDecl
	KindInstanceDecl
	KindInvariantDecl
	KindMappingDecl
	KindLogicalDecl
	KindResourceDecl
	KindAliasDecl
	KindRuleSetDecl

	KindParentClause
	KindIDClause
	KindTitleClause
	KindDescriptionClause
	KindInstanceOfClause
	KindUsageClause
	KindSourceClause
	KindTargetClause
	KindContextClause
	KindCharacteristicsClause
	KindSeverityClause
	KindXPathClause
	KindExpressionClause

	KindPath
	KindPathSegment

	KindCardRule
	KindFlagRule
	KindValueSetRule
	KindOnlyRule
	KindObeysRule
	KindFixedValueRule
	KindContainsRule
	KindCaretRule
	KindInsertRule
	KindCodeCaretRule
	KindCodeInsertRule
	KindMappingRule
	KindAddElementRule
	KindAddCRElementRule

	KindConceptComponent
	KindFilterComponent
	KindFilterClause
	KindConcept

	KindStringValue
	KindCodeValue
	KindRegexValue
	KindCanonicalValue
	KindReferenceValue
	KindCodeableReferenceValue
	KindBoolValue
	KindNumberValue
	KindQuantityValue
	KindRatioValue
	KindNameValue

	KindRuleSetParamList
	KindRuleSetParam
	KindInsertArgs

	KindContainsItem
)

// IsTrivia reports whether k is whitespace/newline/comment — tokens that
// carry no semantics but must be preserved verbatim (spec.md I1).
func (k Kind) IsTrivia() bool {
	switch k {
	case KindWhitespace, KindNewline, KindLineComment, KindBlockComment:
		return true
	}
	return false
}

// IsKeyword reports whether k is any reserved keyword kind.
func (k Kind) IsKeyword() bool {
	return k >= KindKwProfile && k <= KindKwD
}

// IsDeclKeyword reports whether k introduces a top-level declaration.
func (k Kind) IsDeclKeyword() bool {
	switch k {
	case KindKwProfile, KindKwExtension, KindKwValueSet, KindKwCodeSystem,
		KindKwInstance, KindKwInvariant, KindKwMapping, KindKwLogical,
		KindKwResource, KindKwAlias, KindKwRuleSet:
		return true
	}
	return false
}

// IsFlag reports whether k is a flag keyword (MS, SU, TU, N, D).
func (k Kind) IsFlag() bool {
	switch k {
	case KindKwMS, KindKwSU, KindKwTU, KindKwN, KindKwD:
		return true
	}
	return false
}

// keywords maps identifier text to its keyword Kind. Anything not in this
// table lexes as KindIdent.
var keywords = map[string]Kind{
	"Profile":         KindKwProfile,
	"Extension":       KindKwExtension,
	"ValueSet":        KindKwValueSet,
	"CodeSystem":      KindKwCodeSystem,
	"Instance":        KindKwInstance,
	"Invariant":       KindKwInvariant,
	"Mapping":         KindKwMapping,
	"Logical":         KindKwLogical,
	"Resource":        KindKwResource,
	"Alias":           KindKwAlias,
	"RuleSet":         KindKwRuleSet,

	"Parent":          KindKwParent,
	"Id":              KindKwID,
	"Title":           KindKwTitle,
	"Description":     KindKwDescription,
	"InstanceOf":      KindKwInstanceOf,
	"Usage":           KindKwUsage,
	"Source":          KindKwSource,
	"Target":          KindKwTarget,
	"Context":         KindKwContext,
	"Characteristics": KindKwCharacteristics,
	"Severity":        KindKwSeverity,
	"XPath":           KindKwXPath,
	"Expression":      KindKwExpression,

	"insert":   KindKwInsert,
	"contains": KindKwContains,
	"and":      KindKwAnd,
	"or":       KindKwOr,
	"from":     KindKwFrom,
	"only":     KindKwOnly,
	"obeys":    KindKwObeys,
	"where":    KindKwWhere,
	"include":  KindKwInclude,
	"exclude":  KindKwExclude,
	"codes":    KindKwCodes,
	"system":   KindKwSystem,
	"valueset": KindKwValueset,
	"true":     KindKwTrue,
	"false":    KindKwFalse,
	"example":  KindKwExample,
	"required": KindKwRequired,
	"contentreference": KindKwContentReference,

	"extensible": KindKwExtensible,
	"preferred":  KindKwPreferred,

	"MS": KindKwMS,
	"SU": KindKwSU,
	"TU": KindKwTU,
	"N":  KindKwN,
	"D":  KindKwD,

	"dateTime": KindDateTimeWord,
	"time":     KindTimeWord,
}

// LookupKeyword returns the keyword Kind for text, or (KindIdent, false)
// if text is not reserved.
func LookupKeyword(text string) (Kind, bool) {
	if k, ok := keywords[text]; ok {
		return k, true
	}
	return KindIdent, false
}
