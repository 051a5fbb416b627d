package cst

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reassemble concatenates every token's Text, the property spec.md calls
// losslessness (I1): the tree (and by extension the flat token stream it
// is built from) always covers every source byte.
func reassemble(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func TestLexLosslessRoundTrip(t *testing.T) {
	samples := []string{
		"Profile: MyPatient\nParent: Patient\n* name 1..1 MS\n",
		"Alias: $sct = http://snomed.info/sct\n",
		"* component contains SystolicBP 1..1 and DiastolicBP 1..1\n",
		"* valueQuantity = 5.4 'mg'\n* ratio = 1:2\n* plain = 5\n",
		"// a line comment\n/* a block\ncomment */\nInstance: Foo\n",
		"* code from http://example.org/vs (extensible)\n",
		"* onset[x] only dateTime or Age\n",
		`* url = "http://example.org"` + "\n",
		`* note = """a triple
quoted string"""` + "\n",
		"RuleSet: Params(a, b)\n* #{a} ^short = \"{b}\"\n",
	}
	for _, src := range samples {
		tokens, _ := Lex(src)
		assert.Equal(t, src, reassemble(tokens), "lossless round trip for %q", src)
	}
}

func TestLexDeterministic(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* status = #final\n"
	t1, e1 := Lex(src)
	t2, e2 := Lex(src)
	require.Equal(t, len(e1), len(e2))
	require.Equal(t, len(t1), len(t2))
	for i := range t1 {
		assert.Equal(t, t1[i], t2[i])
	}
}

func TestLexKeywordsVsIdent(t *testing.T) {
	tokens, errs := Lex("Profile: Foobar\n")
	require.Empty(t, errs)
	require.GreaterOrEqual(t, len(tokens), 3)
	assert.Equal(t, KindKwProfile, tokens[0].Kind)
	assert.Equal(t, KindColon, tokens[1].Kind)
}

func TestLexUnterminatedString(t *testing.T) {
	tokens, errs := Lex(`* title = "unterminated` + "\n")
	require.NotEmpty(t, errs)
	found := false
	for _, tok := range tokens {
		if tok.Kind == KindError {
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, `* title = "unterminated`+"\n", reassemble(tokens))
}

func TestLexRegexVsSlashDivision(t *testing.T) {
	tokens, _ := Lex("* exp = /[a-z]+/\n")
	var sawRegex bool
	for _, tok := range tokens {
		if tok.Kind == KindRegexLit {
			sawRegex = true
			assert.Equal(t, "/[a-z]+/", tok.Text)
		}
	}
	assert.True(t, sawRegex)
}

func TestLexURLSlashesNotRegex(t *testing.T) {
	tokens, _ := Lex("Alias: $a = http://example.org/sct\n")
	for _, tok := range tokens {
		assert.NotEqual(t, KindRegexLit, tok.Kind)
		assert.NotEqual(t, KindLineComment, tok.Kind)
	}
}

func TestLexDateTimeLiteral(t *testing.T) {
	tokens, errs := Lex("* effective = 2020-01-01T00:00:00Z\n")
	require.Empty(t, errs)
	var sawDT bool
	for _, tok := range tokens {
		if tok.Kind == KindDateTimeLit {
			sawDT = true
			assert.Equal(t, "2020-01-01T00:00:00Z", tok.Text)
		}
	}
	assert.True(t, sawDT)
}

func TestLexPlainNumberNotDateTime(t *testing.T) {
	tokens, _ := Lex("* valueInteger = 1990\n")
	for _, tok := range tokens {
		if tok.Kind == KindIntegerLit {
			assert.Equal(t, "1990", tok.Text)
		}
		assert.NotEqual(t, KindDateTimeLit, tok.Kind)
	}
}
