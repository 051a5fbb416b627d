package semantic

import (
	"github.com/fshlint/fshlint/pkg/ast"
	"github.com/fshlint/fshlint/pkg/cst"
)

// ReferenceSite is an unresolved reference recorded for a later pass
// (spec.md §3 "references: [ReferenceSite]").
type ReferenceSite struct {
	Name       string
	SourceFile string
	Start, End uint32
}

// Model is the per-file Semantic Model (spec.md §3, §4.D).
type Model struct {
	Tree          *cst.Tree
	Source        string
	SourceFile    string
	SourceMap     *SourceMap
	Aliases       *AliasTable
	Symbols       *SymbolTable
	References    []ReferenceSite
	DeferredRules *DeferredRuleQueue
}

// Document returns the typed AST overlay over this model's parsed tree.
func (m *Model) Document() ast.Document { return ast.NewDocument(m.Tree.Root()) }

// Build constructs a Model for one file's source text and tree. aliases
// and deferred are shared across every file in a compilation unit; a
// fresh SourceMap is created per file. symbols is passed in too, so a
// caller can share one SymbolTable across the compilation unit and
// detect symbol conflicts there.
func Build(sourceFile, source string, tree *cst.Tree, aliases *AliasTable, symbols *SymbolTable, deferred *DeferredRuleQueue) *Model {
	m := &Model{
		Tree:          tree,
		Source:        source,
		SourceFile:    sourceFile,
		SourceMap:     NewSourceMap(source),
		Aliases:       aliases,
		Symbols:       symbols,
		DeferredRules: deferred,
	}
	m.populateAliases()
	m.populateSymbols()
	return m
}

var symbolKindByDeclKind = map[cst.Kind]DeclKind{
	cst.KindProfileDecl:    DeclProfile,
	cst.KindExtensionDecl:  DeclExtension,
	cst.KindValueSetDecl:   DeclValueSet,
	cst.KindCodeSystemDecl: DeclCodeSystem,
	cst.KindInstanceDecl:   DeclInstance,
	cst.KindInvariantDecl:  DeclInvariant,
	cst.KindRuleSetDecl:    DeclRuleSet,
	cst.KindLogicalDecl:    DeclLogical,
	cst.KindResourceDecl:   DeclResource,
}

func (m *Model) populateAliases() {
	for _, d := range m.Document().Declarations() {
		if d.Kind() != cst.KindAliasDecl {
			continue
		}
		av := d.AsAlias()
		name, url := av.Name(), av.URL()
		if name == "" || url == "" {
			continue
		}
		m.Aliases.Declare(name, url, m.SourceFile, d.Node.TextRange().Start, d.Node.TextRange().End)
	}
}

func (m *Model) populateSymbols() {
	for _, d := range m.Document().Declarations() {
		kind, ok := symbolKindByDeclKind[d.Kind()]
		if !ok {
			continue
		}
		name := d.Name()
		if name == "" {
			continue
		}
		rng := d.Node.TextRange()
		m.Symbols.Declare(Symbol{Name: name, Kind: kind, SourceFile: m.SourceFile, Start: rng.Start, End: rng.End})
	}
}
