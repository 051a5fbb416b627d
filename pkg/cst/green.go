package cst

import "strings"

// GreenNode is the immutable, structurally-shared tree node described in
// spec.md §9. Rather than a hand-rolled arena + integer-index scheme, this
// implementation leans on Go's garbage collector: GreenNode values are
// never mutated after Builder.Finish constructs them, so plain
// pointers give the same structural-sharing property an arena would (a
// GreenNode may be referenced from more than one place in a red tree,
// e.g. by RuleSet expansion re-using a parsed argument fragment) without
// a parent pointer anywhere in this layer (spec.md invariant I3 only
// applies to the red view).
type GreenNode struct {
	Kind     Kind
	Children []GreenChild
	textLen  uint32
}

// GreenChild is either a leaf Token or a nested *GreenNode.
type GreenChild struct {
	Token *Token
	Node  *GreenNode
}

// Kind returns the child's Kind, whether it is a token or a node.
func (c GreenChild) Kind() Kind {
	if c.Token != nil {
		return c.Token.Kind
	}
	return c.Node.Kind
}

// TextLen returns the number of source bytes this child covers.
func (c GreenChild) TextLen() uint32 {
	if c.Token != nil {
		return c.Token.Span.Len()
	}
	return c.Node.textLen
}

// Text reconstructs this child's exact source text.
func (c GreenChild) Text() string {
	if c.Token != nil {
		return c.Token.Text
	}
	return c.Node.Text()
}

// NewGreenToken wraps a Token as a GreenChild leaf.
func NewGreenToken(t Token) GreenChild {
	tok := t
	return GreenChild{Token: &tok}
}

// TextLen returns the total number of source bytes under this node.
func (n *GreenNode) TextLen() uint32 { return n.textLen }

// Text reconstructs this node's exact source text by concatenating every
// descendant token left to right (spec.md invariant I1).
func (n *GreenNode) Text() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *GreenNode) writeText(sb *strings.Builder) {
	for _, c := range n.Children {
		if c.Token != nil {
			sb.WriteString(c.Token.Text)
		} else {
			c.Node.writeText(sb)
		}
	}
}

func newGreenNode(kind Kind, children []GreenChild) *GreenNode {
	var total uint32
	for _, c := range children {
		total += c.TextLen()
	}
	return &GreenNode{Kind: kind, Children: children, textLen: total}
}
