package cst

// RedNode is a lazily-constructed cursor over a GreenNode with absolute
// source offsets (spec.md §9). A red node owns no storage itself — it
// only records the shared green node it views, its parent cursor, and
// its absolute byte offset — so the same GreenNode can be viewed from
// many positions while every RedNode still has exactly one parent
// (spec.md invariant I3).
type RedNode struct {
	green  *GreenNode
	parent *RedNode
	offset uint32
}

// NewRoot builds the root red cursor over a green tree.
func NewRoot(green *GreenNode) *RedNode {
	return &RedNode{green: green, offset: 0}
}

// Kind returns the underlying green node's Kind.
func (r *RedNode) Kind() Kind { return r.green.Kind }

// TextRange returns this node's absolute [start, end) byte span.
func (r *RedNode) TextRange() Span {
	return Span{Start: r.offset, End: r.offset + r.green.textLen}
}

// Text reconstructs this node's exact source text.
func (r *RedNode) Text() string { return r.green.Text() }

// Parent returns the enclosing red node, or nil at the root.
func (r *RedNode) Parent() *RedNode { return r.parent }

// Green exposes the underlying green node (for AST overlays that need to
// inspect children kinds without allocating red cursors for all of them).
func (r *RedNode) Green() *GreenNode { return r.green }

// Children lazily constructs red cursors for every direct child node
// (tokens are not wrapped; use ChildTokens or Children+kind checks).
func (r *RedNode) Children() []*RedNode {
	out := make([]*RedNode, 0, len(r.green.Children))
	off := r.offset
	for _, c := range r.green.Children {
		if c.Node != nil {
			out = append(out, &RedNode{green: c.Node, parent: r, offset: off})
		}
		off += c.TextLen()
	}
	return out
}

// ChildTokens returns every direct-child token (including trivia) with
// its absolute span.
func (r *RedNode) ChildTokens() []PositionedToken {
	out := make([]PositionedToken, 0, len(r.green.Children))
	off := r.offset
	for _, c := range r.green.Children {
		if c.Token != nil {
			out = append(out, PositionedToken{Token: *c.Token, Span: Span{Start: off, End: off + c.TextLen()}})
		}
		off += c.TextLen()
	}
	return out
}

// PositionedToken is a Token together with its absolute (re-based) span,
// since a Token's own Span is only meaningful relative to the source it
// was lexed from.
type PositionedToken struct {
	Token
	Span Span
}

// ChildrenOfKind returns direct-child nodes matching any of kinds, in
// source order.
func (r *RedNode) ChildrenOfKind(kinds ...Kind) []*RedNode {
	var out []*RedNode
	for _, c := range r.Children() {
		for _, k := range kinds {
			if c.Kind() == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// FirstChildOfKind returns the first direct-child node of kind, or nil.
func (r *RedNode) FirstChildOfKind(kind Kind) *RedNode {
	for _, c := range r.Children() {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// FirstTokenOfKind returns the first direct-child token of kind, or
// (PositionedToken{}, false).
func (r *RedNode) FirstTokenOfKind(kind Kind) (PositionedToken, bool) {
	for _, t := range r.ChildTokens() {
		if t.Kind == kind {
			return t, true
		}
	}
	return PositionedToken{}, false
}

// Descendants walks the subtree rooted at r, depth-first, pre-order.
func (r *RedNode) Descendants() []*RedNode {
	var out []*RedNode
	var walk func(n *RedNode)
	walk = func(n *RedNode) {
		out = append(out, n)
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(r)
	return out
}

// DescendantTokens returns every token (including trivia) in the subtree,
// in source order, with absolute spans.
func (r *RedNode) DescendantTokens() []PositionedToken {
	var out []PositionedToken
	var walk func(n *RedNode)
	walk = func(n *RedNode) {
		off := n.offset
		for _, c := range n.green.Children {
			if c.Token != nil {
				out = append(out, PositionedToken{Token: *c.Token, Span: Span{Start: off, End: off + c.TextLen()}})
			} else {
				walk(&RedNode{green: c.Node, parent: n, offset: off})
			}
			off += c.TextLen()
		}
	}
	walk(r)
	return out
}
